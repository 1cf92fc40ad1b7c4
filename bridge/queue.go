package bridge

import (
	"sync"

	"github.com/nlowe/goveemqtt/platform"
)

// commandQueue holds the pending commands of one light. Commands are handed out in arrival order and at most one
// drain runs at a time, so push never blocks the mqtt callback.
type commandQueue struct {
	mu       sync.Mutex
	pending  []platform.LightCommand
	draining bool
}

// push queues cmd and reports whether the caller has to start a drain.
func (q *commandQueue) push(cmd platform.LightCommand) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, cmd)
	if q.draining {
		return false
	}

	q.draining = true
	return true
}

// next pops the oldest pending command. Once the queue is empty the drain is over and the next push starts a new one.
func (q *commandQueue) next() (platform.LightCommand, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		q.draining = false
		q.pending = nil
		return platform.LightCommand{}, false
	}

	cmd := q.pending[0]
	q.pending[0] = platform.LightCommand{}
	q.pending = q.pending[1:]
	return cmd, true
}
