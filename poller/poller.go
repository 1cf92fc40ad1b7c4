// Package poller refreshes the cached state of an entry's devices on the entry's scan interval.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nlowe/goveemqtt/entry"
	"github.com/nlowe/goveemqtt/govee"
	"github.com/nlowe/goveemqtt/log"
	"github.com/nlowe/goveemqtt/state"
)

// StateFetcher reads the current state of a device from the cloud.
type StateFetcher interface {
	State(ctx context.Context, d govee.Device) ([]govee.CapabilityState, error)
}

// StatePersister saves a snapshot of an entry's cache.
type StatePersister interface {
	SaveState(ctx context.Context, entryID string, entries []state.Entry) error
}

// UpdateFunc is called for every device whose state was refreshed.
type UpdateFunc func(deviceID string)

type Poller struct {
	entry   *entry.Entry
	fetcher StateFetcher

	persister StatePersister
	onUpdate  UpdateFunc

	refreshCh chan struct{}
	log       *slog.Logger
}

// Option configures optional Poller collaborators.
type Option func(*Poller)

// WithPersister saves a snapshot after every poll.
func WithPersister(p StatePersister) Option {
	return func(poller *Poller) {
		poller.persister = p
	}
}

// WithUpdateFunc registers a callback for refreshed devices.
func WithUpdateFunc(f UpdateFunc) Option {
	return func(poller *Poller) {
		poller.onUpdate = f
	}
}

func New(e *entry.Entry, fetcher StateFetcher, opts ...Option) *Poller {
	p := &Poller{
		entry:     e,
		fetcher:   fetcher,
		refreshCh: make(chan struct{}, 1),
		log:       log.ForComponent("poller").With(log.Entry(e.ID)),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// TriggerRefresh makes Run poll immediately instead of waiting for the rest of the interval.
func (p *Poller) TriggerRefresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

// Run polls once right away and then every Entry.ScanInterval until ctx is done. A changed interval is picked up
// after the current wait.
func (p *Poller) Run(ctx context.Context) {
	for {
		if err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}

			p.log.With(log.Failure(err)...).Error("Poll failed")
		}

		timer := time.NewTimer(p.entry.ScanInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-p.refreshCh:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// PollOnce fetches the state of every device of the entry. A device that fails does not stop the others, all
// failures are returned joined.
func (p *Poller) PollOnce(ctx context.Context) error {
	var errs []error
	refreshed := 0

	for _, d := range p.entry.Devices() {
		if err := ctx.Err(); err != nil {
			return err
		}

		states, err := p.fetcher.State(ctx, d)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		p.entry.State.Replace(d.ID, states)
		refreshed++

		if p.onUpdate != nil {
			p.onUpdate(d.ID)
		}
	}

	if p.persister != nil && refreshed > 0 {
		if err := p.persister.SaveState(ctx, p.entry.ID, p.entry.State.Snapshot()); err != nil {
			errs = append(errs, err)
		}
	}

	p.log.With(slog.Int("refreshed", refreshed), slog.Int("failed", len(errs))).Debug("Polled devices")
	return errors.Join(errs...)
}
