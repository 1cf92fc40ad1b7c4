// Package service implements the actions Home Assistant users can invoke on the bridge, such as changing the poll
// interval or setting per-segment colors.
package service

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/nlowe/goveemqtt/log"
)

// Domain is the domain every service of this bridge is registered under.
const Domain = "goveemqtt"

// ErrUnknownService is the error returned by Registry.Call when no handler is registered.
var ErrUnknownService = errors.New("service: unknown service")

// Call is one invocation of a service.
type Call struct {
	// Target holds the entity ids the call targets.
	Target []string       `json:"entity_id,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

func (c Call) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("target", c.Target),
		slog.Any("fields", slices.Sorted(maps.Keys(c.Data))),
	)
}

// Handler executes a service call. Handlers log their own failures.
type Handler interface {
	Handle(ctx context.Context, call Call)
}

// The HandlerFunc type is an adapter to allow the use of ordinary functions as service handlers.
type HandlerFunc func(ctx context.Context, call Call)

func (f HandlerFunc) Handle(ctx context.Context, call Call) {
	f(ctx, call)
}

type serviceKey struct {
	domain string
	name   string
}

// Registry holds registered services. The zero value is ready to use.
type Registry struct {
	mu       sync.RWMutex
	services map[serviceKey]Handler
}

// Register adds a service unless one with the same name already exists, in which case the first registration is kept.
// It reports whether h was registered.
func (r *Registry) Register(domain, name string, h Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := log.ForComponent("service").With(slog.String("domain", domain), slog.String("service", name))

	key := serviceKey{domain: domain, name: name}
	if _, exists := r.services[key]; exists {
		l.Debug("Service already registered")
		return false
	}

	if r.services == nil {
		r.services = map[serviceKey]Handler{}
	}

	r.services[key] = h
	l.Debug("Registered service")
	return true
}

// Has reports whether a service is registered.
func (r *Registry) Has(domain, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.services[serviceKey{domain: domain, name: name}]
	return ok
}

// Services lists the registered service names of domain.
func (r *Registry) Services(domain string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for k := range r.services {
		if k.domain == domain {
			names = append(names, k.name)
		}
	}

	slices.Sort(names)
	return names
}

// Call runs the handler for the named service.
func (r *Registry) Call(ctx context.Context, domain, name string, call Call) error {
	r.mu.RLock()
	h, ok := r.services[serviceKey{domain: domain, name: name}]
	r.mu.RUnlock()

	if !ok {
		log.ForComponent("service").With(slog.String("domain", domain), slog.String("service", name)).
			Warn("Call to unknown service")
		return ErrUnknownService
	}

	h.Handle(ctx, call)
	return nil
}
