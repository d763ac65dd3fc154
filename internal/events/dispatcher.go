package events

import (
	"context"
	"errors"
	"sync"

	"eventhire_backend/internal/logger"
)

// Dispatcher fans an event out to the handlers subscribed to its type.
// Handlers subscribed with no types receive everything.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	all      []Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Type][]Handler)}
}

func (d *Dispatcher) Subscribe(h Handler, types ...Type) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(types) == 0 {
		d.all = append(d.all, h)
		return
	}
	for _, t := range types {
		d.handlers[t] = append(d.handlers[t], h)
	}
}

// Dispatch runs every matching handler and joins their errors.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	d.mu.RLock()
	hs := append(append([]Handler(nil), d.handlers[ev.Type]...), d.all...)
	d.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := h(ctx, ev); err != nil {
			logger.CtxWithError(ctx, "Event handler failed", err, "event_type", string(ev.Type), "event_id", ev.ID)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
