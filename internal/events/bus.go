package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/metrics"
)

var ErrBusClosed = errors.New("event bus closed")

// Bus is the in-process transport: Publish enqueues, Run delivers to the
// dispatcher on its own goroutine.
type Bus struct {
	*Dispatcher

	queue     chan Event
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		Dispatcher: NewDispatcher(),
		queue:      make(chan Event, buffer),
		done:       make(chan struct{}),
	}
}

func (b *Bus) Publish(ctx context.Context, ev Event) error {
	select {
	case <-b.done:
		metrics.RecordEventPublished(string(ev.Type), ErrBusClosed)
		return ErrBusClosed
	default:
	}
	select {
	case b.queue <- ev:
		metrics.RecordEventPublished(string(ev.Type), nil)
		return nil
	case <-ctx.Done():
		metrics.RecordEventPublished(string(ev.Type), ctx.Err())
		return ctx.Err()
	case <-b.done:
		return ErrBusClosed
	}
}

// Run delivers queued events until ctx is cancelled or Close is called,
// then drains what is left with a short deadline.
func (b *Bus) Run(ctx context.Context) {
	b.wg.Add(1)
	defer b.wg.Done()
	for {
		select {
		case ev := <-b.queue:
			b.deliver(ctx, ev)
		case <-ctx.Done():
			b.drain()
			return
		case <-b.done:
			b.drain()
			return
		}
	}
}

func (b *Bus) deliver(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Event handler panicked", "event_type", string(ev.Type), "panic", r)
		}
	}()
	_ = b.Dispatch(ctx, ev)
}

func (b *Bus) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-b.queue:
			b.deliver(ctx, ev)
		default:
			return
		}
	}
}

// Close stops Run after it has drained the queue.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
	b.wg.Wait()
}
