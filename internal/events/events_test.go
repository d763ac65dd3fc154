package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndDecode(t *testing.T) {
	ev, err := New(ServiceRequestAccepted, ServiceRequestPayload{RequestID: "r1", EventName: "Gala"})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, ServiceRequestAccepted, ev.Type)

	var p ServiceRequestPayload
	require.NoError(t, ev.Decode(&p))
	assert.Equal(t, "r1", p.RequestID)
	assert.Equal(t, "Gala", p.EventName)
}

func TestDispatcher_RoutesByType(t *testing.T) {
	d := NewDispatcher()
	var typed, all int
	d.Subscribe(func(context.Context, Event) error { typed++; return nil }, MessageSent)
	d.Subscribe(func(context.Context, Event) error { all++; return nil })

	require.NoError(t, d.Dispatch(context.Background(), Event{Type: MessageSent}))
	require.NoError(t, d.Dispatch(context.Background(), Event{Type: UserRegistered}))

	assert.Equal(t, 1, typed)
	assert.Equal(t, 2, all)
}

func TestDispatcher_JoinsErrors(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("boom")
	d.Subscribe(func(context.Context, Event) error { return boom })
	d.Subscribe(func(context.Context, Event) error { return nil })

	err := d.Dispatch(context.Background(), Event{Type: PaymentFailed})
	assert.ErrorIs(t, err, boom)
}

func TestBus_DeliversAsynchronously(t *testing.T) {
	bus := NewBus(8)
	var mu sync.Mutex
	var got []Type
	done := make(chan struct{}, 2)
	bus.Subscribe(func(_ context.Context, ev Event) error {
		mu.Lock()
		got = append(got, ev.Type)
		mu.Unlock()
		done <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	require.NoError(t, PublishPayload(ctx, bus, ServiceRequestCreated, ServiceRequestPayload{RequestID: "a"}))
	require.NoError(t, PublishPayload(ctx, bus, ServiceRequestExpired, ServiceRequestPayload{RequestID: "a"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Type{ServiceRequestCreated, ServiceRequestExpired}, got)
}

func TestBus_HandlerPanicDoesNotStopBus(t *testing.T) {
	bus := NewBus(4)
	delivered := make(chan struct{}, 1)
	bus.Subscribe(func(context.Context, Event) error { panic("bad handler") }, PaymentFailed)
	bus.Subscribe(func(context.Context, Event) error { delivered <- struct{}{}; return nil }, MessageSent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	require.NoError(t, bus.Publish(ctx, Event{Type: PaymentFailed}))
	require.NoError(t, bus.Publish(ctx, Event{Type: MessageSent}))

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("bus stopped after panic")
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus(1)
	bus.Close()
	assert.ErrorIs(t, bus.Publish(context.Background(), Event{Type: MessageSent}), ErrBusClosed)
}

func TestPublishPayload_NilPublisher(t *testing.T) {
	assert.NoError(t, PublishPayload(context.Background(), nil, MessageSent, nil))
}
