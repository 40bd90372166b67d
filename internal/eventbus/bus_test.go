package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/formforge/formforge/internal/event"
)

type countingHandler struct {
	mu     sync.Mutex
	events []event.DomainEvent
	err    error
}

func (h *countingHandler) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
	return h.err
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := New(16)
	a := &countingHandler{}
	b := &countingHandler{}
	bus.Subscribe("a", a)
	bus.Subscribe("b", b)

	ctx, cancel := context.WithCancel(context.Background())
	bus.Start(ctx)

	for i := 0; i < 3; i++ {
		bus.Publish(ctx, event.NewFieldPublished(event.FieldPublishedPayload{FieldName: "F"}))
	}

	cancel()
	bus.Wait()

	if a.count() != 3 {
		t.Errorf("handler a saw %d events, want 3", a.count())
	}
	if b.count() != 3 {
		t.Errorf("handler b saw %d events, want 3", b.count())
	}
}

func TestBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := New(16)
	failing := &countingHandler{err: errors.New("boom")}
	healthy := &countingHandler{}
	bus.Subscribe("failing", failing)
	bus.Subscribe("healthy", healthy)

	ctx, cancel := context.WithCancel(context.Background())
	bus.Start(ctx)
	bus.Publish(ctx, event.NewSubmissionReceived(event.SubmissionReceivedPayload{ValueCount: 1}))
	cancel()
	bus.Wait()

	if healthy.count() != 1 {
		t.Errorf("healthy handler saw %d events, want 1", healthy.count())
	}
}

func TestBus_PublishNeverBlocksWhenFull(t *testing.T) {
	bus := New(1)
	// No consumer started; the second publish must drop rather than block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx := context.Background()
		bus.Publish(ctx, event.NewFieldPublished(event.FieldPublishedPayload{}))
		bus.Publish(ctx, event.NewFieldPublished(event.FieldPublishedPayload{}))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
}

func TestBus_DrainsBufferedEventsOnShutdown(t *testing.T) {
	bus := New(16)
	h := &countingHandler{}
	bus.Subscribe("h", h)

	// Publish before starting so events sit in the buffer, then cancel
	// immediately: the consumer must still drain them.
	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 5; i++ {
		bus.Publish(ctx, event.NewFieldPublished(event.FieldPublishedPayload{}))
	}
	bus.Start(ctx)
	cancel()
	bus.Wait()

	if h.count() != 5 {
		t.Errorf("handler saw %d events, want 5", h.count())
	}
}
