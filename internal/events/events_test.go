package events

import (
	"context"
	"testing"
	"time"
)

func TestEmitDeliversToAllSubscribers(t *testing.T) {
	e := NewEmitter()
	a, cancelA := e.Subscribe(4)
	b, cancelB := e.Subscribe(4)
	defer cancelA()
	defer cancelB()

	e.Emit(Event{Kind: BatchComplete, BatchID: "b1"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Kind != BatchComplete || ev.BatchID != "b1" {
				t.Errorf("unexpected event %+v", ev)
			}
			if ev.Time.IsZero() {
				t.Error("event time not stamped")
			}
		default:
			t.Fatal("event not delivered")
		}
	}
}

func TestEmitNeverBlocksOnFullSubscriber(t *testing.T) {
	e := NewEmitter()
	_, cancel := e.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for range 10 {
			e.Emit(Event{Kind: BatchProgress})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}
	if got := e.Dropped(); got != 9 {
		t.Errorf("dropped = %d, want 9", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	e := NewEmitter()
	ch, cancel := e.Subscribe(1)
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
	if e.Subscribers() != 0 {
		t.Errorf("subscribers = %d", e.Subscribers())
	}
	e.Emit(Event{Kind: BatchError})
}

func TestAttachRunsSink(t *testing.T) {
	e := NewEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Event, 1)
	e.Attach(ctx, SinkFunc(func(ev Event) { got <- ev }))

	e.Emit(Event{Kind: DownloadError, ItemID: "i1"})
	select {
	case ev := <-got:
		if ev.ItemID != "i1" {
			t.Errorf("item id = %q", ev.ItemID)
		}
	case <-time.After(time.Second):
		t.Fatal("sink not invoked")
	}
}
