package service

import (
	"testing"
	"time"
)

func TestEventBusFanOut(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	if bus.Len() != 2 {
		t.Fatalf("subscribers=%d, want 2", bus.Len())
	}

	bus.Publish(Event{Resource: ResourceDataset, Action: "reseeded", ID: "s1"})
	for _, ch := range []chan Event{a, b} {
		select {
		case e := <-ch:
			if e.ID != "s1" || e.Time.IsZero() {
				t.Fatalf("event=%+v", e)
			}
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}

	bus.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Fatal("unsubscribed channel should be closed")
	}
	bus.Unsubscribe(a)
}

func TestEventBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()
	for i := 0; i < 100; i++ {
		bus.Publish(Event{Resource: ResourceTiles})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffered=%d, want %d", len(ch), cap(ch))
	}
}

func TestEventBusClose(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	late := bus.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("subscribe after close should return closed channel")
	}

	var nilBus *EventBus
	nilBus.Publish(Event{})
}
