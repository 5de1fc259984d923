package events

import (
	"testing"
	"time"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Publish(LabTemperatureChanged, LabTemperatureEvent{From: 22.5, To: 21, Ts: time.Now().Unix()})

	select {
	case ev := <-ch:
		if ev.Name != LabTemperatureChanged {
			t.Fatalf("event name = %q, want %q", ev.Name, LabTemperatureChanged)
		}
		payload, err := DecodeAs[LabTemperatureEvent](ev)
		if err != nil {
			t.Fatalf("DecodeAs returned error: %v", err)
		}
		if payload.From != 22.5 || payload.To != 21 {
			t.Fatalf("unexpected payload: %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// Overflow the buffered channel; Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(LiquidChanged, LiquidEvent{Name: "water"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatal("channel must be closed after Unsubscribe")
	}

	// Double unsubscribe must be a no-op.
	h.Unsubscribe(ch)
}
