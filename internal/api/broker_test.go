package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("plan_1")
	b.Publish("plan_1", SSEEvent{Type: "plan.completed", Data: map[string]any{"planId": "plan_1"}})
	select {
	case evt := <-ch:
		if evt.Type != "plan.completed" {
			t.Fatalf("event type: %s", evt.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	b.Unsubscribe("plan_1", ch)
	// publishing after unsubscribe must not panic
	b.Publish("plan_1", SSEEvent{Type: "plan.completed"})
}

func TestBrokerIsolatesPlans(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("plan_a")
	defer b.Unsubscribe("plan_a", ch)
	b.Publish("plan_b", SSEEvent{Type: "plan.completed"})
	select {
	case <-ch:
		t.Fatal("event leaked across plan ids")
	case <-time.After(50 * time.Millisecond):
	}
}
