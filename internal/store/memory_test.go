package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"carpool/internal/model"
)

func TestMemoryPlanRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	p := model.Plan{
		ID:              "plan_1",
		TenantID:        "t1",
		Depot:           "depot",
		RideAssignments: map[string][]string{"dana": {"ann"}},
		Unassigned:      []string{},
		Cost:            4,
	}
	if err := m.SavePlan(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, err := m.GetPlan(ctx, "t1", "plan_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.RideAssignments["dana"][0] != "ann" {
		t.Fatalf("assignments: %v", got.RideAssignments)
	}
	if _, err := m.GetPlan(ctx, "other", "plan_1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant read must miss, got %v", err)
	}
}

func TestMemoryListPlansPagination(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, id := range []string{"plan_a", "plan_b", "plan_c"} {
		if err := m.SavePlan(ctx, model.Plan{ID: id, TenantID: "t1"}); err != nil {
			t.Fatal(err)
		}
	}
	first, cursor, err := m.ListPlans(ctx, "t1", "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 || cursor != "plan_b" {
		t.Fatalf("first page: %d items cursor %q", len(first), cursor)
	}
	rest, cursor, err := m.ListPlans(ctx, "t1", cursor, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 || rest[0].ID != "plan_c" || cursor != "" {
		t.Fatalf("second page: %v cursor %q", rest, cursor)
	}
}

func TestMemorySubscriptionEventMatching(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	exact, err := m.CreateSubscription(ctx, model.SubscriptionRequest{
		TenantID: "t1", URL: "https://a.example", Events: []string{"plan.completed"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateSubscription(ctx, model.SubscriptionRequest{
		TenantID: "t1", URL: "https://b.example", Events: []string{"areas.updated"},
	}); err != nil {
		t.Fatal(err)
	}
	wild, err := m.CreateSubscription(ctx, model.SubscriptionRequest{
		TenantID: "t1", URL: "https://c.example", Events: []string{"*"},
	})
	if err != nil {
		t.Fatal(err)
	}

	subs, err := m.GetSubscriptionsForEvent(ctx, "t1", "plan.completed")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("want exact+wildcard matches, got %v", subs)
	}

	if err := m.DeleteSubscription(ctx, "t1", exact.ID); err != nil {
		t.Fatal(err)
	}
	subs, _ = m.GetSubscriptionsForEvent(ctx, "t1", "plan.completed")
	if len(subs) != 1 || subs[0].ID != wild.ID {
		t.Fatalf("after delete: %v", subs)
	}
}

func TestMemoryWebhookLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.EnqueueWebhook(ctx, "t1", "sub_x", "plan.completed", "https://hook.example", "s3cret", []byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}

	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].ID != id {
		t.Fatalf("due: %v", due)
	}

	// A failed attempt with a future retry time drops out of the due set.
	next := time.Now().Add(time.Hour)
	if err := m.MarkWebhookDelivery(ctx, id, false, &next, "connection refused", 0, 12); err != nil {
		t.Fatal(err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("retry scheduled in the future must not be due: %v", due)
	}

	// Manual retry makes it due again; success retires it.
	if err := m.RetryWebhookDelivery(ctx, "t1", id); err != nil {
		t.Fatal(err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 {
		t.Fatalf("retried delivery should be due: %v", due)
	}
	if err := m.MarkWebhookDelivery(ctx, id, true, nil, "", 200, 8); err != nil {
		t.Fatal(err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatal("delivered webhook must not be due")
	}

	list, err := m.ListWebhookDeliveries(ctx, "t1", "delivered", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0]["attempts"].(int) != 2 {
		t.Fatalf("deliveries: %v", list)
	}
}
