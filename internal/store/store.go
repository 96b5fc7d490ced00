package store

import (
	"context"
	"errors"
	"time"

	"carpool/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Area membership (ordered; order drives duplicate-ownership tie-breaks)
	SaveAreas(ctx context.Context, tenantID string, areas []model.Area) error
	ListAreas(ctx context.Context, tenantID string) ([]model.Area, error)

	// Driver roster
	SaveDrivers(ctx context.Context, tenantID string, drivers []model.Driver) error
	ListDrivers(ctx context.Context, tenantID string) ([]model.Driver, error)

	// Distance table
	SaveDistances(ctx context.Context, tenantID string, edges []model.DistanceEdge) error
	ListDistances(ctx context.Context, tenantID string) ([]model.DistanceEdge, error)

	// Plans
	SavePlan(ctx context.Context, p model.Plan) error
	GetPlan(ctx context.Context, tenantID, planID string) (model.Plan, error)
	ListPlans(ctx context.Context, tenantID, cursor string, limit int) ([]model.Plan, string, error)

	// Webhook subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, tenantID string) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, tenantID, id string) error

	// Webhook delivery queue
	EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
	ListWebhookDeliveries(ctx context.Context, tenantID, status string, limit int) ([]map[string]any, error)
	RetryWebhookDelivery(ctx context.Context, tenantID, id string) error
}

var ErrNotFound = errors.New("not found")
