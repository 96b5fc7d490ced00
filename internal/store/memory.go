package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"carpool/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu        sync.Mutex
	areas     map[string][]model.Area         // tenant -> ordered areas
	drivers   map[string][]model.Driver       // tenant -> roster
	distances map[string][]model.DistanceEdge // tenant -> edges
	plans     map[string]model.Plan           // id -> plan
	plansTen  map[string][]string             // tenant -> plan ids
	subs      map[string][]model.Subscription // tenant -> subscriptions
	// Webhook queue state
	deliveries map[string]*memDelivery
	byTenant   map[string][]string // tenant -> delivery ids
}

func NewMemory() *Memory {
	return &Memory{
		areas:      map[string][]model.Area{},
		drivers:    map[string][]model.Driver{},
		distances:  map[string][]model.DistanceEdge{},
		plans:      map[string]model.Plan{},
		plansTen:   map[string][]string{},
		subs:       map[string][]model.Subscription{},
		deliveries: map[string]*memDelivery{},
		byTenant:   map[string][]string{},
	}
}

// memDelivery augments WebhookDelivery with scheduling bookkeeping.
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	DeliveredAt   *time.Time
}

func (m *Memory) SaveAreas(ctx context.Context, tenantID string, areas []model.Area) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.areas[tenantID] = append([]model.Area(nil), areas...)
	return nil
}

func (m *Memory) ListAreas(ctx context.Context, tenantID string) ([]model.Area, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Area(nil), m.areas[tenantID]...), nil
}

func (m *Memory) SaveDrivers(ctx context.Context, tenantID string, drivers []model.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[tenantID] = append([]model.Driver(nil), drivers...)
	return nil
}

func (m *Memory) ListDrivers(ctx context.Context, tenantID string) ([]model.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Driver(nil), m.drivers[tenantID]...), nil
}

func (m *Memory) SaveDistances(ctx context.Context, tenantID string, edges []model.DistanceEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.distances[tenantID] = append([]model.DistanceEdge(nil), edges...)
	return nil
}

func (m *Memory) ListDistances(ctx context.Context, tenantID string) ([]model.DistanceEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.DistanceEdge(nil), m.distances[tenantID]...), nil
}

func (m *Memory) SavePlan(ctx context.Context, p model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
	m.plansTen[p.TenantID] = append(m.plansTen[p.TenantID], p.ID)
	return nil
}

func (m *Memory) GetPlan(ctx context.Context, tenantID, planID string) (model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok || p.TenantID != tenantID {
		return model.Plan{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) ListPlans(ctx context.Context, tenantID, cursor string, limit int) ([]model.Plan, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.plansTen[tenantID]
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []model.Plan{}
	var next string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		out = append(out, m.plans[ids[i]])
		next = ids[i]
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := model.Subscription{
		ID:       "sub_" + uuid.New().String(),
		TenantID: req.TenantID,
		URL:      req.URL,
		Events:   append([]string(nil), req.Events...),
		Secret:   req.Secret,
	}
	m.subs[req.TenantID] = append(m.subs[req.TenantID], sub)
	return sub, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Subscription{}
	for _, s := range m.subs[tenantID] {
		for _, e := range s.Events {
			if e == eventType || e == "*" {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, tenantID string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Subscription(nil), m.subs[tenantID]...), nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.subs[tenantID]
	for i, s := range subs {
		if s.ID == id {
			m.subs[tenantID] = append(subs[:i], subs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "whd_" + uuid.New().String()
	m.deliveries[id] = &memDelivery{
		WebhookDelivery: WebhookDelivery{
			ID:             id,
			TenantID:       tenantID,
			SubscriptionID: subscriptionID,
			EventType:      eventType,
			URL:            url,
			Secret:         secret,
			Payload:        append([]byte(nil), payload...),
			Status:         "pending",
		},
		NextAttemptAt: time.Now(),
	}
	m.byTenant[tenantID] = append(m.byTenant[tenantID], id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	now := time.Now()
	out := []WebhookDelivery{}
	for _, d := range m.deliveries {
		if d.Status != "pending" || d.NextAttemptAt.After(now) {
			continue
		}
		out = append(out, d.WebhookDelivery)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = "delivered"
		now := time.Now()
		d.DeliveredAt = &now
	} else if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.Status = "failed"
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, tenantID, status string, limit int) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := []map[string]any{}
	for _, id := range m.byTenant[tenantID] {
		d := m.deliveries[id]
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, map[string]any{
			"id":           d.ID,
			"eventType":    d.EventType,
			"url":          d.URL,
			"status":       d.Status,
			"attempts":     d.Attempts,
			"lastError":    d.LastError,
			"responseCode": d.ResponseCode,
			"latencyMs":    d.LatencyMs,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok || d.TenantID != tenantID {
		return ErrNotFound
	}
	d.Status = "pending"
	d.NextAttemptAt = time.Now()
	return nil
}
