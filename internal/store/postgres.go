package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"carpool/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// MigrateDir applies every .sql file in dir in lexical order. Dev helper;
// production schemas are managed externally.
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(string(data)); err != nil {
			return err
		}
	}
	return nil
}

// SaveAreas replaces the tenant's membership wholesale, keeping declaration
// order in the position column.
func (p *Postgres) SaveAreas(ctx context.Context, tenantID string, areas []model.Area) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM areas WHERE tenant_id=$1`, tenantID); err != nil {
		return err
	}
	for i, a := range areas {
		members, _ := json.Marshal(a.Members)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO areas (tenant_id, name, position, members) VALUES ($1,$2,$3,$4)`,
			tenantID, a.Name, i, members); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) ListAreas(ctx context.Context, tenantID string) ([]model.Area, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT name, members FROM areas WHERE tenant_id=$1 ORDER BY position`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Area{}
	for rows.Next() {
		var a model.Area
		var members []byte
		if err := rows.Scan(&a.Name, &members); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(members, &a.Members); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveDrivers(ctx context.Context, tenantID string, drivers []model.Driver) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM drivers WHERE tenant_id=$1`, tenantID); err != nil {
		return err
	}
	for i, d := range drivers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO drivers (tenant_id, name, position, seats, is_parent) VALUES ($1,$2,$3,$4,$5)`,
			tenantID, d.Name, i, d.Seats, d.IsParent); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) ListDrivers(ctx context.Context, tenantID string) ([]model.Driver, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT name, seats, is_parent FROM drivers WHERE tenant_id=$1 ORDER BY position`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Driver{}
	for rows.Next() {
		var d model.Driver
		if err := rows.Scan(&d.Name, &d.Seats, &d.IsParent); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveDistances(ctx context.Context, tenantID string, edges []model.DistanceEdge) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM distances WHERE tenant_id=$1`, tenantID); err != nil {
		return err
	}
	for _, e := range edges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO distances (tenant_id, from_area, to_area, cost) VALUES ($1,$2,$3,$4)
			 ON CONFLICT (tenant_id, from_area, to_area) DO UPDATE SET cost=EXCLUDED.cost`,
			tenantID, e.From, e.To, e.Cost); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) ListDistances(ctx context.Context, tenantID string) ([]model.DistanceEdge, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT from_area, to_area, cost FROM distances WHERE tenant_id=$1`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.DistanceEdge{}
	for rows.Next() {
		var e model.DistanceEdge
		if err := rows.Scan(&e.From, &e.To, &e.Cost); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) SavePlan(ctx context.Context, pl model.Plan) error {
	assignments, _ := json.Marshal(pl.RideAssignments)
	unassigned, _ := json.Marshal(pl.Unassigned)
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO plans (id, tenant_id, depot, assignments, unassigned, cost, swaps, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,now())`,
		pl.ID, pl.TenantID, pl.Depot, assignments, unassigned, pl.Cost, pl.Swaps)
	return err
}

func (p *Postgres) GetPlan(ctx context.Context, tenantID, planID string) (model.Plan, error) {
	var pl model.Plan
	var assignments, unassigned []byte
	var created time.Time
	row := p.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, depot, assignments, unassigned, cost, swaps, created_at
		 FROM plans WHERE tenant_id=$1 AND id=$2`, tenantID, planID)
	if err := row.Scan(&pl.ID, &pl.TenantID, &pl.Depot, &assignments, &unassigned, &pl.Cost, &pl.Swaps, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pl, ErrNotFound
		}
		return pl, err
	}
	if err := json.Unmarshal(assignments, &pl.RideAssignments); err != nil {
		return pl, err
	}
	if err := json.Unmarshal(unassigned, &pl.Unassigned); err != nil {
		return pl, err
	}
	pl.CreatedAt = created.UTC().Format(time.RFC3339)
	return pl, nil
}

func (p *Postgres) ListPlans(ctx context.Context, tenantID, cursor string, limit int) ([]model.Plan, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id, tenant_id, depot, assignments, unassigned, cost, swaps, created_at
			 FROM plans WHERE tenant_id=$1 AND id > $2 ORDER BY id LIMIT $3`, tenantID, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id, tenant_id, depot, assignments, unassigned, cost, swaps, created_at
			 FROM plans WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Plan{}
	var last string
	for rows.Next() {
		var pl model.Plan
		var assignments, unassigned []byte
		var created time.Time
		if err := rows.Scan(&pl.ID, &pl.TenantID, &pl.Depot, &assignments, &unassigned, &pl.Cost, &pl.Swaps, &created); err != nil {
			return nil, "", err
		}
		if err := json.Unmarshal(assignments, &pl.RideAssignments); err != nil {
			return nil, "", err
		}
		if err := json.Unmarshal(unassigned, &pl.Unassigned); err != nil {
			return nil, "", err
		}
		pl.CreatedAt = created.UTC().Format(time.RFC3339)
		out = append(out, pl)
		last = pl.ID
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	sub := model.Subscription{
		ID:       "sub_" + uuid.New().String(),
		TenantID: req.TenantID,
		URL:      req.URL,
		Events:   req.Events,
		Secret:   req.Secret,
	}
	events, _ := json.Marshal(req.Events)
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, tenant_id, url, events, secret) VALUES ($1,$2,$3,$4,$5)`,
		sub.ID, sub.TenantID, sub.URL, events, sub.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	subs, err := p.ListSubscriptions(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := []model.Subscription{}
	for _, s := range subs {
		for _, e := range s.Events {
			if e == eventType || e == "*" {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (p *Postgres) ListSubscriptions(ctx context.Context, tenantID string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, url, events, secret FROM subscriptions WHERE tenant_id=$1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		s := model.Subscription{TenantID: tenantID}
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &events, &s.Secret); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(events, &s.Events); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := "whd_" + uuid.New().String()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, url, secret, payload, attempts, status, next_attempt_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,0,'pending',now())`,
		id, tenantID, subscriptionID, eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, tenant_id, subscription_id, event_type, url, secret, payload, attempts, status
		 FROM webhook_deliveries WHERE status='pending' AND next_attempt_at <= now()
		 ORDER BY next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Attempts, &d.Status); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if success {
		_, err := p.db.ExecContext(ctx,
			`UPDATE webhook_deliveries SET attempts=attempts+1, status='delivered', delivered_at=now(),
			 last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1`,
			id, lastError, responseCode, latencyMs)
		return err
	}
	var next any
	if nextAttemptAt != nil {
		next = *nextAttemptAt
	}
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET attempts=attempts+1, next_attempt_at=COALESCE($2, next_attempt_at),
		 last_error=$3, response_code=$4, latency_ms=$5 WHERE id=$1`,
		id, next, lastError, responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET attempts=attempts+1, status='failed',
		 last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1`,
		id, lastError, responseCode, latencyMs)
	return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, tenantID, status string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if status != "" {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id, event_type, url, status, attempts, last_error, response_code, latency_ms
			 FROM webhook_deliveries WHERE tenant_id=$1 AND status=$2 ORDER BY next_attempt_at DESC LIMIT $3`,
			tenantID, status, limit)
	} else {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id, event_type, url, status, attempts, last_error, response_code, latency_ms
			 FROM webhook_deliveries WHERE tenant_id=$1 ORDER BY next_attempt_at DESC LIMIT $2`,
			tenantID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []map[string]any{}
	for rows.Next() {
		var id, eventType, url, st string
		var attempts, responseCode, latencyMs int
		var lastError sql.NullString
		if err := rows.Scan(&id, &eventType, &url, &st, &attempts, &lastError, &responseCode, &latencyMs); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"id":           id,
			"eventType":    eventType,
			"url":          url,
			"status":       st,
			"attempts":     attempts,
			"lastError":    lastError.String,
			"responseCode": responseCode,
			"latencyMs":    latencyMs,
		})
	}
	return out, rows.Err()
}

func (p *Postgres) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET status='pending', next_attempt_at=now() WHERE tenant_id=$1 AND id=$2`,
		tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
