package api

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"carpool/internal/auth"
	"carpool/internal/store"
	"carpool/internal/webhooks"
)

type Server struct {
	Store    store.Store
	Pub      *webhooks.Publisher
	Auth     *auth.Verifier
	Broker   EventBroker
	RDB      *redis.Client // nil when REDIS_URL is unset
	Limiter  *TenantLimiter
	Depot    string
	MaxSwaps int

	// Optional file-backed sources; when set they take precedence over the
	// persisted area/distance data.
	AreasFile     string
	DistancesFile string
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store.
func NewServer() (*Server, error) {
	dsn := os.Getenv("DATABASE_URL")
	var s store.Store
	if strings.TrimSpace(dsn) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		// Run migrations (dev helper)
		if os.Getenv("DB_MIGRATE") != "false" {
			_ = sp.MigrateDir("db/migrations")
		}
		s = sp
	}
	// Broker selection
	var broker EventBroker
	var rdb *redis.Client
	if os.Getenv("REDIS_URL") != "" {
		if rb, err := NewRedisBroker(); err == nil {
			broker = rb
			rdb = rb.Client()
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	maxSwaps := 0
	if v := os.Getenv("PLAN_MAX_SWAPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			maxSwaps = n
		}
	}
	return &Server{
		Store:         s,
		Pub:           webhooks.NewPublisher(s),
		Auth:          auth.NewVerifierFromEnv(),
		Broker:        broker,
		RDB:           rdb,
		Limiter:       NewTenantLimiterFromEnv(),
		Depot:         os.Getenv("DEPOT_AREA"),
		MaxSwaps:      maxSwaps,
		AreasFile:     os.Getenv("AREAS_FILE"),
		DistancesFile: os.Getenv("DISTANCES_FILE"),
	}, nil
}

func (s *Server) withTenant(r *http.Request) (context.Context, string) {
	tenant := s.getPrincipal(r).Tenant
	ctx := context.WithValue(r.Context(), ctxKeyTenant{}, tenant)
	return ctx, tenant
}

type ctxKeyTenant struct{}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}
