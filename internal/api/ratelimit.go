package api

import (
	"net/http"
	"os"
	"strconv"
	"sync"

	"golang.org/x/time/rate"
)

// TenantLimiter applies a per-tenant token bucket to planning requests.
type TenantLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewTenantLimiterFromEnv reads RATE_LIMIT_RPS. Zero or unset disables
// limiting.
func NewTenantLimiterFromEnv() *TenantLimiter {
	rps := 0.0
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rps = f
		}
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &TenantLimiter{limiters: map[string]*rate.Limiter{}, rps: rate.Limit(rps), burst: burst}
}

func (l *TenantLimiter) Allow(tenant string) bool {
	if l == nil || l.rps <= 0 {
		return true
	}
	l.mu.Lock()
	lim := l.limiters[tenant]
	if lim == nil {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[tenant] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// allowOrReject writes a 429 problem when the tenant is over budget.
func (s *Server) allowOrReject(w http.ResponseWriter, r *http.Request, tenant string) bool {
	if s.Limiter.Allow(tenant) {
		return true
	}
	writeProblem(w, http.StatusTooManyRequests, "Rate limit exceeded", "retry later", r.URL.Path)
	return false
}
