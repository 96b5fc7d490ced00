package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"carpool/internal/metrics"
	"carpool/internal/model"
	"carpool/internal/plan"
	"carpool/internal/source"
	"carpool/internal/store"
	"carpool/internal/webhooks"
)

// areaSource picks the file-backed source when configured, else the store.
func (s *Server) areaSource(tenant string) source.AreaSource {
	if s.AreasFile != "" {
		return &source.FileAreaSource{Path: s.AreasFile}
	}
	return &source.StoreAreaSource{Store: s.Store, TenantID: tenant}
}

func (s *Server) distanceSource(tenant string) source.DistanceSource {
	var ds source.DistanceSource
	if s.DistancesFile != "" {
		ds = &source.FileDistanceSource{Path: s.DistancesFile}
	} else {
		ds = &source.StoreDistanceSource{Store: s.Store, TenantID: tenant}
	}
	if s.RDB != nil {
		ds = source.NewCachedDistanceSource(ds, s.RDB, tenant, 0)
	}
	return ds
}

// PlanHandler handles POST /v1/plan
func (s *Server) PlanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validatePlanRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
		return
	}
	if req.TenantID == "" {
		_, req.TenantID = s.withTenant(r)
	}
	if !s.allowOrReject(w, r, req.TenantID) {
		return
	}

	start := time.Now()
	areas, table, err := source.Load(r.Context(), s.areaSource(req.TenantID), s.distanceSource(req.TenantID))
	if err != nil {
		metrics.Plans.WithLabelValues("unavailable").Inc()
		if errors.Is(err, source.ErrUnavailable) {
			writeProblem(w, http.StatusServiceUnavailable, "Planning data unavailable", err.Error(), r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Load planning data failed", err.Error(), r.URL.Path)
		return
	}
	merged := plan.MergeAreas(areas, req.AreaOverride)
	if table == nil {
		table = plan.DistanceTable{}
	}
	// Inline entries overlay the loaded table for this run only.
	for _, e := range req.Distances {
		table.Add(e.From, e.To, e.Cost)
	}

	depot := req.Depot
	if depot == "" {
		depot = s.Depot
	}
	planner := plan.New(merged, table, depot)
	planner.MaxSwaps = req.MaxSwaps
	if req.MaxSwaps == 0 {
		planner.MaxSwaps = s.MaxSwaps
	}
	res := planner.Plan(req.Present, req.Drivers)

	metrics.Plans.WithLabelValues("ok").Inc()
	metrics.PlanDuration.Observe(time.Since(start).Seconds())
	metrics.PlanSwaps.Add(float64(res.Swaps))
	metrics.PlanUnassigned.Observe(float64(len(res.Unassigned)))

	p := model.Plan{
		ID:              "plan_" + uuid.New().String(),
		TenantID:        req.TenantID,
		Depot:           planner.Depot,
		RideAssignments: res.RideAssignments,
		Unassigned:      res.Unassigned,
		Cost:            res.Cost,
		Swaps:           res.Swaps,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Store.SavePlan(r.Context(), p); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save plan failed", err.Error(), r.URL.Path)
		return
	}
	s.Broker.Publish(p.ID, SSEEvent{Type: webhooks.EventPlanCompleted, Data: map[string]any{
		"planId": p.ID, "cost": p.Cost, "swaps": p.Swaps, "unassigned": len(p.Unassigned),
	}})
	s.Pub.Emit(r.Context(), req.TenantID, webhooks.EventPlanCompleted, p)
	writeJSON(w, http.StatusCreated, p)
}

// PlansIndexHandler handles GET /v1/plans
func (s *Server) PlansIndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, tenant := s.withTenant(r)
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, next, err := s.Store.ListPlans(r.Context(), tenant, cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// PlanByIDHandler handles GET /v1/plans/{id} and GET /v1/plans/{id}/events/stream
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	rest := strings.TrimPrefix(path, "/v1/plans/")
	if rest == path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) > 2 && parts[1] == "events" && parts[2] == "stream" {
		s.planEventsSSE(w, r, id)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, tenant := s.withTenant(r)
	p, err := s.Store.GetPlan(r.Context(), tenant, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Plan not found", id, r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Get plan failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) planEventsSSE(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)
	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
	flusher.Flush()
	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

// AreasHandler handles PUT/GET /v1/areas
func (s *Server) AreasHandler(w http.ResponseWriter, r *http.Request) {
	_, tenant := s.withTenant(r)
	switch r.Method {
	case http.MethodPut:
		var body struct {
			Areas []model.Area `json:"areas"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		for _, a := range body.Areas {
			if a.Name == "" {
				writeProblem(w, http.StatusBadRequest, "Invalid areas", "area name must not be empty", r.URL.Path)
				return
			}
		}
		if err := s.Store.SaveAreas(r.Context(), tenant, body.Areas); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save areas failed", err.Error(), r.URL.Path)
			return
		}
		s.Pub.Emit(r.Context(), tenant, webhooks.EventAreasUpdated, map[string]any{"count": len(body.Areas)})
		writeJSON(w, http.StatusOK, map[string]any{"saved": len(body.Areas)})
	case http.MethodGet:
		areas, err := s.Store.ListAreas(r.Context(), tenant)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List areas failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"areas": areas})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// DistancesHandler handles PUT/GET /v1/distances
func (s *Server) DistancesHandler(w http.ResponseWriter, r *http.Request) {
	_, tenant := s.withTenant(r)
	switch r.Method {
	case http.MethodPut:
		var body struct {
			Edges []model.DistanceEdge `json:"edges"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		kept := make([]model.DistanceEdge, 0, len(body.Edges))
		for _, e := range body.Edges {
			// Negative costs mean "no edge" and are dropped on write.
			if e.From == "" || e.To == "" || e.Cost < 0 {
				continue
			}
			kept = append(kept, e)
		}
		if err := s.Store.SaveDistances(r.Context(), tenant, kept); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save distances failed", err.Error(), r.URL.Path)
			return
		}
		// Invalidate the cached table so the next plan sees the new edges.
		if s.RDB != nil {
			_ = s.RDB.Del(r.Context(), "distances:"+tenant).Err()
		}
		s.Pub.Emit(r.Context(), tenant, webhooks.EventDistancesUpdated, map[string]any{"count": len(kept)})
		writeJSON(w, http.StatusOK, map[string]any{"saved": len(kept), "skipped": len(body.Edges) - len(kept)})
	case http.MethodGet:
		edges, err := s.Store.ListDistances(r.Context(), tenant)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List distances failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"edges": edges})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// DriversHandler handles POST/GET /v1/drivers
func (s *Server) DriversHandler(w http.ResponseWriter, r *http.Request) {
	_, tenant := s.withTenant(r)
	switch r.Method {
	case http.MethodPost:
		var body struct {
			Drivers []model.Driver `json:"drivers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		seen := map[string]struct{}{}
		for _, d := range body.Drivers {
			if d.Name == "" || d.Seats < 0 {
				writeProblem(w, http.StatusBadRequest, "Invalid drivers", "name required and seats must be >= 0", r.URL.Path)
				return
			}
			if _, dup := seen[d.Name]; dup {
				writeProblem(w, http.StatusBadRequest, "Invalid drivers", "duplicate driver name: "+d.Name, r.URL.Path)
				return
			}
			seen[d.Name] = struct{}{}
		}
		if err := s.Store.SaveDrivers(r.Context(), tenant, body.Drivers); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save drivers failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"saved": len(body.Drivers)})
	case http.MethodGet:
		drivers, err := s.Store.ListDrivers(r.Context(), tenant)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List drivers failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"drivers": drivers})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	_, tenant := s.withTenant(r)
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.URL == "" || len(req.Events) == 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events required", r.URL.Path)
			return
		}
		if req.TenantID == "" {
			req.TenantID = tenant
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		subs, err := s.Store.ListSubscriptions(r.Context(), tenant)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": subs})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, tenant := s.withTenant(r)
	if err := s.Store.DeleteSubscription(r.Context(), tenant, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Subscription not found", id, r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// WebhookDeliveriesHandler handles GET /v1/admin/webhook-deliveries
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	status := r.URL.Query().Get("status")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, err := s.Store.ListWebhookDeliveries(r.Context(), p.Tenant, status, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List deliveries failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// WebhookDeliveryRetryHandler handles POST /v1/admin/webhook-deliveries/{id}/retry
func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "retry" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	if err := s.Store.RetryWebhookDelivery(r.Context(), p.Tenant, parts[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Delivery not found", parts[0], r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Retry failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HealthHandler handles GET /healthz
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler handles GET /readyz
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// The store is constructed (and pinged, for Postgres) at startup.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
