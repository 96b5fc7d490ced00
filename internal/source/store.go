package source

import (
	"context"

	"carpool/internal/model"
	"carpool/internal/plan"
	"carpool/internal/store"
)

// StoreAreaSource serves the persisted area membership for one tenant.
type StoreAreaSource struct {
	Store    store.Store
	TenantID string
}

func (s *StoreAreaSource) FetchAreas(ctx context.Context) ([]model.Area, error) {
	return s.Store.ListAreas(ctx, s.TenantID)
}

// StoreDistanceSource serves the persisted distance table for one tenant.
type StoreDistanceSource struct {
	Store    store.Store
	TenantID string
}

func (s *StoreDistanceSource) FetchDistances(ctx context.Context) (plan.DistanceTable, error) {
	edges, err := s.Store.ListDistances(ctx, s.TenantID)
	if err != nil {
		return nil, err
	}
	return plan.TableFromEdges(edges), nil
}
