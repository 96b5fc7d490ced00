package source

import (
	"context"
	"errors"
	"fmt"

	"carpool/internal/model"
	"carpool/internal/plan"
)

// ErrUnavailable marks a required external data source that could not be
// obtained or decoded. The whole planning call aborts on it; nothing
// downstream ever sees partial data.
var ErrUnavailable = errors.New("data source unavailable")

// AreaSource supplies the persisted area membership, ordered.
type AreaSource interface {
	FetchAreas(ctx context.Context) ([]model.Area, error)
}

// DistanceSource supplies the area-to-area distance table.
type DistanceSource interface {
	FetchDistances(ctx context.Context) (plan.DistanceTable, error)
}

// Load fetches both sources in parallel and joins fail-fast: the first
// error cancels the other fetch and aborts the load.
func Load(ctx context.Context, as AreaSource, ds DistanceSource) ([]model.Area, plan.DistanceTable, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	areasCh := make(chan []model.Area, 1)
	tableCh := make(chan plan.DistanceTable, 1)
	errCh := make(chan error, 2)

	go func() {
		areas, err := as.FetchAreas(ctx)
		if err != nil {
			errCh <- fmt.Errorf("%w: areas: %v", ErrUnavailable, err)
			return
		}
		areasCh <- areas
	}()
	go func() {
		table, err := ds.FetchDistances(ctx)
		if err != nil {
			errCh <- fmt.Errorf("%w: distances: %v", ErrUnavailable, err)
			return
		}
		tableCh <- table
	}()

	var areas []model.Area
	var table plan.DistanceTable
	for i := 0; i < 2; i++ {
		select {
		case err := <-errCh:
			cancel()
			return nil, nil, err
		case areas = <-areasCh:
		case table = <-tableCh:
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
	}
	return areas, table, nil
}
