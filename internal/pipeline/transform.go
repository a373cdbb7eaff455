package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// chunksPerWorker splits the rows finer than the worker count so a slow
// chunk does not leave the other workers idle.
const chunksPerWorker = 4

// newEnriched wraps each fire with its deterministic ID.
func newEnriched(fires []domain.FireRecord) []domain.EnrichedFire {
	out := make([]domain.EnrichedFire, len(fires))
	for i, f := range fires {
		out[i] = domain.EnrichedFire{ID: domain.FireID(f), Fire: f}
	}
	return out
}

// joinClimate fills the climate features of every fire. A fire in a covered
// state whose climate row is missing aborts the stage.
func (p *Pipeline) joinClimate(ctx context.Context, fires []domain.EnrichedFire, set domain.ClimateSet) error {
	err := forEachRow(ctx, p.workers, len(fires), func(i int) error {
		cf, err := domain.JoinClimate(fires[i].Fire, set)
		if err != nil {
			return fmt.Errorf("fire row %d: %w", i+1, err)
		}
		fires[i].Features.ClimateFeatures = cf
		return nil
	})
	if err != nil {
		return err
	}

	var sentinel int
	for i := range fires {
		if domain.IsExcludedState(fires[i].Fire.State) {
			sentinel++
		}
	}
	p.metrics.ClimateSentinelRows.Add(float64(sentinel))
	return nil
}

// annotateContainment computes the per-fire containment columns, then the
// neighborhood columns, which need every fire's HOUR_TO_CONT first.
func (p *Pipeline) annotateContainment(ctx context.Context, fires []domain.EnrichedFire) error {
	points := make([]domain.NeighborPoint, len(fires))
	err := forEachRow(ctx, p.workers, len(fires), func(i int) error {
		f := fires[i].Fire
		cf := domain.ContainmentFor(f)
		fires[i].Features.DayToCont = cf.DayToCont
		fires[i].Features.HourToCont = cf.HourToCont
		points[i] = domain.NeighborPoint{
			Latitude:   f.Latitude,
			Longitude:  f.Longitude,
			Day:        f.DiscoveryDay(),
			HourToCont: cf.HourToCont,
		}
		return nil
	})
	if err != nil {
		return err
	}

	index := domain.NewNeighborIndex(points)
	err = forEachRow(ctx, p.workers, len(fires), func(i int) error {
		nearby := index.NearbyHourToCont(i)
		fires[i].Features.NearbyHourToCont = nearby
		fires[i].Features.NearbyDayToCont = domain.NearbyDayToCont(nearby)
		return nil
	})
	if err != nil {
		return err
	}

	var lonely int
	for i := range fires {
		if fires[i].Features.NearbyHourToCont == nil {
			lonely++
		}
	}
	p.metrics.FiresWithoutNeighbor.Add(float64(lonely))
	p.logger.Info("neighborhood computed", "fires", len(fires), "without_neighbors", lonely)
	return nil
}

// forEachRow calls fn for every index in [0, n) using at most workers
// goroutines over contiguous chunks. fn must only write to its own row.
// The first error, or a cancelled context, stops the remaining chunks.
func forEachRow(ctx context.Context, workers, n int, fn func(i int) error) error {
	if n == 0 {
		return ctx.Err()
	}
	workers = max(workers, 1)
	chunk := max(1, (n+workers*chunksPerWorker-1)/(workers*chunksPerWorker))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		if gctx.Err() != nil {
			break
		}
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
