package noaa

import (
	"context"
	"fmt"

	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Source loads the three climdiv files that make up a climate set.
// It implements pipeline.ClimateSource.
type Source struct {
	loader *Loader
	paths  map[domain.Variable]string
}

// NewSource creates a Source reading the given file per variable.
func NewSource(loader *Loader, paths map[domain.Variable]string) *Source {
	return &Source{loader: loader, paths: paths}
}

// LoadClimate loads every variable concurrently. The first failure cancels
// the remaining loads.
func (s *Source) LoadClimate(ctx context.Context) (domain.ClimateSet, error) {
	for _, v := range domain.Variables {
		if s.paths[v] == "" {
			return nil, fmt.Errorf("no climate file configured for %s", v)
		}
	}

	tables := make([]*domain.ClimateTable, len(domain.Variables))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range domain.Variables {
		path := s.paths[v]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := s.loader.LoadFile(path, v)
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := make(domain.ClimateSet, len(tables))
	for _, table := range tables {
		set[table.Variable] = table
	}
	return set, nil
}
