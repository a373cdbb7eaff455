package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"github.com/couchcryptid/wildfire-climate-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ClimateSource loads the climate tables for every variable.
type ClimateSource interface {
	LoadClimate(ctx context.Context) (domain.ClimateSet, error)
}

// FireSource reads the fire table.
type FireSource interface {
	ReadFires(ctx context.Context) (domain.FireTable, error)
}

// TableWriter persists the intermediate climate table and the final feature table.
type TableWriter interface {
	WriteClimate(ctx context.Context, header []string, fires []domain.EnrichedFire) error
	WriteFeatures(ctx context.Context, header []string, fires []domain.EnrichedFire) error
}

// BatchLoader publishes enriched fires to an optional downstream sink.
type BatchLoader interface {
	LoadBatch(ctx context.Context, fires []domain.EnrichedFire) error
}

const maxPublishBackoff = 5 * time.Second

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the clock used for stage timing.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithSinks adds loaders that receive every enriched fire after the output
// table has been written.
func WithSinks(loaders ...BatchLoader) Option {
	return func(p *Pipeline) { p.sinks = append(p.sinks, loaders...) }
}

// WithBatchSize sets how many fires are handed to a sink per LoadBatch call.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithPublishRetry sets how many times a sink batch is attempted and the
// delay before the first retry.
func WithPublishRetry(attempts int, backoff time.Duration) Option {
	return func(p *Pipeline) {
		if attempts > 0 {
			p.publishAttempts = attempts
		}
		if backoff >= 0 {
			p.publishBackoff = backoff
		}
	}
}

// WithWorkers bounds the number of goroutines used by the row-parallel stages.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// Pipeline runs the climate join and containment enrichment once over the
// whole fire table.
type Pipeline struct {
	climate   ClimateSource
	fires     FireSource
	writer    TableWriter
	sinks     []BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	workers   int
	batchSize int
	ready     atomic.Bool

	publishAttempts int
	publishBackoff  time.Duration

	mu     sync.Mutex
	status domain.RunStatus
}

// New creates a Pipeline with the given stages and observability.
func New(c ClimateSource, f FireSource, w TableWriter, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		climate:         c,
		fires:           f,
		writer:          w,
		logger:          logger,
		metrics:         metrics,
		clock:           clockwork.NewRealClock(),
		workers:         1,
		batchSize:       50,
		publishAttempts: 3,
		publishBackoff:  200 * time.Millisecond,
		status:          domain.RunStatus{Stage: domain.StageIdle},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once the climate tables are loaded, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("climate tables have not been loaded yet")
	}
	return nil
}

// Status returns a snapshot of the current or last run.
func (p *Pipeline) Status() domain.RunStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Pipeline) setStatus(update func(*domain.RunStatus)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	update(&p.status)
}

// Run executes every stage in order. Any error aborts the run; no partial
// output file is left behind.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "workers", p.workers, "sinks", len(p.sinks))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	start := p.clock.Now()
	p.setStatus(func(s *domain.RunStatus) {
		*s = domain.RunStatus{Stage: domain.StageIdle, StartedAt: &start}
	})

	err := p.run(ctx)
	finished := p.clock.Now()
	p.setStatus(func(s *domain.RunStatus) {
		s.FinishedAt = &finished
		if err != nil {
			s.Stage = domain.StageFailed
			s.Error = err.Error()
			return
		}
		s.Stage = domain.StageDone
	})
	if err != nil {
		return err
	}

	p.logger.Info("pipeline complete", "fires", p.Status().Fires, "duration", finished.Sub(start))
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	var set domain.ClimateSet
	if err := p.stage("load_climate", func() error {
		var err error
		set, err = p.climate.LoadClimate(ctx)
		return err
	}); err != nil {
		return err
	}
	for v, table := range set {
		p.metrics.ClimateRowsLoaded.WithLabelValues(string(v)).Add(float64(table.Len()))
	}
	p.ready.Store(true)

	var table domain.FireTable
	if err := p.stage("read_fires", func() error {
		var err error
		table, err = p.fires.ReadFires(ctx)
		return err
	}); err != nil {
		return err
	}
	p.metrics.FiresRead.Add(float64(len(table.Fires)))
	p.setStatus(func(s *domain.RunStatus) { s.Fires = len(table.Fires) })

	enriched := newEnriched(table.Fires)

	if err := p.stage("join_climate", func() error {
		return p.joinClimate(ctx, enriched, set)
	}); err != nil {
		return err
	}

	if err := p.stage("write_climate", func() error {
		return p.writer.WriteClimate(ctx, table.Header, enriched)
	}); err != nil {
		return err
	}

	if err := p.stage("containment", func() error {
		return p.annotateContainment(ctx, enriched)
	}); err != nil {
		return err
	}

	if err := p.stage("write_output", func() error {
		return p.writer.WriteFeatures(ctx, table.Header, enriched)
	}); err != nil {
		return err
	}
	p.metrics.FiresWritten.Add(float64(len(enriched)))

	if len(p.sinks) > 0 {
		if err := p.stage("publish", func() error {
			return p.publish(ctx, enriched)
		}); err != nil {
			return err
		}
	}
	return nil
}

// stage times fn and records it under name.
func (p *Pipeline) stage(name string, fn func() error) error {
	p.setStatus(func(s *domain.RunStatus) { s.Stage = name })
	start := p.clock.Now()
	err := fn()
	elapsed := p.clock.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		p.logger.Error("stage failed", "stage", name, "error", err, "duration", elapsed)
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Info("stage complete", "stage", name, "duration", elapsed)
	return nil
}

// publish hands the enriched fires to every sink in batches.
func (p *Pipeline) publish(ctx context.Context, fires []domain.EnrichedFire) error {
	for _, sink := range p.sinks {
		for start := 0; start < len(fires); start += p.batchSize {
			end := min(start+p.batchSize, len(fires))
			if err := p.loadWithRetry(ctx, sink, fires[start:end]); err != nil {
				return fmt.Errorf("load batch at row %d: %w", start+1, err)
			}
			p.metrics.FiresPublished.Add(float64(end - start))
		}
	}
	return nil
}

// loadWithRetry retries a failed batch with exponential backoff, starting at
// the configured delay and capped at maxPublishBackoff.
func (p *Pipeline) loadWithRetry(ctx context.Context, sink BatchLoader, batch []domain.EnrichedFire) error {
	backoff := p.publishBackoff
	var err error
	for attempt := 1; attempt <= p.publishAttempts; attempt++ {
		if err = sink.LoadBatch(ctx, batch); err == nil {
			return nil
		}
		if attempt == p.publishAttempts || ctx.Err() != nil {
			break
		}
		p.logger.Warn("load batch failed, retrying", "error", err, "attempt", attempt, "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxPublishBackoff)
	}
	return err
}
