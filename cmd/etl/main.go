package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/wildfire-climate-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/wildfire-climate-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/wildfire-climate-etl/internal/adapter/kafka"
	"github.com/couchcryptid/wildfire-climate-etl/internal/adapter/noaa"
	"github.com/couchcryptid/wildfire-climate-etl/internal/config"
	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"github.com/couchcryptid/wildfire-climate-etl/internal/observability"
	"github.com/couchcryptid/wildfire-climate-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	years := domain.YearRange{Min: cfg.MinYear, Max: cfg.MaxYear}
	climate := noaa.NewSource(noaa.NewLoader(years, logger), map[domain.Variable]string{
		domain.Temperature:   cfg.TemperaturePath,
		domain.Precipitation: cfg.PrecipitationPath,
		domain.DroughtIndex:  cfg.DroughtPath,
	})
	fires := csvfile.NewReader(cfg.FiresPath, logger)
	tables := csvfile.NewWriter(cfg.ClimateOutputPath, cfg.OutputPath, logger)

	opts := []pipeline.Option{
		pipeline.WithClock(clock),
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithBatchSize(cfg.BatchSize),
	}

	// Kafka publishing is feature-flagged via KAFKA_BROKERS.
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, clock, logger)
		opts = append(opts, pipeline.WithSinks(writer))
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(climate, fires, tables, logger, metrics, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The ops server is optional and only lives for the duration of the run.
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("pipeline failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	if runErr != nil {
		cancel()
		stop()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
