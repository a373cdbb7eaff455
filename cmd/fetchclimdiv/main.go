// Command fetchclimdiv downloads the newest NCEI climdiv state files for
// temperature, precipitation and drought index, then prints the matching
// environment lines for the ETL.
//
// Usage:
//
//	go run ./cmd/fetchclimdiv -dir data >> .env
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/wildfire-climate-etl/internal/adapter/ncei"
	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

var envKeys = map[domain.Variable]string{
	domain.Temperature:   "TMP_PATH",
	domain.Precipitation: "PCP_PATH",
	domain.DroughtIndex:  "PDSI_PATH",
}

func main() {
	if err := run(); err != nil {
		slog.Error("fetch failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	baseURL := flag.String("base-url", ncei.DefaultBaseURL, "climdiv directory listing")
	dir := flag.String("dir", ".", "directory to download into")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", *dir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	fetcher := ncei.NewFetcher(*baseURL, nil, logger)

	latest, err := fetcher.Latest(ctx)
	if err != nil {
		return err
	}

	paths := make([]string, len(domain.Variables))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range domain.Variables {
		file := latest[v]
		g.Go(func() error {
			path, err := fetcher.Download(gctx, file, *dir)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, v := range domain.Variables {
		fmt.Printf("%s=%s\n", envKeys[v], paths[i])
	}
	return nil
}
