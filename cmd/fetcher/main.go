package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"samarth/internal/app"
	"samarth/internal/config"
	"samarth/internal/dataset"
	"samarth/internal/infrastructure"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "overall fetch timeout")
	flag.Parse()

	if err := run(*timeout); err != nil {
		slog.Error("fetch failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run downloads both datasets into the local cache and prints a summary so
// the web server can start with warm caches
func run(timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("fetcher starting", slog.String("version", app.Version))

	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	loader := dataset.NewLoader(cfg, logger)
	tables, err := loader.LoadTables(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("rainfall records: %d\n", len(tables.Rainfall))
	fmt.Printf("crop records:     %d\n", len(tables.Crops))
	fmt.Printf("states:           %d\n", len(tables.States()))
	fmt.Printf("crops:            %d\n", len(tables.CropNames()))
	fmt.Printf("cache dir:        %s\n", cfg.Paths.DataDir)

	return nil
}
