package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"samarth/internal/config"
)

// Loader loads the two datasets into immutable in-memory tables. Each table
// is fetched and parsed at most once per process; concurrent first loads are
// collapsed with singleflight and later calls return the cached table.
type Loader struct {
	cfg     *config.Config
	fetcher *Fetcher
	logger  *slog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	rainfall []RainfallRecord
	crops    []CropRecord
}

// NewLoader creates a dataset loader
func NewLoader(cfg *config.Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		cfg:     cfg,
		fetcher: NewFetcher(cfg.Datasets.FetchTimeout, logger),
		logger:  logger.With(slog.String("component", "dataset_loader")),
	}
}

// LoadRainfall returns the rainfall table, loading it on first use
func (l *Loader) LoadRainfall(ctx context.Context) ([]RainfallRecord, error) {
	l.mu.RLock()
	cached := l.rainfall
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	result, err, _ := l.group.Do("rainfall", func() (interface{}, error) {
		records, err := l.loadRainfall(ctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.rainfall = records
		l.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]RainfallRecord), nil
}

// LoadCrops returns the crop production table, loading it on first use
func (l *Loader) LoadCrops(ctx context.Context) ([]CropRecord, error) {
	l.mu.RLock()
	cached := l.crops
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	result, err, _ := l.group.Do("crops", func() (interface{}, error) {
		records, err := l.loadCrops(ctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.crops = records
		l.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]CropRecord), nil
}

// LoadTables loads both datasets
func (l *Loader) LoadTables(ctx context.Context) (*Tables, error) {
	rainfall, err := l.LoadRainfall(ctx)
	if err != nil {
		return nil, err
	}
	crops, err := l.LoadCrops(ctx)
	if err != nil {
		return nil, err
	}
	return &Tables{Rainfall: rainfall, Crops: crops}, nil
}

// Ready reports whether both dataset cache files are present on disk
func (l *Loader) Ready() bool {
	for _, path := range []string{l.cfg.RainfallPath(), l.cfg.CropPath()} {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

func (l *Loader) loadRainfall(ctx context.Context) ([]RainfallRecord, error) {
	path := l.cfg.RainfallPath()
	if err := l.fetcher.EnsureCached(ctx, l.cfg.Datasets.RainfallURL, path); err != nil {
		return nil, fmt.Errorf("rainfall dataset unavailable: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rainfall cache: %w", err)
	}
	defer file.Close()

	records, err := ParseRainfallCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rainfall dataset: %w", err)
	}

	l.logger.InfoContext(ctx, "rainfall dataset loaded",
		slog.Int("records", len(records)),
		slog.String("path", path))
	return records, nil
}

func (l *Loader) loadCrops(ctx context.Context) ([]CropRecord, error) {
	path := l.cfg.CropPath()
	if err := l.fetcher.EnsureCached(ctx, l.cfg.Datasets.CropURL, path); err != nil {
		return nil, fmt.Errorf("crop dataset unavailable: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open crop cache: %w", err)
	}
	defer file.Close()

	records, err := ParseCropCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse crop dataset: %w", err)
	}

	l.logger.InfoContext(ctx, "crop dataset loaded",
		slog.Int("records", len(records)),
		slog.String("path", path))
	return records, nil
}
