package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Fetcher downloads dataset CSV files into the local cache directory.
// A single fetch attempt is made per call; there is no retry policy.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a fetcher with the given request timeout
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger.With(slog.String("component", "dataset_fetcher")),
	}
}

// EnsureCached makes sure the cache file exists, downloading it from url when
// missing. With an empty url a missing cache file is an error so the caller
// can surface manual download instructions.
func (f *Fetcher) EnsureCached(ctx context.Context, url, cachePath string) error {
	if _, err := os.Stat(cachePath); err == nil {
		f.logger.DebugContext(ctx, "dataset cache hit",
			slog.String("path", cachePath))
		return nil
	}

	if url == "" {
		return fmt.Errorf("dataset cache file %s missing and no download URL configured", cachePath)
	}

	return f.Download(ctx, url, cachePath)
}

// Download fetches url and writes the body to cachePath atomically
func (f *Fetcher) Download(ctx context.Context, url, cachePath string) error {
	f.logger.InfoContext(ctx, "downloading dataset",
		slog.String("url", url),
		slog.String("path", cachePath))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dataset fetch returned HTTP %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Write to a temp file first so a failed download never leaves a
	// truncated cache file behind.
	tmp, err := os.CreateTemp(filepath.Dir(cachePath), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, cachePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move dataset into cache: %w", err)
	}

	f.logger.InfoContext(ctx, "dataset downloaded",
		slog.String("path", cachePath))
	return nil
}
