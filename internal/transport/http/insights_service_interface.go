package http

import (
	"context"

	"samarth/internal/exporter"
	"samarth/internal/services"
)

// InsightsServiceInterface defines the service contract the handlers depend
// on. Tests substitute a mock implementation.
type InsightsServiceInterface interface {
	CompareRainfall(ctx context.Context, params services.RainfallCompareParams) (*services.RainfallComparisonResult, error)
	TopCrops(ctx context.Context, params services.TopCropsParams) (*services.CropRankingResult, error)
	Answer(ctx context.Context, question string) (*services.QueryResult, error)
	States(ctx context.Context) ([]string, error)
	CropNames(ctx context.Context) ([]string, error)
	ExportRainfall(ctx context.Context, params services.RainfallCompareParams) (*exporter.Document, error)
	ExportTopCrops(ctx context.Context, params services.TopCropsParams) (*exporter.Document, error)
}
