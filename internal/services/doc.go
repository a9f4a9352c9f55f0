// Package services contains the business layer between HTTP transport and
// the dataset/analytics packages. InsightsService validates structured
// parameter records, loads the immutable tables, runs the aggregations and
// shapes chart-ready responses; HealthService reports liveness and dataset
// cache readiness.
package services
