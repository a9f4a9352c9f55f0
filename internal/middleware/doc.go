// Package middleware provides the chi middleware chain: request IDs that
// double as log trace IDs, structured request logging, panic recovery with
// RFC 7807 responses, rate limiting, CORS, security headers and Prometheus
// request instrumentation.
package middleware
