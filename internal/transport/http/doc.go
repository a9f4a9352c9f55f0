// Package http contains the chi HTTP handlers. Handlers stay thin: they
// parse transport-level input, delegate to the services layer and let the
// central error handler render RFC 7807 problem responses.
package http
