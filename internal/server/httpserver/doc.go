// Package httpserver serves sod-server's observability endpoints.
//
//	GET /metrics   Prometheus exposition
//	GET /health    liveness, always 200 while the process serves HTTP
//	GET /ready     200 once the accept loop is listening, 503 otherwise
//
// Requests pass through request-ID, panic-recovery and access-log
// middleware. The server is disabled unless server.metrics.addr is set.
package httpserver
