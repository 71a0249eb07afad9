// Package server holds the MCP server runtime: the shared ServerContext
// with per-account Gmail clients, health check endpoints for liveness
// and readiness probes, the dedicated Prometheus metrics server, and the
// streamable HTTP transport with bearer-token authentication.
package server
