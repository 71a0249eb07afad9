// Package instrumentation provides OpenTelemetry-based observability for
// the MCP server: metrics, distributed tracing, and audit logging.
//
// The Provider ties together a meter provider (prometheus, otlp or stdout
// exporters) and a tracer provider (otlp, stdout or none). Metrics cover
// MCP tool invocations, Gmail API operations, OAuth flows and HTTP
// traffic. The AuditLogger records every tool invocation with
// PII-anonymized identifiers by default.
//
// Instrumentation is configured from environment variables via
// DefaultConfig and can be disabled entirely with
// INSTRUMENTATION_ENABLED=false, in which case all recorders become
// no-ops.
package instrumentation
