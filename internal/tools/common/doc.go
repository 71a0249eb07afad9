// Package common holds helpers shared by the MCP tool packages:
// account resolution from request arguments and the instrumentation
// wrapper that records metrics and audit logs per tool invocation.
package common
