package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// High cardinality in metrics causes memory growth and slow queries in
// the metrics backend, so user identifiers are reduced to their domain
// before they are recorded.

// ExtractUserDomain extracts the domain part from an email address.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// Common operation types for Gmail API metrics.
// Status and OAuth constants are defined in config.go.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationDelete = "delete"
	OperationSend   = "send"
	OperationSearch = "search"
	OperationModify = "modify"
	OperationTrash  = "trash"
)
