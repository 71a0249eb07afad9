package batch

import (
	"encoding/json"
	"fmt"
)

// Per-item status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of a single item in a batch.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates the results of a batch operation.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses an argument that may be a single string or
// an array of strings, as JSON-decoded MCP arguments arrive.
func ParseStringOrArray(arg any, name string) ([]string, error) {
	if arg == nil {
		return nil, fmt.Errorf("%s is required", name)
	}

	switch v := arg.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", name)
		}
		return []string{v}, nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", name)
		}
		ids := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", name, i)
			}
			if s == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", name, i)
			}
			ids = append(ids, s)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", name)
	}
}

// Process runs fn on each ID in order and collects per-item results.
// An error for one ID does not stop the remaining IDs.
func Process(ids []string, fn func(id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		res, err := fn(id)
		if err != nil {
			results = append(results, ErrorResult(id, err))
		} else {
			results = append(results, SuccessResult(id, res))
		}
	}

	return results
}

// FormatResults renders batch results as an indented JSON summary.
func FormatResults(results []Result) string {
	summary := Summary{
		Total:   len(results),
		Results: results,
	}

	for _, r := range results {
		if r.Status == StatusSuccess {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	return string(out)
}

// SuccessResult creates a success result for an item.
func SuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: message,
	}
}

// ErrorResult creates an error result for an item.
func ErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
