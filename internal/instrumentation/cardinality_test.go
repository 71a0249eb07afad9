package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractUserDomain(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"normal email", "jane@example.com", "example.com"},
		{"gmail", "user@gmail.com", "gmail.com"},
		{"no at sign", "invalid", "unknown"},
		{"empty", "", "unknown"},
		{"trailing at", "user@", "unknown"},
		{"multiple at signs", "a@b@c", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractUserDomain(tt.email))
		})
	}
}
