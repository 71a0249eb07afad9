package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAccountFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "explicit account",
			args: map[string]any{"account": "work"},
			want: "work",
		},
		{
			name: "empty account falls back to default",
			args: map[string]any{"account": ""},
			want: DefaultAccount,
		},
		{
			name: "missing account",
			args: map[string]any{"message_id": "abc"},
			want: DefaultAccount,
		},
		{
			name: "nil args",
			args: nil,
			want: DefaultAccount,
		},
		{
			name: "non-string account",
			args: map[string]any{"account": 42},
			want: DefaultAccount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetAccountFromArgs(tt.args))
		})
	}
}
