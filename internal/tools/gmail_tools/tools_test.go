package gmail_tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwagner/gmailmcp/internal/server"
)

// newRequest builds a CallToolRequest with the given arguments.
func newRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text payload from a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func newTestContext(t *testing.T) *server.ServerContext {
	t.Helper()
	sc := server.NewServerContext(context.Background(), nil)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestRegisterGmailTools(t *testing.T) {
	t.Run("read-only mode", func(t *testing.T) {
		s := mcpserver.NewMCPServer("test", "0.0.1", mcpserver.WithToolCapabilities(true))
		require.NoError(t, RegisterGmailTools(s, newTestContext(t), true))
	})

	t.Run("write mode", func(t *testing.T) {
		s := mcpserver.NewMCPServer("test", "0.0.1", mcpserver.WithToolCapabilities(true))
		require.NoError(t, RegisterGmailTools(s, newTestContext(t), false))
	})
}

func TestSplitEmailAddresses(t *testing.T) {
	tests := []struct {
		name      string
		addresses string
		want      []string
	}{
		{
			name:      "single address",
			addresses: "a@example.com",
			want:      []string{"a@example.com"},
		},
		{
			name:      "multiple with whitespace",
			addresses: "a@example.com, b@example.com ,c@example.com",
			want:      []string{"a@example.com", "b@example.com", "c@example.com"},
		},
		{
			name:      "empty string",
			addresses: "",
			want:      nil,
		},
		{
			name:      "only commas",
			addresses: ", ,",
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitEmailAddresses(tt.addresses))
		})
	}
}

func TestConfirmed(t *testing.T) {
	ok, errResult := confirmed(map[string]any{"confirm": true}, "sending")
	assert.True(t, ok)
	assert.Nil(t, errResult)

	for _, args := range []map[string]any{
		{},
		{"confirm": false},
		{"confirm": "true"},
	} {
		ok, errResult := confirmed(args, "sending draft d1")
		assert.False(t, ok)
		require.NotNil(t, errResult)
		assert.True(t, errResult.IsError)
		assert.Contains(t, resultText(t, errResult), "confirmation required")
		assert.Contains(t, resultText(t, errResult), "sending draft d1")
	}
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"query":      "is:unread",
		"maxResults": float64(25),
		"confirm":    true,
	}

	assert.Equal(t, "is:unread", stringArg(args, "query"))
	assert.Equal(t, "", stringArg(args, "missing"))
	assert.Equal(t, int64(25), int64Arg(args, "maxResults", 10))
	assert.Equal(t, int64(10), int64Arg(args, "missing", 10))
	assert.True(t, boolArg(args, "confirm"))
	assert.False(t, boolArg(args, "missing"))
}

func TestAttachmentsArg(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    []string
		wantErr bool
	}{
		{
			name: "absent",
			args: map[string]any{},
			want: nil,
		},
		{
			name: "single path",
			args: map[string]any{"attachments": "/tmp/a.pdf"},
			want: []string{"/tmp/a.pdf"},
		},
		{
			name: "array of paths",
			args: map[string]any{"attachments": []any{"/tmp/a.pdf", "/tmp/b.txt"}},
			want: []string{"/tmp/a.pdf", "/tmp/b.txt"},
		},
		{
			name:    "non-string element",
			args:    map[string]any{"attachments": []any{1}},
			wantErr: true,
		},
		{
			name:    "wrong type",
			args:    map[string]any{"attachments": 42},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := attachmentsArg(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariablesArg(t *testing.T) {
	vars, err := variablesArg(map[string]any{
		"variables": map[string]any{"name": "Alice", "order": "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Alice", "order": "42"}, vars)

	vars, err = variablesArg(map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, vars)

	_, err = variablesArg(map[string]any{"variables": "not an object"})
	require.Error(t, err)

	_, err = variablesArg(map[string]any{"variables": map[string]any{"n": 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `variable "n" must be a string`)
}

func TestLabelIDsArg(t *testing.T) {
	ids, err := labelIDsArg(map[string]any{"labelIds": "INBOX"})
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX"}, ids)

	ids, err = labelIDsArg(map[string]any{"labelIds": []any{"INBOX", "UNREAD"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX", "UNREAD"}, ids)

	ids, err = labelIDsArg(map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = labelIDsArg(map[string]any{"labelIds": 42})
	require.Error(t, err)
}
