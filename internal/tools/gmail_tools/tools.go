package gmail_tools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwagner/gmailmcp/internal/gmail"
	"github.com/mwagner/gmailmcp/internal/server"
	"github.com/mwagner/gmailmcp/internal/tools/common"
)

// RegisterGmailTools registers all Gmail-related tools with the MCP server.
// Write tools are skipped in read-only mode.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterMessageTools(s, sc); err != nil {
		return fmt.Errorf("failed to register message tools: %w", err)
	}

	if err := RegisterDraftTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register draft tools: %w", err)
	}

	if err := RegisterTemplateTools(s, sc); err != nil {
		return fmt.Errorf("failed to register template tools: %w", err)
	}

	if !readOnly {
		if err := RegisterSendTools(s, sc); err != nil {
			return fmt.Errorf("failed to register send tools: %w", err)
		}
		if err := RegisterLabelTools(s, sc); err != nil {
			return fmt.Errorf("failed to register label tools: %w", err)
		}
	}

	return nil
}

// clientForArgs resolves the Gmail client for the account named in the
// request. The second return value is a ready-made tool error result
// when resolution fails.
func clientForArgs(sc *server.ServerContext, args map[string]any) (*gmail.Client, *mcp.CallToolResult) {
	account := common.GetAccountFromArgs(args)

	client, err := sc.GmailClientForAccount(account)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return client, nil
}

// stringArg returns a string argument, or "" when absent or not a string.
func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

// int64Arg returns a numeric argument. JSON numbers arrive as float64.
func int64Arg(args map[string]any, name string, defaultValue int64) int64 {
	if v, ok := args[name].(float64); ok {
		return int64(v)
	}
	return defaultValue
}

// boolArg returns a boolean argument, or false when absent.
func boolArg(args map[string]any, name string) bool {
	v, _ := args[name].(bool)
	return v
}

// confirmed checks the confirm gate for destructive operations. The
// second return value is the error result to send back when the gate
// is not passed; no Gmail API call may happen in that case.
func confirmed(args map[string]any, action string) (bool, *mcp.CallToolResult) {
	if boolArg(args, "confirm") {
		return true, nil
	}
	return false, mcp.NewToolResultError(fmt.Sprintf(
		"confirmation required: %s was not performed. Pass confirm=true to proceed.", action))
}

// splitEmailAddresses splits a comma-separated string of email addresses.
func splitEmailAddresses(addresses string) []string {
	if addresses == "" {
		return nil
	}

	parts := strings.Split(addresses, ",")
	result := make([]string, 0, len(parts))
	for _, addr := range parts {
		trimmed := strings.TrimSpace(addr)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// attachmentsArg parses the optional attachments argument, which may be
// a single path or an array of paths.
func attachmentsArg(args map[string]any) ([]string, error) {
	raw, ok := args["attachments"]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []any:
		paths := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("attachments[%d] must be a non-empty file path", i)
			}
			paths = append(paths, s)
		}
		return paths, nil
	default:
		return nil, fmt.Errorf("attachments must be a file path or array of file paths")
	}
}

// variablesArg parses the template variables argument into a string map.
func variablesArg(args map[string]any) (map[string]string, error) {
	raw, ok := args["variables"]
	if !ok || raw == nil {
		return nil, nil
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("variables must be an object of string values")
	}

	vars := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("variable %q must be a string", k)
		}
		vars[k] = s
	}
	return vars, nil
}

// accountOption is the shared account argument every tool accepts.
func accountOption() mcp.ToolOption {
	return mcp.WithString("account",
		mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
	)
}
