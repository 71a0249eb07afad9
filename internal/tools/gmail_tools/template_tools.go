package gmail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwagner/gmailmcp/internal/server"
	"github.com/mwagner/gmailmcp/internal/template"
	"github.com/mwagner/gmailmcp/internal/tools/common"
)

// RegisterTemplateTools registers the template rendering tool. It is
// pure string substitution and safe in read-only mode.
func RegisterTemplateTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	renderTool := mcp.NewTool("render_template",
		mcp.WithDescription("Render a template by substituting {name} placeholders with values. {{ and }} produce literal braces. Unknown placeholders are errors."),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Template text with {name} placeholders"),
		),
		mcp.WithObject("variables",
			mcp.Description("Placeholder values, e.g. {\"name\": \"Alice\"}"),
		),
	)

	s.AddTool(renderTool, common.InstrumentedToolHandler("render_template", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRenderTemplate(ctx, request)
		}))

	return nil
}

func handleRenderTemplate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	tmpl, ok := args["template"].(string)
	if !ok {
		return mcp.NewToolResultError("template is required"), nil
	}

	vars, err := variablesArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rendered, err := template.Render(tmpl, vars)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to render template: %v", err)), nil
	}

	return mcp.NewToolResultText(rendered), nil
}
