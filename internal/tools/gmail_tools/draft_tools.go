package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwagner/gmailmcp/internal/gmail"
	"github.com/mwagner/gmailmcp/internal/instrumentation"
	"github.com/mwagner/gmailmcp/internal/server"
	"github.com/mwagner/gmailmcp/internal/template"
	"github.com/mwagner/gmailmcp/internal/tools/common"
)

// RegisterDraftTools registers draft tools. Listing and previewing
// drafts is always available; creating and deleting drafts requires
// write mode.
func RegisterDraftTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listDraftsTool := mcp.NewTool("gmail_list_drafts",
		mcp.WithDescription("List Gmail drafts"),
		accountOption(),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of drafts to return (default: 10)"),
		),
	)

	s.AddTool(listDraftsTool, common.InstrumentedToolHandlerWithOperation(
		"gmail_list_drafts", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListDrafts(ctx, request, sc)
		}))

	getDraftTool := mcp.NewTool("gmail_get_draft",
		mcp.WithDescription("Preview a Gmail draft (recipients, subject and snippet)"),
		accountOption(),
		mcp.WithString("draftId",
			mcp.Required(),
			mcp.Description("The ID of the draft to preview"),
		),
	)

	s.AddTool(getDraftTool, common.InstrumentedToolHandlerWithOperation(
		"gmail_get_draft", instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetDraft(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	draftEmailTool := mcp.NewTool("draft_email",
		mcp.WithDescription("Create a Gmail draft. The draft is stored in the account's Drafts folder and is not sent."),
		accountOption(),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain text email body"),
		),
		mcp.WithString("cc",
			mcp.Description("CC email address(es), comma-separated"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC email address(es), comma-separated"),
		),
		mcp.WithString("htmlBody",
			mcp.Description("Optional HTML body, sent as multipart/alternative with the plain text body"),
		),
		mcp.WithString("attachments",
			mcp.Description("File path (string) or array of file paths to attach"),
		),
	)

	s.AddTool(draftEmailTool, common.InstrumentedToolHandlerWithOperation(
		"draft_email", instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDraftEmail(ctx, request, sc, false)
		}))

	draftFromTemplateTool := mcp.NewTool("draft_email_from_template",
		mcp.WithDescription("Render a template with {name} placeholders, then create a Gmail draft from the result"),
		accountOption(),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Body template with {name} placeholders; {{ and }} produce literal braces"),
		),
		mcp.WithObject("variables",
			mcp.Description("Placeholder values, e.g. {\"name\": \"Alice\"}"),
		),
		mcp.WithString("cc",
			mcp.Description("CC email address(es), comma-separated"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC email address(es), comma-separated"),
		),
		mcp.WithString("attachments",
			mcp.Description("File path (string) or array of file paths to attach"),
		),
	)

	s.AddTool(draftFromTemplateTool, common.InstrumentedToolHandlerWithOperation(
		"draft_email_from_template", instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDraftEmail(ctx, request, sc, true)
		}))

	deleteDraftTool := mcp.NewTool("delete_draft",
		mcp.WithDescription("Delete a Gmail draft permanently"),
		accountOption(),
		mcp.WithString("draftId",
			mcp.Required(),
			mcp.Description("The ID of the draft to delete"),
		),
	)

	s.AddTool(deleteDraftTool, common.InstrumentedToolHandlerWithOperation(
		"delete_draft", instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteDraft(ctx, request, sc)
		}))

	return nil
}

func handleListDrafts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	maxResults := int64Arg(args, "maxResults", 10)

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	drafts, err := client.ListDrafts(ctx, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list drafts: %v", err)), nil
	}

	if len(drafts) == 0 {
		return mcp.NewToolResultText("No drafts found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d drafts:\n", len(drafts))
	for i, draft := range drafts {
		subject := ""
		snippet := ""
		if draft.Message != nil {
			subject = gmail.HeaderValue(draft.Message, "Subject")
			snippet = draft.Message.Snippet
		}
		fmt.Fprintf(&b, "%d. Draft ID: %s | Subject: %s | Snippet: %s\n", i+1, draft.Id, subject, snippet)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleGetDraft(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	draftID := stringArg(args, "draftId")
	if draftID == "" {
		return mcp.NewToolResultError("draftId is required"), nil
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	draft, err := client.GetDraft(ctx, draftID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get draft: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Draft ID: %s\n", draft.Id)
	if draft.Message != nil {
		writeMessageHeader(&b, draft.Message)
		fmt.Fprintf(&b, "Snippet: %s\n", draft.Message.Snippet)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// handleDraftEmail creates a draft. With fromTemplate the body is
// produced by rendering the template argument first.
func handleDraftEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, fromTemplate bool) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	toStr := stringArg(args, "to")
	if toStr == "" {
		return mcp.NewToolResultError("to is required"), nil
	}

	subject := stringArg(args, "subject")
	if subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}

	var body string
	if fromTemplate {
		tmpl := stringArg(args, "template")
		if tmpl == "" {
			return mcp.NewToolResultError("template is required"), nil
		}

		vars, err := variablesArg(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		body, err = template.Render(tmpl, vars)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to render template: %v", err)), nil
		}
	} else {
		body = stringArg(args, "body")
		if body == "" {
			return mcp.NewToolResultError("body is required"), nil
		}
	}

	attachments, err := attachmentsArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg := &gmail.EmailMessage{
		To:          splitEmailAddresses(toStr),
		Cc:          splitEmailAddresses(stringArg(args, "cc")),
		Bcc:         splitEmailAddresses(stringArg(args, "bcc")),
		Subject:     subject,
		TextBody:    body,
		HTMLBody:    stringArg(args, "htmlBody"),
		Attachments: attachments,
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	draft, err := client.CreateDraft(ctx, msg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create draft: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Draft created.\nDraft ID: %s\nTo: %s\nSubject: %s\n",
		draft.Id, strings.Join(msg.To, ", "), subject)
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "CC: %s\n", strings.Join(msg.Cc, ", "))
	}
	if len(msg.Bcc) > 0 {
		fmt.Fprintf(&b, "BCC: %s\n", strings.Join(msg.Bcc, ", "))
	}
	if len(attachments) > 0 {
		fmt.Fprintf(&b, "Attachments: %s\n", strings.Join(attachments, ", "))
	}
	fmt.Fprintf(&b, "\n%s", body)

	return mcp.NewToolResultText(b.String()), nil
}

func handleDeleteDraft(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	draftID := stringArg(args, "draftId")
	if draftID == "" {
		return mcp.NewToolResultError("draftId is required"), nil
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	if err := client.DeleteDraft(ctx, draftID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete draft: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Draft %s deleted.", draftID)), nil
}
