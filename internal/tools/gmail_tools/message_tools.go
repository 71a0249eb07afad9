package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	gmail_v1 "google.golang.org/api/gmail/v1"

	"github.com/mwagner/gmailmcp/internal/gmail"
	"github.com/mwagner/gmailmcp/internal/instrumentation"
	"github.com/mwagner/gmailmcp/internal/server"
	"github.com/mwagner/gmailmcp/internal/tools/common"
)

// Message retrieval formats.
const (
	formatMetadata = "metadata"
	formatFull     = "full"
)

// RegisterMessageTools registers the read-only message, thread and
// label listing tools.
func RegisterMessageTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getMessageTool := mcp.NewTool("gmail_get_message",
		mcp.WithDescription("Get a Gmail message by ID, as metadata (headers and snippet) or with the full decoded body"),
		accountOption(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to fetch"),
		),
		mcp.WithString("format",
			mcp.Description("Level of detail: 'metadata' (default) or 'full'"),
		),
	)

	s.AddTool(getMessageTool, common.InstrumentedToolHandlerWithOperation(
		"gmail_get_message", instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetMessage(ctx, request, sc)
		}))

	getThreadTool := mcp.NewTool("gmail_get_thread",
		mcp.WithDescription("Get a Gmail thread with a summary of every message in it"),
		accountOption(),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("The ID of the thread to fetch"),
		),
	)

	s.AddTool(getThreadTool, common.InstrumentedToolHandlerWithOperation(
		"gmail_get_thread", instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetThread(ctx, request, sc)
		}))

	searchMessagesTool := mcp.NewTool("gmail_search_messages",
		mcp.WithDescription("Search Gmail messages with Gmail query syntax (e.g., 'from:user@example.com is:unread')"),
		accountOption(),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
		mcp.WithString("labelIds",
			mcp.Description("Label ID (string) or array of label IDs to restrict the search to"),
		),
	)

	s.AddTool(searchMessagesTool, common.InstrumentedToolHandlerWithOperation(
		"gmail_search_messages", instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchMessages(ctx, request, sc)
		}))

	listThreadsTool := mcp.NewTool("gmail_list_threads",
		mcp.WithDescription("List Gmail threads matching a query"),
		accountOption(),
		mcp.WithString("query",
			mcp.Description("Gmail search query (default: all threads)"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
		mcp.WithString("labelIds",
			mcp.Description("Label ID (string) or array of label IDs to restrict the listing to"),
		),
	)

	s.AddTool(listThreadsTool, common.InstrumentedToolHandlerWithOperation(
		"gmail_list_threads", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListThreads(ctx, request, sc)
		}))

	listLabelsTool := mcp.NewTool("gmail_list_labels",
		mcp.WithDescription("List all Gmail labels with their IDs"),
		accountOption(),
	)

	s.AddTool(listLabelsTool, common.InstrumentedToolHandlerWithOperation(
		"gmail_list_labels", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListLabels(ctx, request, sc)
		}))

	return nil
}

func handleGetMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID := stringArg(args, "messageId")
	if messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	format := stringArg(args, "format")
	if format == "" {
		format = formatMetadata
	}
	if format != formatMetadata && format != formatFull {
		return mcp.NewToolResultError(fmt.Sprintf("invalid format %q, must be 'metadata' or 'full'", format)), nil
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	var (
		msg *gmail_v1.Message
		err error
	)
	if format == formatFull {
		msg, err = client.GetMessage(ctx, messageID)
	} else {
		msg, err = client.GetMessageMetadata(ctx, messageID)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get message: %v", err)), nil
	}

	var b strings.Builder
	writeMessageHeader(&b, msg)

	if format == formatFull {
		body, err := gmail.Body(msg, gmail.FormatText)
		if err != nil {
			// Fall back to the HTML part for HTML-only messages.
			body, err = gmail.Body(msg, gmail.FormatHTML)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to decode message body: %v", err)), nil
		}
		b.WriteString("\n")
		b.WriteString(body)
	} else {
		fmt.Fprintf(&b, "Snippet: %s\n", msg.Snippet)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleGetThread(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	threadID := stringArg(args, "threadId")
	if threadID == "" {
		return mcp.NewToolResultError("threadId is required"), nil
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	thread, err := client.GetThread(ctx, threadID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get thread: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thread %s with %d messages:\n", thread.Id, len(thread.Messages))
	for i, msg := range thread.Messages {
		fmt.Fprintf(&b, "\n--- Message %d (ID: %s) ---\n", i+1, msg.Id)
		writeMessageHeader(&b, msg)
		fmt.Fprintf(&b, "Snippet: %s\n", msg.Snippet)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleSearchMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query := stringArg(args, "query")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	maxResults := int64Arg(args, "maxResults", 10)
	labelIDs, err := labelIDsArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	messages, err := client.SearchMessages(ctx, query, labelIDs, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search messages: %v", err)), nil
	}

	if len(messages) == 0 {
		return mcp.NewToolResultText("No messages found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d messages:\n", len(messages))
	for i, msg := range messages {
		fmt.Fprintf(&b, "%d. ID: %s | From: %s | Subject: %s | Date: %s\n",
			i+1, msg.Id,
			gmail.HeaderValue(msg, "From"),
			gmail.HeaderValue(msg, "Subject"),
			gmail.HeaderValue(msg, "Date"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleListThreads(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query := stringArg(args, "query")
	maxResults := int64Arg(args, "maxResults", 10)
	labelIDs, err := labelIDsArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	threads, err := client.ListThreads(ctx, query, labelIDs, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list threads: %v", err)), nil
	}

	if len(threads) == 0 {
		return mcp.NewToolResultText("No threads found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d threads:\n", len(threads))
	for i, thread := range threads {
		fmt.Fprintf(&b, "%d. Thread ID: %s (Snippet: %s)\n", i+1, thread.Id, thread.Snippet)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleListLabels(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	labels, err := client.ListLabels(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list labels: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d labels:\n", len(labels))
	for _, label := range labels {
		fmt.Fprintf(&b, "- %s (ID: %s, type: %s)\n", label.Name, label.Id, label.Type)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// writeMessageHeader writes the common header summary for a message.
func writeMessageHeader(b *strings.Builder, msg *gmail_v1.Message) {
	fmt.Fprintf(b, "From: %s\n", gmail.HeaderValue(msg, "From"))
	fmt.Fprintf(b, "To: %s\n", gmail.HeaderValue(msg, "To"))
	if cc := gmail.HeaderValue(msg, "Cc"); cc != "" {
		fmt.Fprintf(b, "Cc: %s\n", cc)
	}
	fmt.Fprintf(b, "Subject: %s\n", gmail.HeaderValue(msg, "Subject"))
	fmt.Fprintf(b, "Date: %s\n", gmail.HeaderValue(msg, "Date"))
}

// labelIDsArg parses the optional labelIds argument, which may be a
// single ID or an array of IDs.
func labelIDsArg(args map[string]any) ([]string, error) {
	raw, ok := args["labelIds"]
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
		ids := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("labelIds[%d] must be a non-empty label ID", i)
			}
			ids = append(ids, s)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("labelIds must be a label ID or array of label IDs")
	}
}
