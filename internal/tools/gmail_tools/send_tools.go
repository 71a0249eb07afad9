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
	"github.com/mwagner/gmailmcp/internal/tools/common"
)

// RegisterSendTools registers the tools that cause mail to leave the
// account. Every one of them is gated on confirm=true.
func RegisterSendTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	sendDraftTool := mcp.NewTool("send_draft",
		mcp.WithDescription("Send an existing Gmail draft. Requires confirm=true; without it no mail is sent."),
		accountOption(),
		mcp.WithString("draftId",
			mcp.Required(),
			mcp.Description("The ID of the draft to send"),
		),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to actually send the draft"),
		),
	)

	s.AddTool(sendDraftTool, common.InstrumentedToolHandlerWithOperation(
		"send_draft", instrumentation.OperationSend, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendDraft(ctx, request, sc)
		}))

	replyTool := mcp.NewTool("reply_message",
		mcp.WithDescription("Reply to a Gmail message, preserving threading (In-Reply-To, References, Re: subject). Requires confirm=true."),
		accountOption(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to reply to"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain text reply body"),
		),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to actually send the reply"),
		),
		mcp.WithString("htmlBody",
			mcp.Description("Optional HTML reply body"),
		),
		mcp.WithString("toOverride",
			mcp.Description("Recipient(s) to use instead of the original sender, comma-separated"),
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

	s.AddTool(replyTool, common.InstrumentedToolHandlerWithOperation(
		"reply_message", instrumentation.OperationSend, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReplyMessage(ctx, request, sc)
		}))

	forwardTool := mcp.NewTool("forward_message",
		mcp.WithDescription("Forward a Gmail message with the standard forwarded-message header block. Requires confirm=true."),
		accountOption(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to forward"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain text note to place above the forwarded block"),
		),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to actually forward the message"),
		),
		mcp.WithString("htmlBody",
			mcp.Description("Optional HTML note body"),
		),
		mcp.WithBoolean("includeSnippet",
			mcp.Description("Include the original message body in the forwarded block (default: true)"),
		),
		mcp.WithString("attachments",
			mcp.Description("File path (string) or array of file paths to attach"),
		),
	)

	s.AddTool(forwardTool, common.InstrumentedToolHandlerWithOperation(
		"forward_message", instrumentation.OperationSend, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleForwardMessage(ctx, request, sc)
		}))

	return nil
}

func handleSendDraft(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	draftID := stringArg(args, "draftId")
	if draftID == "" {
		return mcp.NewToolResultError("draftId is required"), nil
	}

	if ok, errResult := confirmed(args, "sending draft "+draftID); !ok {
		return errResult, nil
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	sent, err := client.SendDraft(ctx, draftID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send draft: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Draft sent.\nMessage ID: %s\nThread ID: %s", sent.Id, sent.ThreadId)), nil
}

func handleReplyMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID := stringArg(args, "messageId")
	if messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	body := stringArg(args, "body")
	if body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}

	if ok, errResult := confirmed(args, "replying to message "+messageID); !ok {
		return errResult, nil
	}

	attachments, err := attachmentsArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg := &gmail.EmailMessage{
		To:          splitEmailAddresses(stringArg(args, "toOverride")),
		Cc:          splitEmailAddresses(stringArg(args, "cc")),
		Bcc:         splitEmailAddresses(stringArg(args, "bcc")),
		TextBody:    body,
		HTMLBody:    stringArg(args, "htmlBody"),
		Attachments: attachments,
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	sentID, err := client.Reply(ctx, messageID, msg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send reply: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reply sent.\nMessage ID: %s\nIn reply to: %s", sentID, messageID)), nil
}

func handleForwardMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID := stringArg(args, "messageId")
	if messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	toStr := stringArg(args, "to")
	if toStr == "" {
		return mcp.NewToolResultError("to is required"), nil
	}

	body := stringArg(args, "body")
	if body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}

	if ok, errResult := confirmed(args, "forwarding message "+messageID); !ok {
		return errResult, nil
	}

	includeBody := true
	if v, ok := args["includeSnippet"].(bool); ok {
		includeBody = v
	}

	attachments, err := attachmentsArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	to := splitEmailAddresses(toStr)
	msg := &gmail.EmailMessage{
		To:          to,
		TextBody:    body,
		HTMLBody:    stringArg(args, "htmlBody"),
		Attachments: attachments,
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	sentID, err := client.Forward(ctx, messageID, msg, includeBody)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to forward message: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message forwarded.\nMessage ID: %s\nTo: %s", sentID, strings.Join(to, ", "))), nil
}
