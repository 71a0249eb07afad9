package gmail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwagner/gmailmcp/internal/instrumentation"
	"github.com/mwagner/gmailmcp/internal/server"
	"github.com/mwagner/gmailmcp/internal/tools/batch"
	"github.com/mwagner/gmailmcp/internal/tools/common"
)

// RegisterLabelTools registers the label mutation and trash tools.
// All of them change mailbox state and are only available in write mode.
func RegisterLabelTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	modifyLabelsTool := mcp.NewTool("gmail_modify_labels",
		mcp.WithDescription("Add and/or remove labels on one or more Gmail messages"),
		accountOption(),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message ID (string) or array of message IDs to modify"),
		),
		mcp.WithString("addLabelIds",
			mcp.Description("Label ID (string) or array of label IDs to add"),
		),
		mcp.WithString("removeLabelIds",
			mcp.Description("Label ID (string) or array of label IDs to remove"),
		),
	)

	s.AddTool(modifyLabelsTool, common.InstrumentedToolHandlerWithOperation(
		"gmail_modify_labels", instrumentation.OperationModify, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleModifyLabels(ctx, request, sc)
		}))

	createLabelTool := mcp.NewTool("gmail_create_label",
		mcp.WithDescription("Create a new Gmail label"),
		accountOption(),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The name of the label to create"),
		),
	)

	s.AddTool(createLabelTool, common.InstrumentedToolHandlerWithOperation(
		"gmail_create_label", instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateLabel(ctx, request, sc)
		}))

	deleteLabelTool := mcp.NewTool("gmail_delete_label",
		mcp.WithDescription("Delete a Gmail label. Messages keep their other labels."),
		accountOption(),
		mcp.WithString("labelId",
			mcp.Required(),
			mcp.Description("The ID of the label to delete"),
		),
	)

	s.AddTool(deleteLabelTool, common.InstrumentedToolHandlerWithOperation(
		"gmail_delete_label", instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteLabel(ctx, request, sc)
		}))

	trashTool := mcp.NewTool("gmail_trash_message",
		mcp.WithDescription("Move one or more Gmail messages to the trash. Requires confirm=true; without it nothing is trashed."),
		accountOption(),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message ID (string) or array of message IDs to trash"),
		),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to actually move the messages to trash"),
		),
	)

	s.AddTool(trashTool, common.InstrumentedToolHandlerWithOperation(
		"gmail_trash_message", instrumentation.OperationTrash, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleTrashMessage(ctx, request, sc)
		}))

	return nil
}

func handleModifyLabels(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageIDs, err := batch.ParseStringOrArray(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var addLabelIDs, removeLabelIDs []string
	if raw, ok := args["addLabelIds"]; ok && raw != nil {
		addLabelIDs, err = batch.ParseStringOrArray(raw, "addLabelIds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if raw, ok := args["removeLabelIds"]; ok && raw != nil {
		removeLabelIDs, err = batch.ParseStringOrArray(raw, "removeLabelIds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	if len(addLabelIDs) == 0 && len(removeLabelIDs) == 0 {
		return mcp.NewToolResultError("at least one of addLabelIds or removeLabelIds is required"), nil
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	results := batch.Process(messageIDs, func(messageID string) (string, error) {
		if err := client.ModifyMessageLabels(ctx, messageID, addLabelIDs, removeLabelIDs); err != nil {
			return "", err
		}
		return fmt.Sprintf("Labels modified on message %s", messageID), nil
	})

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleCreateLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name := stringArg(args, "name")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	label, err := client.CreateLabel(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create label: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Label created.\nName: %s\nID: %s", label.Name, label.Id)), nil
}

func handleDeleteLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	labelID := stringArg(args, "labelId")
	if labelID == "" {
		return mcp.NewToolResultError("labelId is required"), nil
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	if err := client.DeleteLabel(ctx, labelID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete label: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Label %s deleted.", labelID)), nil
}

func handleTrashMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageIDs, err := batch.ParseStringOrArray(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if ok, errResult := confirmed(args, fmt.Sprintf("trashing %d message(s)", len(messageIDs))); !ok {
		return errResult, nil
	}

	client, errResult := clientForArgs(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	results := batch.Process(messageIDs, func(messageID string) (string, error) {
		if err := client.TrashMessage(ctx, messageID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Message %s moved to trash", messageID), nil
	})

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}
