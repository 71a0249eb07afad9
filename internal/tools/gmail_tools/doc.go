// Package gmail_tools exposes Gmail operations as MCP (Model Context
// Protocol) tools callable by AI agents and other MCP clients.
//
// Read tools (always registered):
//   - gmail_get_message: Fetch a message as metadata or with full body
//   - gmail_get_thread: Fetch a thread with per-message summaries
//   - gmail_search_messages: Search messages with Gmail query syntax
//   - gmail_list_threads: List threads matching a query
//   - gmail_list_labels: List all labels
//   - gmail_list_drafts: List drafts
//   - gmail_get_draft: Preview a draft
//   - render_template: Substitute {name} placeholders in a template
//
// Write tools (registered only when write operations are enabled):
//   - draft_email: Create a draft
//   - draft_email_from_template: Render a template, then create a draft
//   - delete_draft: Delete a draft
//   - send_draft: Send an existing draft (requires confirm=true)
//   - reply_message: Reply within a thread (requires confirm=true)
//   - forward_message: Forward a message (requires confirm=true)
//   - gmail_modify_labels: Add/remove labels on one or more messages
//   - gmail_create_label / gmail_delete_label: Label mutation
//   - gmail_trash_message: Move message(s) to trash (requires confirm=true)
//
// Operations that send mail or discard data take a confirm argument and
// return an error without touching the Gmail API unless it is true.
// The agent is expected to surface this to the user before retrying.
//
// All tools accept an optional account argument to select among
// authenticated Google accounts; it defaults to "default". Clients are
// created lazily per account by the server context, which also handles
// OAuth2 token refresh.
package gmail_tools
