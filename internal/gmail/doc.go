// Package gmail wraps the Gmail API for message retrieval, search,
// drafting, sending, replying, forwarding and label management.
//
// All outbound calls pass through a shared rate limiter and retry
// transient failures (429 and 5xx) with exponential backoff. Message
// composition produces RFC 2822 messages, multipart when attachments or
// both text and HTML bodies are present, encoded base64url as the API
// expects.
package gmail
