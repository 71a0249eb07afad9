package gmail

import (
	"context"
	"encoding/base64"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"
)

// Body format selectors for Body and GetMessageBody.
const (
	FormatText = "text"
	FormatHTML = "html"
)

// HeaderValue extracts a header value from a Gmail message.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if h.Name == header {
			return h.Value
		}
	}
	return ""
}

// Body extracts the decoded text or HTML body from a full message.
func Body(msg *gmail.Message, format string) (string, error) {
	var targetMimeType string
	switch format {
	case FormatText, "":
		targetMimeType = "text/plain"
	case FormatHTML:
		targetMimeType = "text/html"
	default:
		return "", fmt.Errorf("invalid format %s, must be 'text' or 'html'", format)
	}

	var body string
	if msg.Payload != nil {
		if msg.Payload.MimeType == targetMimeType && msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
			body = msg.Payload.Body.Data
		} else {
			walkParts(msg.Payload, func(part *gmail.MessagePart) {
				if body == "" && part.MimeType == targetMimeType && part.Body != nil && part.Body.Data != "" {
					body = part.Body.Data
				}
			})
		}
	}

	if body == "" {
		return "", fmt.Errorf("no %s body found in message", format)
	}

	return decodeBase64(body)
}

// decodeBase64 decodes Gmail body data, which is base64url per the API
// docs but occasionally arrives standard-encoded.
func decodeBase64(data string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			return "", fmt.Errorf("failed to decode message body: %w", err)
		}
	}
	return string(decoded), nil
}

// walkParts recursively walks through message parts.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}

	fn(part)

	for _, subpart := range part.Parts {
		walkParts(subpart, fn)
	}
}

// GetMessageBody fetches a message and extracts its decoded body.
func (c *Client) GetMessageBody(ctx context.Context, messageID, format string) (string, error) {
	msg, err := c.GetMessage(ctx, messageID)
	if err != nil {
		return "", err
	}
	return Body(msg, format)
}

// Reply sends a reply to an existing message, preserving threading.
// Recipients default to the original sender unless overridden.
func (c *Client) Reply(ctx context.Context, messageID string, msg *EmailMessage) (string, error) {
	if messageID == "" {
		return "", fmt.Errorf("messageID is required")
	}
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return "", fmt.Errorf("body is required")
	}

	original, err := c.GetMessage(ctx, messageID)
	if err != nil {
		return "", fmt.Errorf("failed to get original message: %w", err)
	}

	originalFrom := HeaderValue(original, "From")
	originalSubject := HeaderValue(original, "Subject")
	originalMessageID := HeaderValue(original, "Message-ID")
	originalReferences := HeaderValue(original, "References")

	if len(msg.To) == 0 {
		if originalFrom == "" {
			return "", fmt.Errorf("original message has no From header")
		}
		msg.To = []string{originalFrom}
	}

	msg.Subject = replySubject(originalSubject)
	msg.InReplyTo = originalMessageID
	msg.References = appendReferences(originalReferences, originalMessageID)
	msg.ThreadID = original.ThreadId

	return c.SendMessage(ctx, msg)
}

// Forward forwards an existing message to new recipients. When
// includeBody is true the original body is quoted below the standard
// forwarded-message block.
func (c *Client) Forward(ctx context.Context, messageID string, msg *EmailMessage, includeBody bool) (string, error) {
	if messageID == "" {
		return "", fmt.Errorf("messageID is required")
	}
	if len(msg.To) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}

	original, err := c.GetMessage(ctx, messageID)
	if err != nil {
		return "", fmt.Errorf("failed to get original message: %w", err)
	}

	originalFrom := HeaderValue(original, "From")
	originalTo := HeaderValue(original, "To")
	originalSubject := HeaderValue(original, "Subject")
	originalDate := HeaderValue(original, "Date")

	msg.Subject = forwardSubject(originalSubject)

	html := msg.HTMLBody != ""

	var originalBody string
	if includeBody {
		if html {
			originalBody, _ = Body(original, FormatHTML)
			if originalBody == "" {
				originalBody, _ = Body(original, FormatText)
			}
		} else {
			originalBody, _ = Body(original, FormatText)
		}
	}

	block := forwardBlock(originalFrom, originalDate, originalSubject, originalTo, originalBody, html)
	if html {
		msg.HTMLBody = msg.HTMLBody + "<br><br>" + block
	} else {
		msg.TextBody = msg.TextBody + "\n\n" + block
	}

	return c.SendMessage(ctx, msg)
}
