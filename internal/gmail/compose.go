package gmail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// MaxAttachmentSize is the largest attachment accepted (25MB, the Gmail limit).
const MaxAttachmentSize = 25 * 1024 * 1024

// EmailMessage represents an email to be drafted or sent.
type EmailMessage struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string

	// TextBody and HTMLBody may both be set, producing a
	// multipart/alternative message.
	TextBody string
	HTMLBody string

	// Attachments are local file paths attached as base64 parts.
	Attachments []string

	// Threading headers, set when replying.
	InReplyTo  string
	References string
	ThreadID   string
}

// Validate checks that the message has the minimum required fields.
func (m *EmailMessage) Validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	if m.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if m.TextBody == "" && m.HTMLBody == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

// encodeRFC2047 encodes a header value for non-ASCII characters
// (like German umlauts) per RFC 2047. ASCII-only strings pass through.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

// BuildRawMessage assembles the RFC 2822 message and returns it
// base64url-encoded as the Gmail API expects.
func BuildRawMessage(m *EmailMessage) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("To: ")
	b.WriteString(strings.Join(m.To, ", "))
	b.WriteString("\r\n")

	if len(m.Cc) > 0 {
		b.WriteString("Cc: ")
		b.WriteString(strings.Join(m.Cc, ", "))
		b.WriteString("\r\n")
	}

	if len(m.Bcc) > 0 {
		b.WriteString("Bcc: ")
		b.WriteString(strings.Join(m.Bcc, ", "))
		b.WriteString("\r\n")
	}

	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(m.Subject))
	b.WriteString("\r\n")

	if m.InReplyTo != "" {
		b.WriteString("In-Reply-To: ")
		b.WriteString(m.InReplyTo)
		b.WriteString("\r\n")
	}
	if m.References != "" {
		b.WriteString("References: ")
		b.WriteString(m.References)
		b.WriteString("\r\n")
	}

	b.WriteString("MIME-Version: 1.0\r\n")

	if err := writeBody(&b, m); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}

// writeBody writes the Content-Type header and body, choosing between a
// simple single part, multipart/alternative (text + html) and
// multipart/mixed (attachments).
func writeBody(b *strings.Builder, m *EmailMessage) error {
	if len(m.Attachments) == 0 {
		if m.TextBody != "" && m.HTMLBody != "" {
			return writeAlternative(b, m.TextBody, m.HTMLBody)
		}
		if m.HTMLBody != "" {
			b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
			b.WriteString(m.HTMLBody)
			return nil
		}
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(m.TextBody)
		return nil
	}

	mw := multipart.NewWriter(b)
	b.WriteString("Content-Type: multipart/mixed; boundary=\"" + mw.Boundary() + "\"\r\n\r\n")

	// Body part first
	var bodyHeader textproto.MIMEHeader
	var body string
	switch {
	case m.TextBody != "" && m.HTMLBody != "":
		// Nested multipart/alternative inside the mixed envelope
		var alt strings.Builder
		if err := writeAlternative(&alt, m.TextBody, m.HTMLBody); err != nil {
			return err
		}
		// writeAlternative emits its own Content-Type line; split it off
		parts := strings.SplitN(alt.String(), "\r\n\r\n", 2)
		bodyHeader = textproto.MIMEHeader{"Content-Type": {strings.TrimPrefix(parts[0], "Content-Type: ")}}
		body = parts[1]
	case m.HTMLBody != "":
		bodyHeader = textproto.MIMEHeader{"Content-Type": {"text/html; charset=\"UTF-8\""}}
		body = m.HTMLBody
	default:
		bodyHeader = textproto.MIMEHeader{"Content-Type": {"text/plain; charset=\"UTF-8\""}}
		body = m.TextBody
	}

	part, err := mw.CreatePart(bodyHeader)
	if err != nil {
		return fmt.Errorf("failed to create body part: %w", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		return fmt.Errorf("failed to write body part: %w", err)
	}

	for _, path := range m.Attachments {
		if err := writeAttachment(mw, path); err != nil {
			return err
		}
	}

	return mw.Close()
}

// writeAlternative writes a multipart/alternative body with the plain
// text part first, as clients prefer the last part they understand.
func writeAlternative(b *strings.Builder, textBody, htmlBody string) error {
	mw := multipart.NewWriter(b)
	b.WriteString("Content-Type: multipart/alternative; boundary=\"" + mw.Boundary() + "\"\r\n\r\n")

	textPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=\"UTF-8\""}})
	if err != nil {
		return fmt.Errorf("failed to create text part: %w", err)
	}
	if _, err := textPart.Write([]byte(textBody)); err != nil {
		return fmt.Errorf("failed to write text part: %w", err)
	}

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=\"UTF-8\""}})
	if err != nil {
		return fmt.Errorf("failed to create html part: %w", err)
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return fmt.Errorf("failed to write html part: %w", err)
	}

	return mw.Close()
}

// writeAttachment reads a local file and writes it as a base64 part.
func writeAttachment(mw *multipart.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read attachment %s: %w", path, err)
	}
	if info.Size() > MaxAttachmentSize {
		return fmt.Errorf("attachment %s size %d exceeds maximum size %d", path, info.Size(), MaxAttachmentSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read attachment %s: %w", path, err)
	}

	filename := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := textproto.MIMEHeader{
		"Content-Type":              {contentType + "; name=\"" + filename + "\""},
		"Content-Disposition":       {"attachment; filename=\"" + filename + "\""},
		"Content-Transfer-Encoding": {"base64"},
	}

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create attachment part: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	// Wrap base64 lines at 76 chars per RFC 2045
	for len(encoded) > 76 {
		if _, err := part.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return fmt.Errorf("failed to write attachment data: %w", err)
		}
		encoded = encoded[76:]
	}
	if _, err := part.Write([]byte(encoded)); err != nil {
		return fmt.Errorf("failed to write attachment data: %w", err)
	}

	return nil
}

// replySubject prefixes "Re: " unless the subject already carries it.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// forwardSubject prefixes "Fwd: " unless already forwarded.
func forwardSubject(subject string) string {
	lower := strings.ToLower(subject)
	if strings.HasPrefix(lower, "fwd:") || strings.HasPrefix(lower, "fw:") {
		return subject
	}
	return "Fwd: " + subject
}

// appendReferences extends a References chain with the replied-to
// message ID for correct threading.
func appendReferences(references, messageID string) string {
	if messageID == "" {
		return references
	}
	if references == "" {
		return messageID
	}
	return references + " " + messageID
}

// forwardBlock renders the standard forwarded-message header block
// followed by the original body, in text or HTML form.
func forwardBlock(from, date, subject, to, originalBody string, html bool) string {
	if html {
		var b strings.Builder
		b.WriteString("---------- Forwarded message ---------<br>")
		b.WriteString(fmt.Sprintf("From: %s<br>", from))
		b.WriteString(fmt.Sprintf("Date: %s<br>", date))
		b.WriteString(fmt.Sprintf("Subject: %s<br>", subject))
		b.WriteString(fmt.Sprintf("To: %s<br><br>", to))
		b.WriteString(originalBody)
		return b.String()
	}

	var b strings.Builder
	b.WriteString("---------- Forwarded message ---------\n")
	b.WriteString(fmt.Sprintf("From: %s\n", from))
	b.WriteString(fmt.Sprintf("Date: %s\n", date))
	b.WriteString(fmt.Sprintf("Subject: %s\n", subject))
	b.WriteString(fmt.Sprintf("To: %s\n\n", to))
	b.WriteString(originalBody)
	return b.String()
}
