package gmail

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRaw(t *testing.T, raw string) string {
	t.Helper()
	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	return string(decoded)
}

func TestBuildRawMessagePlainText(t *testing.T) {
	raw, err := BuildRawMessage(&EmailMessage{
		To:       []string{"alice@example.com", "bob@example.com"},
		Cc:       []string{"carol@example.com"},
		Subject:  "Meeting notes",
		TextBody: "See attached notes.",
	})
	require.NoError(t, err)

	msg := decodeRaw(t, raw)
	assert.Contains(t, msg, "To: alice@example.com, bob@example.com\r\n")
	assert.Contains(t, msg, "Cc: carol@example.com\r\n")
	assert.NotContains(t, msg, "Bcc:")
	assert.Contains(t, msg, "Subject: Meeting notes\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.True(t, strings.HasSuffix(msg, "See attached notes."))
}

func TestBuildRawMessageHTML(t *testing.T) {
	raw, err := BuildRawMessage(&EmailMessage{
		To:       []string{"alice@example.com"},
		Subject:  "Hello",
		HTMLBody: "<p>Hi</p>",
	})
	require.NoError(t, err)

	msg := decodeRaw(t, raw)
	assert.Contains(t, msg, "Content-Type: text/html; charset=\"UTF-8\"\r\n")
	assert.Contains(t, msg, "<p>Hi</p>")
}

func TestBuildRawMessageAlternative(t *testing.T) {
	raw, err := BuildRawMessage(&EmailMessage{
		To:       []string{"alice@example.com"},
		Subject:  "Hello",
		TextBody: "Hi in plain text",
		HTMLBody: "<p>Hi in HTML</p>",
	})
	require.NoError(t, err)

	msg := decodeRaw(t, raw)
	assert.Contains(t, msg, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, msg, "Hi in plain text")
	assert.Contains(t, msg, "<p>Hi in HTML</p>")
	// Plain text part must come before the HTML part.
	assert.Less(t, strings.Index(msg, "Hi in plain text"), strings.Index(msg, "<p>Hi in HTML</p>"))
}

func TestBuildRawMessageEncodesSubject(t *testing.T) {
	raw, err := BuildRawMessage(&EmailMessage{
		To:       []string{"alice@example.com"},
		Subject:  "Grüße aus München",
		TextBody: "Hallo",
	})
	require.NoError(t, err)

	msg := decodeRaw(t, raw)
	assert.Contains(t, msg, "Subject: =?UTF-8?b?")
	assert.NotContains(t, msg, "Subject: Grüße")
}

func TestBuildRawMessageThreadingHeaders(t *testing.T) {
	raw, err := BuildRawMessage(&EmailMessage{
		To:         []string{"alice@example.com"},
		Subject:    "Re: Hello",
		TextBody:   "Reply",
		InReplyTo:  "<orig@mail.example.com>",
		References: "<root@mail.example.com> <orig@mail.example.com>",
	})
	require.NoError(t, err)

	msg := decodeRaw(t, raw)
	assert.Contains(t, msg, "In-Reply-To: <orig@mail.example.com>\r\n")
	assert.Contains(t, msg, "References: <root@mail.example.com> <orig@mail.example.com>\r\n")
}

func TestBuildRawMessageWithAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("quarterly numbers"), 0600))

	raw, err := BuildRawMessage(&EmailMessage{
		To:          []string{"alice@example.com"},
		Subject:     "Report",
		TextBody:    "Attached.",
		Attachments: []string{path},
	})
	require.NoError(t, err)

	msg := decodeRaw(t, raw)
	assert.Contains(t, msg, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, msg, "Content-Disposition: attachment; filename=\"report.txt\"")
	assert.Contains(t, msg, "Content-Transfer-Encoding: base64")
	assert.Contains(t, msg, base64.StdEncoding.EncodeToString([]byte("quarterly numbers")))
}

func TestBuildRawMessageMissingAttachment(t *testing.T) {
	_, err := BuildRawMessage(&EmailMessage{
		To:          []string{"alice@example.com"},
		Subject:     "Report",
		TextBody:    "Attached.",
		Attachments: []string{"/does/not/exist.txt"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attachment")
}

func TestEmailMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     EmailMessage
		wantErr string
	}{
		{
			name:    "missing recipient",
			msg:     EmailMessage{Subject: "s", TextBody: "b"},
			wantErr: "recipient",
		},
		{
			name:    "missing subject",
			msg:     EmailMessage{To: []string{"a@b.c"}, TextBody: "b"},
			wantErr: "subject",
		},
		{
			name:    "missing body",
			msg:     EmailMessage{To: []string{"a@b.c"}, Subject: "s"},
			wantErr: "body",
		},
		{
			name: "html body suffices",
			msg:  EmailMessage{To: []string{"a@b.c"}, Subject: "s", HTMLBody: "<p>x</p>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEncodeRFC2047(t *testing.T) {
	assert.Equal(t, "plain ascii", encodeRFC2047("plain ascii"))
	encoded := encodeRFC2047("Grüße")
	assert.True(t, strings.HasPrefix(encoded, "=?UTF-8?"))
}

func TestReplySubject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello", "Re: Hello"},
		{"Re: Hello", "Re: Hello"},
		{"RE: Hello", "RE: Hello"},
		{"", "Re: "},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, replySubject(tt.in))
	}
}

func TestForwardSubject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello", "Fwd: Hello"},
		{"Fwd: Hello", "Fwd: Hello"},
		{"FW: Hello", "FW: Hello"},
		{"Re: Hello", "Fwd: Re: Hello"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, forwardSubject(tt.in))
	}
}

func TestAppendReferences(t *testing.T) {
	assert.Equal(t, "<a>", appendReferences("", "<a>"))
	assert.Equal(t, "<a> <b>", appendReferences("<a>", "<b>"))
	assert.Equal(t, "<a>", appendReferences("<a>", ""))
}

func TestForwardBlock(t *testing.T) {
	text := forwardBlock("alice@example.com", "Mon, 1 Jan 2024", "Hello", "bob@example.com", "original body", false)
	assert.Contains(t, text, "---------- Forwarded message ---------\n")
	assert.Contains(t, text, "From: alice@example.com\n")
	assert.Contains(t, text, "Date: Mon, 1 Jan 2024\n")
	assert.True(t, strings.HasSuffix(text, "original body"))

	html := forwardBlock("alice@example.com", "Mon, 1 Jan 2024", "Hello", "bob@example.com", "<p>original</p>", true)
	assert.Contains(t, html, "---------- Forwarded message ---------<br>")
	assert.Contains(t, html, "From: alice@example.com<br>")
	assert.True(t, strings.HasSuffix(html, "<p>original</p>"))
}
