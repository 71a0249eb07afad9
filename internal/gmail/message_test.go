package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func b64url(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestHeaderValue(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "alice@example.com"},
				{Name: "Subject", Value: "Hello"},
			},
		},
	}

	assert.Equal(t, "alice@example.com", HeaderValue(msg, "From"))
	assert.Equal(t, "Hello", HeaderValue(msg, "Subject"))
	assert.Empty(t, HeaderValue(msg, "Date"))
	assert.Empty(t, HeaderValue(&gmail.Message{}, "From"))
	assert.Empty(t, HeaderValue(nil, "From"))
}

func TestBodySimpleText(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: b64url("plain body")},
		},
	}

	body, err := Body(msg, FormatText)
	require.NoError(t, err)
	assert.Equal(t, "plain body", body)
}

func TestBodyDefaultsToText(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: b64url("plain body")},
		},
	}

	body, err := Body(msg, "")
	require.NoError(t, err)
	assert.Equal(t, "plain body", body)
}

func TestBodyNestedMultipart(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmail.MessagePart{
						{
							MimeType: "text/plain",
							Body:     &gmail.MessagePartBody{Data: b64url("nested text")},
						},
						{
							MimeType: "text/html",
							Body:     &gmail.MessagePartBody{Data: b64url("<p>nested html</p>")},
						},
					},
				},
				{
					MimeType: "application/pdf",
					Filename: "doc.pdf",
					Body:     &gmail.MessagePartBody{AttachmentId: "att1"},
				},
			},
		},
	}

	text, err := Body(msg, FormatText)
	require.NoError(t, err)
	assert.Equal(t, "nested text", text)

	html, err := Body(msg, FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "<p>nested html</p>", html)
}

func TestBodyStandardBase64Fallback(t *testing.T) {
	// These bytes encode to "+//+", which only standard base64 accepts.
	data := base64.StdEncoding.EncodeToString([]byte{0xfb, 0xff, 0xfe})
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: data},
		},
	}

	body, err := Body(msg, FormatText)
	require.NoError(t, err)
	assert.Equal(t, string([]byte{0xfb, 0xff, 0xfe}), body)
}

func TestBodyMissing(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: b64url("text only")},
		},
	}

	_, err := Body(msg, FormatHTML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no html body found")
}

func TestBodyInvalidFormat(t *testing.T) {
	_, err := Body(&gmail.Message{}, "markdown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestWalkPartsVisitsAll(t *testing.T) {
	root := &gmail.MessagePart{
		PartId: "root",
		Parts: []*gmail.MessagePart{
			{PartId: "a", Parts: []*gmail.MessagePart{{PartId: "a.1"}}},
			{PartId: "b"},
		},
	}

	var visited []string
	walkParts(root, func(p *gmail.MessagePart) {
		visited = append(visited, p.PartId)
	})

	assert.Equal(t, []string{"root", "a", "a.1", "b"}, visited)
}

func TestWalkPartsNil(t *testing.T) {
	called := false
	walkParts(nil, func(*gmail.MessagePart) { called = true })
	assert.False(t, called)
}
