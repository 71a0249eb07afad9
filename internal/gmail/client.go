package gmail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mwagner/gmailmcp/internal/instrumentation"
)

// maxPageSize is the largest page the Gmail list endpoints accept.
const maxPageSize = 100

// Client wraps the Gmail Users service for one account.
type Client struct {
	svc     *gmail.UsersService
	account string
	limiter *rate.Limiter
	metrics *instrumentation.Metrics
}

// NewClient creates a Gmail client from an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, account string) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:     svc.Users,
		account: account,
		limiter: newLimiter(),
	}, nil
}

// Account returns the account alias this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// SetMetrics attaches a metrics recorder for Gmail API operations.
func (c *Client) SetMetrics(metrics *instrumentation.Metrics) {
	c.metrics = metrics
}

// do paces, retries and instruments a single Gmail API operation.
func (c *Client) do(ctx context.Context, operation string, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	err := withRetry(ctx, fn)

	if c.metrics != nil {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		c.metrics.RecordGmailOperation(ctx, operation, status, time.Since(start))
	}

	return err
}

// GetMessage retrieves a full Gmail message.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	var msg *gmail.Message
	err := c.do(ctx, instrumentation.OperationGet, func() error {
		var err error
		msg, err = c.svc.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return msg, nil
}

// GetMessageMetadata retrieves only the headers and snippet of a message.
func (c *Client) GetMessageMetadata(ctx context.Context, messageID string) (*gmail.Message, error) {
	var msg *gmail.Message
	err := c.do(ctx, instrumentation.OperationGet, func() error {
		var err error
		msg, err = c.svc.Messages.Get("me", messageID).
			Format("metadata").
			MetadataHeaders("From", "To", "Cc", "Subject", "Date").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return msg, nil
}

// SearchMessages lists message stubs matching the Gmail query, fetching
// additional pages until maxResults are collected.
func (c *Client) SearchMessages(ctx context.Context, query string, labelIDs []string, maxResults int64) ([]*gmail.Message, error) {
	var all []*gmail.Message
	pageToken := ""

	for {
		remaining := maxResults - int64(len(all))
		if remaining <= 0 {
			break
		}

		pageSize := remaining
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		req := c.svc.Messages.List("me").MaxResults(pageSize)
		if query != "" {
			req = req.Q(query)
		}
		if len(labelIDs) > 0 {
			req = req.LabelIds(labelIDs...)
		}
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		var res *gmail.ListMessagesResponse
		err := c.do(ctx, instrumentation.OperationSearch, func() error {
			var err error
			res, err = req.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search messages: %w", err)
		}

		all = append(all, res.Messages...)

		if res.NextPageToken == "" || int64(len(all)) >= maxResults {
			break
		}
		pageToken = res.NextPageToken
	}

	if int64(len(all)) > maxResults {
		all = all[:maxResults]
	}

	return all, nil
}

// GetThread retrieves a full Gmail thread with all its messages.
func (c *Client) GetThread(ctx context.Context, threadID string) (*gmail.Thread, error) {
	var thread *gmail.Thread
	err := c.do(ctx, instrumentation.OperationGet, func() error {
		var err error
		thread, err = c.svc.Threads.Get("me", threadID).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", threadID, err)
	}
	return thread, nil
}

// ListThreads lists threads matching the query with pagination, making
// multiple API calls if necessary up to maxResults.
func (c *Client) ListThreads(ctx context.Context, query string, labelIDs []string, maxResults int64) ([]*gmail.Thread, error) {
	var all []*gmail.Thread
	pageToken := ""

	for {
		remaining := maxResults - int64(len(all))
		if remaining <= 0 {
			break
		}

		pageSize := remaining
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		req := c.svc.Threads.List("me").MaxResults(pageSize)
		if query != "" {
			req = req.Q(query)
		}
		if len(labelIDs) > 0 {
			req = req.LabelIds(labelIDs...)
		}
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		var res *gmail.ListThreadsResponse
		err := c.do(ctx, instrumentation.OperationList, func() error {
			var err error
			res, err = req.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list threads: %w", err)
		}

		all = append(all, res.Threads...)

		if res.NextPageToken == "" || int64(len(all)) >= maxResults {
			break
		}
		pageToken = res.NextPageToken
	}

	if int64(len(all)) > maxResults {
		all = all[:maxResults]
	}

	return all, nil
}

// ListLabels lists all labels in the mailbox.
func (c *Client) ListLabels(ctx context.Context) ([]*gmail.Label, error) {
	var res *gmail.ListLabelsResponse
	err := c.do(ctx, instrumentation.OperationList, func() error {
		var err error
		res, err = c.svc.Labels.List("me").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return res.Labels, nil
}

// CreateLabel creates a new user label.
func (c *Client) CreateLabel(ctx context.Context, name string) (*gmail.Label, error) {
	var label *gmail.Label
	err := c.do(ctx, instrumentation.OperationCreate, func() error {
		var err error
		label, err = c.svc.Labels.Create("me", &gmail.Label{
			Name:                  name,
			LabelListVisibility:   "labelShow",
			MessageListVisibility: "show",
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create label %q: %w", name, err)
	}
	return label, nil
}

// DeleteLabel deletes a user label.
func (c *Client) DeleteLabel(ctx context.Context, labelID string) error {
	err := c.do(ctx, instrumentation.OperationDelete, func() error {
		return c.svc.Labels.Delete("me", labelID).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to delete label %s: %w", labelID, err)
	}
	return nil
}

// ModifyMessageLabels adds and removes labels on a message.
func (c *Client) ModifyMessageLabels(ctx context.Context, messageID string, addLabelIDs, removeLabelIDs []string) error {
	err := c.do(ctx, instrumentation.OperationModify, func() error {
		_, err := c.svc.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
			AddLabelIds:    addLabelIDs,
			RemoveLabelIds: removeLabelIDs,
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to modify labels on message %s: %w", messageID, err)
	}
	return nil
}

// TrashMessage moves a message to the trash.
func (c *Client) TrashMessage(ctx context.Context, messageID string) error {
	err := c.do(ctx, instrumentation.OperationTrash, func() error {
		_, err := c.svc.Messages.Trash("me", messageID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to trash message %s: %w", messageID, err)
	}
	return nil
}

// CreateDraft creates a draft held by the provider and returns it.
func (c *Client) CreateDraft(ctx context.Context, msg *EmailMessage) (*gmail.Draft, error) {
	raw, err := BuildRawMessage(msg)
	if err != nil {
		return nil, err
	}

	var draft *gmail.Draft
	err = c.do(ctx, instrumentation.OperationCreate, func() error {
		var err error
		draft, err = c.svc.Drafts.Create("me", &gmail.Draft{
			Message: &gmail.Message{Raw: raw},
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	return draft, nil
}

// ListDrafts lists drafts up to maxResults.
func (c *Client) ListDrafts(ctx context.Context, maxResults int64) ([]*gmail.Draft, error) {
	var all []*gmail.Draft
	pageToken := ""

	for {
		remaining := maxResults - int64(len(all))
		if remaining <= 0 {
			break
		}

		pageSize := remaining
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		req := c.svc.Drafts.List("me").MaxResults(pageSize)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		var res *gmail.ListDraftsResponse
		err := c.do(ctx, instrumentation.OperationList, func() error {
			var err error
			res, err = req.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list drafts: %w", err)
		}

		all = append(all, res.Drafts...)

		if res.NextPageToken == "" || int64(len(all)) >= maxResults {
			break
		}
		pageToken = res.NextPageToken
	}

	if int64(len(all)) > maxResults {
		all = all[:maxResults]
	}

	return all, nil
}

// GetDraft retrieves a draft with its full message.
func (c *Client) GetDraft(ctx context.Context, draftID string) (*gmail.Draft, error) {
	var draft *gmail.Draft
	err := c.do(ctx, instrumentation.OperationGet, func() error {
		var err error
		draft, err = c.svc.Drafts.Get("me", draftID).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get draft %s: %w", draftID, err)
	}
	return draft, nil
}

// DeleteDraft permanently deletes a draft.
func (c *Client) DeleteDraft(ctx context.Context, draftID string) error {
	err := c.do(ctx, instrumentation.OperationDelete, func() error {
		return c.svc.Drafts.Delete("me", draftID).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", draftID, err)
	}
	return nil
}

// SendDraft sends an existing draft and returns the sent message.
func (c *Client) SendDraft(ctx context.Context, draftID string) (*gmail.Message, error) {
	var sent *gmail.Message
	err := c.do(ctx, instrumentation.OperationSend, func() error {
		var err error
		sent, err = c.svc.Drafts.Send("me", &gmail.Draft{Id: draftID}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send draft %s: %w", draftID, err)
	}
	return sent, nil
}

// SendMessage sends a composed message directly and returns its ID.
func (c *Client) SendMessage(ctx context.Context, msg *EmailMessage) (string, error) {
	raw, err := BuildRawMessage(msg)
	if err != nil {
		return "", err
	}

	gmailMsg := &gmail.Message{Raw: raw}
	if msg.ThreadID != "" {
		gmailMsg.ThreadId = msg.ThreadID
	}

	var sent *gmail.Message
	err = c.do(ctx, instrumentation.OperationSend, func() error {
		var err error
		sent, err = c.svc.Messages.Send("me", gmailMsg).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}
