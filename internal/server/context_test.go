package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwagner/gmailmcp/internal/gmail"
	"github.com/mwagner/gmailmcp/internal/google"
	"github.com/mwagner/gmailmcp/internal/instrumentation"
)

// memStore is an in-memory token store for tests.
type memStore struct {
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", google.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Set(key, value string) error {
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(key string) error {
	if _, ok := s.data[key]; !ok {
		return google.ErrNotFound
	}
	delete(s.data, key)
	return nil
}

func (s *memStore) List() ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestNewServerContext(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)

	require.NotNil(t, sc.Context())
	assert.False(t, sc.IsShutdown())
}

func TestServerContextShutdown(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	// Shutdown is idempotent.
	require.NoError(t, sc.Shutdown())
}

func TestGmailClientForAccountNoAuthManager(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)

	_, err := sc.GmailClientForAccount("default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no auth manager configured")
}

func TestGmailClientForAccountMissingToken(t *testing.T) {
	auth, err := google.NewManager(newMemStore(), "client-id", "client-secret")
	require.NoError(t, err)

	sc := NewServerContext(context.Background(), auth)

	_, err = sc.GmailClientForAccount("work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no Google account "work" configured`)
	assert.Contains(t, err.Error(), "gmailmcp auth --account work")
}

func TestGmailClientForAccountUsesInjectedClient(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)

	injected := &gmail.Client{}
	sc.SetGmailClientForAccount("work", injected)

	client, err := sc.GmailClientForAccount("work")
	require.NoError(t, err)
	assert.Same(t, injected, client)
}

func TestGmailClientDefaultsAccount(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)

	injected := &gmail.Client{}
	sc.SetGmailClientForAccount("default", injected)

	// An empty account name maps to the default account.
	client, err := sc.GmailClientForAccount("")
	require.NoError(t, err)
	assert.Same(t, injected, client)

	client, err = sc.GmailClient()
	require.NoError(t, err)
	assert.Same(t, injected, client)
}

func TestServerContextMetricsAndAuditLogger(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)

	assert.Nil(t, sc.Metrics())
	assert.Nil(t, sc.AuditLogger())

	metrics := &instrumentation.Metrics{}
	sc.SetMetrics(metrics)
	assert.Same(t, metrics, sc.Metrics())

	audit := instrumentation.NewAuditLogger(nil)
	sc.SetAuditLogger(audit)
	assert.Same(t, audit, sc.AuditLogger())
}
