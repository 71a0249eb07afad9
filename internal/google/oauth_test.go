package google

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// memStore is an in-memory TokenStore for tests.
type memStore struct {
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *memStore) Set(key, value string) error {
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(key string) error {
	if _, ok := s.data[key]; !ok {
		return ErrNotFound
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

func newTestManager(t *testing.T, store TokenStore) *Manager {
	t.Helper()
	m, err := NewManager(store, "client-id", "client-secret")
	require.NoError(t, err)
	return m
}

func TestNewManagerRequiresCredentials(t *testing.T) {
	t.Setenv("GMAILMCP_GOOGLE_CLIENT_ID", "")
	t.Setenv("GMAILMCP_GOOGLE_CLIENT_SECRET", "")

	_, err := NewManager(newMemStore(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GMAILMCP_GOOGLE_CLIENT_ID")
}

func TestNewManagerCredentialsFromEnv(t *testing.T) {
	t.Setenv("GMAILMCP_GOOGLE_CLIENT_ID", "env-id")
	t.Setenv("GMAILMCP_GOOGLE_CLIENT_SECRET", "env-secret")

	m, err := NewManager(newMemStore(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "env-id", m.config.ClientID)
}

func TestAuthURL(t *testing.T) {
	m := newTestManager(t, newMemStore())

	url := m.AuthURL()
	assert.Contains(t, url, "client_id=client-id")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "state=")

	// Every call gets a fresh state nonce.
	assert.NotEqual(t, url, m.AuthURL())
}

func TestHasTokenAndDelete(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store)

	assert.False(t, m.HasToken("default"))

	token, _ := json.Marshal(&oauth2.Token{AccessToken: "abc", RefreshToken: "def"})
	require.NoError(t, store.Set("google-token:default", string(token)))

	assert.True(t, m.HasToken("default"))
	require.NoError(t, m.DeleteToken("default"))
	assert.False(t, m.HasToken("default"))

	err := m.DeleteToken("default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token stored")
}

func TestLoadTokenMissingAccount(t *testing.T) {
	m := newTestManager(t, newMemStore())

	_, err := m.loadToken("work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `account "work"`)
	assert.Contains(t, err.Error(), "gmailmcp auth")
}

func TestLoadTokenCorrupt(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store)

	require.NoError(t, store.Set("google-token:default", "not-json"))

	_, err := m.loadToken("default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")
}

func TestSaveTokenRoundTrip(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store)

	want := &oauth2.Token{AccessToken: "abc", RefreshToken: "def", TokenType: "Bearer"}
	require.NoError(t, m.saveToken("work", want))

	got, err := m.loadToken("work")
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
}

func TestTokenKeyDefaultsAccount(t *testing.T) {
	assert.Equal(t, "google-token:default", tokenKey(""))
	assert.Equal(t, "google-token:work", tokenKey("work"))
}
