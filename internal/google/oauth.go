package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"

	"github.com/mwagner/gmailmcp/internal/instrumentation"
)

// OOB is the out-of-band redirect URI for the installed-app flow: Google
// displays the authorization code for the user to paste back.
const OOB = "urn:ietf:wg:oauth:2.0:oob"

// Manager handles the OAuth2 flow and token persistence for one or more
// local account aliases.
type Manager struct {
	store   TokenStore
	config  *oauth2.Config
	metrics *instrumentation.Metrics
}

// NewManager creates a Manager backed by the given TokenStore. Client
// credentials default to the GMAILMCP_GOOGLE_CLIENT_ID and
// GMAILMCP_GOOGLE_CLIENT_SECRET environment variables when empty.
func NewManager(store TokenStore, clientID, clientSecret string) (*Manager, error) {
	if clientID == "" {
		clientID = os.Getenv("GMAILMCP_GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GMAILMCP_GOOGLE_CLIENT_SECRET")
	}
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("Google OAuth client credentials are required; set GMAILMCP_GOOGLE_CLIENT_ID and GMAILMCP_GOOGLE_CLIENT_SECRET")
	}

	return &Manager{
		store: store,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     googleauth.Endpoint,
			RedirectURL:  OOB,
			Scopes:       Scopes,
		},
	}, nil
}

// SetMetrics attaches a metrics recorder for OAuth events.
func (m *Manager) SetMetrics(metrics *instrumentation.Metrics) {
	m.metrics = metrics
}

// AuthURL returns the consent URL the user must visit to authorize the
// application. Offline access is requested so a refresh token is issued.
func (m *Manager) AuthURL() string {
	state := uuid.NewString()
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// SaveAuthCode exchanges an authorization code for a token and persists
// it under the given account alias.
func (m *Manager) SaveAuthCode(ctx context.Context, account, authCode string) error {
	token, err := m.config.Exchange(ctx, authCode)
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		}
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	if err := m.saveToken(account, token); err != nil {
		return err
	}

	if m.metrics != nil {
		m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	}
	return nil
}

// HasToken reports whether a token is stored for the account.
func (m *Manager) HasToken(account string) bool {
	_, err := m.store.Get(tokenKey(account))
	return err == nil
}

// DeleteToken removes the stored token for the account.
func (m *Manager) DeleteToken(account string) error {
	if err := m.store.Delete(tokenKey(account)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("no token stored for account %q", account)
		}
		return err
	}
	return nil
}

// TokenSource returns an auto-refreshing token source for the account.
// Rotated tokens are persisted back to the store.
func (m *Manager) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	token, err := m.loadToken(account)
	if err != nil {
		return nil, err
	}

	return &persistingTokenSource{
		manager: m,
		account: account,
		inner:   m.config.TokenSource(ctx, token),
		last:    token,
		ctx:     ctx,
	}, nil
}

// HTTPClient returns an HTTP client authenticated for the account.
// The client forces HTTP/1.1 to avoid HTTP/2 stream errors against the
// Gmail API.
func (m *Manager) HTTPClient(ctx context.Context, account string) (*http.Client, error) {
	ts, err := m.TokenSource(ctx, account)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base: &http.Transport{
				ForceAttemptHTTP2: false,
			},
		},
	}, nil
}

func tokenKey(account string) string {
	if account == "" {
		account = "default"
	}
	return "google-token:" + account
}

func (m *Manager) loadToken(account string) (*oauth2.Token, error) {
	raw, err := m.store.Get(tokenKey(account))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("no token stored for account %q, run 'gmailmcp auth' first", account)
		}
		return nil, fmt.Errorf("failed to load token for account %q: %w", account, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("stored token for account %q is corrupt: %w", account, err)
	}

	return &token, nil
}

func (m *Manager) saveToken(account string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to serialize token: %w", err)
	}
	if err := m.store.Set(tokenKey(account), string(data)); err != nil {
		return fmt.Errorf("failed to store token for account %q: %w", account, err)
	}
	return nil
}

// persistingTokenSource wraps an oauth2.TokenSource and writes refreshed
// tokens back to the store so restarts don't lose rotated refresh tokens.
type persistingTokenSource struct {
	manager *Manager
	account string
	inner   oauth2.TokenSource
	ctx     context.Context

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.inner.Token()
	if err != nil {
		if s.manager.metrics != nil {
			s.manager.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultFailure)
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil || token.AccessToken != s.last.AccessToken {
		if err := s.manager.saveToken(s.account, token); err != nil {
			// The refreshed token is still usable for this process.
			slog.Warn("failed to persist refreshed token", "account", s.account, "error", err)
			return token, nil
		}
		if s.manager.metrics != nil {
			s.manager.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultSuccess)
		}
		s.last = token
	}

	return token, nil
}
