package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mwagner/gmailmcp/internal/gmail"
	"github.com/mwagner/gmailmcp/internal/google"
	"github.com/mwagner/gmailmcp/internal/instrumentation"
)

// ServerContext holds the shared state for the MCP server: the
// cancellable run context, the auth manager and lazily created
// per-account Gmail clients.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	auth         *google.Manager
	gmailClients map[string]*gmail.Client

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context. Gmail clients are
// created on first use per account, so a missing token only surfaces
// when a tool actually needs that account.
func NewServerContext(ctx context.Context, auth *google.Manager) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		auth:         auth,
		gmailClients: make(map[string]*gmail.Client),
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// SetMetrics attaches a metrics recorder, propagated to new Gmail clients.
func (sc *ServerContext) SetMetrics(metrics *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger attaches an audit logger for tool invocations.
func (sc *ServerContext) SetAuditLogger(logger *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = logger
}

// AuditLogger returns the audit logger, or nil when not configured.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// GmailClientForAccount returns the Gmail client for a specific account,
// creating and caching it on first use.
func (sc *ServerContext) GmailClientForAccount(account string) (*gmail.Client, error) {
	if account == "" {
		account = "default"
	}

	sc.mu.RLock()
	client, ok := sc.gmailClients[account]
	sc.mu.RUnlock()
	if ok {
		return client, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Another caller may have created the client while we upgraded the lock.
	if client, ok := sc.gmailClients[account]; ok {
		return client, nil
	}

	if sc.auth == nil {
		return nil, fmt.Errorf("no auth manager configured")
	}
	if !sc.auth.HasToken(account) {
		return nil, fmt.Errorf("no Google account %q configured, run 'gmailmcp auth --account %s' first", account, account)
	}

	httpClient, err := sc.auth.HTTPClient(sc.ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate account %q: %w", account, err)
	}

	client, err = gmail.NewClient(sc.ctx, httpClient, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail client for account %q: %w", account, err)
	}

	if sc.metrics != nil {
		client.SetMetrics(sc.metrics)
	}

	sc.gmailClients[account] = client
	slog.Debug("created Gmail client", "account", account)
	return client, nil
}

// GmailClient returns the Gmail client for the default account.
func (sc *ServerContext) GmailClient() (*gmail.Client, error) {
	return sc.GmailClientForAccount("default")
}

// SetGmailClientForAccount sets the Gmail client for a specific account.
// Used by tests to inject fakes.
func (sc *ServerContext) SetGmailClientForAccount(account string, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClients[account] = client
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
