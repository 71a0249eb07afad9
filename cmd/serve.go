package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwagner/gmailmcp/internal/google"
	"github.com/mwagner/gmailmcp/internal/instrumentation"
	"github.com/mwagner/gmailmcp/internal/logging"
	"github.com/mwagner/gmailmcp/internal/server"
	"github.com/mwagner/gmailmcp/internal/tools/gmail_tools"
)

// serveOptions holds the resolved configuration for the serve command.
type serveOptions struct {
	Debug              bool
	Transport          string
	HTTPAddr           string
	HTTPAuthToken      string
	Yolo               bool
	GoogleClientID     string
	GoogleClientSecret string
	DisableStreaming   bool
	MetricsEnabled     bool
	MetricsAddr        string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing Gmail tools
for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp

Safety Mode:
  By default, the server operates in read-only mode, providing only safe
  operations. Use --yolo to enable write operations (drafting, sending,
  labeling, trashing). Sending and trashing additionally require
  confirm=true on each tool call.

Authentication:
  Gmail accounts are authorized ahead of time with 'gmailmcp auth'.
  Client credentials come from --google-client-id/--google-client-secret
  or the GMAILMCP_GOOGLE_CLIENT_ID and GMAILMCP_GOOGLE_CLIENT_SECRET
  environment variables.

  For the HTTP transport, --http-auth-token (or GMAILMCP_HTTP_AUTH_TOKEN)
  sets a bearer token clients must present on /mcp.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.Transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.HTTPAddr, "http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.HTTPAuthToken, "http-auth-token", "", "Bearer token required on the MCP HTTP endpoint. Can also use GMAILMCP_HTTP_AUTH_TOKEN env var.")
	cmd.Flags().BoolVar(&opts.Yolo, "yolo", false, "Enable write operations (drafting, sending, labeling, trashing). Default is read-only mode.")
	cmd.Flags().StringVar(&opts.GoogleClientID, "google-client-id", "", "Google OAuth client ID. Can also use GMAILMCP_GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.GoogleClientSecret, "google-client-secret", "", "Google OAuth client secret. Can also use GMAILMCP_GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().BoolVar(&opts.DisableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.MetricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(opts serveOptions) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// On stdio the protocol owns stdout, so all logging goes to stderr.
	logging.Setup(os.Stderr, opts.Debug)

	// Environment fallbacks for settings not given as flags.
	if opts.HTTPAuthToken == "" {
		opts.HTTPAuthToken = os.Getenv("GMAILMCP_HTTP_AUTH_TOKEN")
	}
	if os.Getenv("METRICS_ENABLED") == "false" {
		opts.MetricsEnabled = false
	}
	if opts.MetricsAddr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			opts.MetricsAddr = addr
		}
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	// The metrics listener is pointless on stdio, which serves a single
	// local client.
	var metricsServer *server.MetricsServer
	if opts.Transport != "stdio" && opts.MetricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.MetricsAddr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			slog.Info("metrics server started", "addr", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	// A missing OAuth client configuration is not fatal for serve: the
	// server starts and every tool call reports what to configure.
	auth := newAuthManager(opts.GoogleClientID, opts.GoogleClientSecret)

	serverContext := server.NewServerContext(shutdownCtx, auth)
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(nil, instrConfig.AuditLogging))
		if auth != nil {
			auth.SetMetrics(provider.Metrics())
		}
	}
	defer func() {
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				slog.Error("error during metrics server shutdown", logging.Err(err))
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			slog.Error("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("gmailmcp", version,
		mcpserver.WithToolCapabilities(true),
	)

	// readOnly is the inverse of yolo
	readOnly := !opts.Yolo
	if readOnly {
		slog.Info("starting server in read-only mode, use --yolo to enable write operations")
	} else {
		slog.Info("starting server with write operations enabled")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	switch opts.Transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, provider, opts)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.Transport)
	}
}

// newAuthManager builds the OAuth manager, or returns nil when client
// credentials are not configured.
func newAuthManager(clientID, clientSecret string) *google.Manager {
	store, err := google.NewTokenStore()
	if err != nil {
		slog.Warn("failed to open token store, Gmail tools will be unavailable", logging.Err(err))
		return nil
	}

	auth, err := google.NewManager(store, clientID, clientSecret)
	if err != nil {
		slog.Warn("OAuth client not configured, Gmail tools will be unavailable", logging.Err(err))
		return nil
	}
	return auth
}

// registerAllTools registers all MCP tools.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := gmail_tools.RegisterGmailTools(mcpSrv, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register Gmail tools: %w", err)
	}
	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	if err := <-serverDone; err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, provider *instrumentation.Provider, opts serveOptions) error {
	healthChecker := server.NewHealthChecker(sc)

	config := server.HTTPServerConfig{
		Addr:             opts.HTTPAddr,
		AuthToken:        opts.HTTPAuthToken,
		DisableStreaming: opts.DisableStreaming,
		Health:           healthChecker,
	}
	if provider.Enabled() {
		config.Metrics = provider.Metrics()
	}

	httpServer := server.NewHTTPServer(mcpSrv, config)

	slog.Info("starting streamable HTTP server",
		"addr", opts.HTTPAddr,
		"endpoint", server.MCPEndpointPath,
		"auth", opts.HTTPAuthToken != "")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	slog.Info("HTTP server stopped")
	return nil
}
