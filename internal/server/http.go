package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwagner/gmailmcp/internal/instrumentation"
)

const (
	// DefaultHTTPAddr is the default address for the MCP HTTP server.
	DefaultHTTPAddr = ":8080"

	// MCPEndpointPath is the path the streamable HTTP transport is served on.
	MCPEndpointPath = "/mcp"

	httpReadHeaderTimeout = 10 * time.Second
	httpIdleTimeout       = 120 * time.Second
)

// HTTPServerConfig holds configuration for the MCP HTTP server.
type HTTPServerConfig struct {
	// Addr is the address to bind to (e.g., ":8080").
	Addr string

	// AuthToken, when set, requires clients to present it as a bearer
	// token on the MCP endpoint. Health endpoints stay unauthenticated.
	AuthToken string

	// DisableStreaming disables streaming responses for compatibility
	// with clients that cannot handle chunked responses.
	DisableStreaming bool

	// Metrics records HTTP request metrics when set.
	Metrics *instrumentation.Metrics

	// Health registers liveness and readiness endpoints when set.
	Health *HealthChecker
}

// HTTPServer serves the MCP protocol over streamable HTTP. The MCP
// endpoint is protected by bearer-token authentication when a token
// is configured; health endpoints are always open.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	httpServer *http.Server
	config     HTTPServerConfig
}

// NewHTTPServer creates a new MCP HTTP server.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, config HTTPServerConfig) *HTTPServer {
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}

	if config.AuthToken == "" {
		slog.Warn("no HTTP auth token configured, the MCP endpoint will accept unauthenticated requests")
	}

	return &HTTPServer{
		mcpServer: mcpSrv,
		config:    config,
	}
}

// Start starts the HTTP server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *HTTPServer) Start() error {
	mux := http.NewServeMux()

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(MCPEndpointPath),
	}
	if s.config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer, opts...)

	var handler http.Handler = streamable
	handler = s.metricsMiddleware(handler)
	handler = s.authMiddleware(handler)
	mux.Handle(MCPEndpointPath, handler)

	if s.config.Health != nil {
		s.config.Health.RegisterHealthEndpoints(mux)
	}

	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           mux,
		ReadHeaderTimeout: httpReadHeaderTimeout,
		IdleTimeout:       httpIdleTimeout,
	}
	// Streaming responses hold the connection open, so a write timeout
	// is only safe when streaming is disabled.
	if s.config.DisableStreaming {
		s.httpServer.WriteTimeout = httpReadHeaderTimeout
	}

	slog.Info("starting MCP HTTP server", "addr", s.config.Addr, "endpoint", MCPEndpointPath)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		slog.Info("shutting down MCP HTTP server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the HTTP server.
func (s *HTTPServer) Addr() string {
	return s.config.Addr
}

// authMiddleware enforces bearer-token authentication on the MCP
// endpoint. With no token configured it passes requests through.
func (s *HTTPServer) authMiddleware(next http.Handler) http.Handler {
	if s.config.AuthToken == "" {
		return next
	}

	expected := []byte(s.config.AuthToken)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the bearer token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	return auth[len(prefix):], true
}

// metricsMiddleware records request count and duration for the MCP endpoint.
func (s *HTTPServer) metricsMiddleware(next http.Handler) http.Handler {
	if s.config.Metrics == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.config.Metrics.RecordHTTPRequest(r.Context(), r.Method, MCPEndpointPath, recorder.status, time.Since(start))
	})
}

// statusRecorder captures the response status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(b)
}

// Flush forwards to the underlying writer so streaming responses work
// through the middleware.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
