// ABOUTME: Wires configuration into the running gateway: provider clients,
// ABOUTME: tool pack, dispatcher, audit store, MCP server, and HTTP serving.

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/kyc-gateway/internal/config"
	"github.com/2389/kyc-gateway/internal/credential"
	"github.com/2389/kyc-gateway/internal/docanalysis"
	"github.com/2389/kyc-gateway/internal/gleif"
	"github.com/2389/kyc-gateway/internal/kyctools"
	"github.com/2389/kyc-gateway/internal/mcp"
	"github.com/2389/kyc-gateway/internal/poll"
	"github.com/2389/kyc-gateway/internal/records"
	"github.com/2389/kyc-gateway/internal/screening"
	"github.com/2389/kyc-gateway/internal/store"
	"github.com/2389/kyc-gateway/internal/tools"
	"github.com/2389/kyc-gateway/internal/upstream"
)

// Version is stamped by the build and surfaced in serverInfo and /health.
var Version = "dev"

// Gateway owns the assembled components and the HTTP server.
type Gateway struct {
	config     *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	mcpServer  *mcp.Server
	audit      *store.AuditStore // nil when auditing is disabled
	startedAt  time.Time
}

// New assembles a Gateway from configuration. The returned Gateway is not
// serving yet; call Run.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpc := upstream.NewClient(cfg.Providers.Timeout, logger)

	creds := credential.NewCache(credential.Config{
		TokenURL:     cfg.Providers.Records.TokenURL,
		ClientID:     cfg.Providers.Records.ClientID,
		ClientSecret: cfg.Providers.Records.ClientSecret,
		Scope:        cfg.Providers.Records.Scope,
		HTTP:         httpc,
		Logger:       logger,
	})

	poller := poll.New(logger)
	if cfg.Polling.Interval > 0 {
		poller.Interval = cfg.Polling.Interval
	}
	if cfg.Polling.MaxAttempts > 0 {
		poller.MaxAttempts = cfg.Polling.MaxAttempts
	}

	deps := kyctools.Deps{
		Records:   records.NewClient(cfg.Providers.Records.BaseURL, httpc, creds, logger),
		Documents: docanalysis.NewClient(cfg.Providers.Documents.BaseURL, cfg.Providers.Documents.APIKey, httpc, logger),
		Poller:    poller,
		Logger:    logger,
	}
	if cfg.Providers.Registry.BaseURL != "" {
		deps.Registry = gleif.NewClient(cfg.Providers.Registry.BaseURL, httpc, logger)
	}
	if cfg.Providers.Screening.BaseURL != "" {
		deps.Screening = screening.NewClient(cfg.Providers.Screening.BaseURL, cfg.Providers.Screening.APIKey, httpc, logger)
	}

	registry := tools.NewRegistry(logger)
	if err := kyctools.Register(registry, deps); err != nil {
		return nil, fmt.Errorf("registering tool pack: %w", err)
	}

	var audit *store.AuditStore
	var recorder tools.Recorder
	if cfg.Audit.Enabled {
		var err error
		audit, err = store.Open(cfg.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("opening audit store: %w", err)
		}
		recorder = audit
	}

	dispatcher := tools.NewDispatcher(tools.DispatcherConfig{
		Registry: registry,
		Recorder: recorder,
		Logger:   logger,
	})

	mcpServer, err := mcp.NewServer(mcp.Config{
		Dispatcher:    dispatcher,
		Logger:        logger,
		SharedSecret:  cfg.Auth.SharedSecret,
		ServerName:    "kyc-gateway",
		ServerVersion: Version,
	})
	if err != nil {
		return nil, fmt.Errorf("creating mcp server: %w", err)
	}

	if cfg.Auth.SharedSecret == "" {
		logger.Warn("no shared secret configured: the MCP endpoint is UNAUTHENTICATED")
	}

	g := &Gateway{
		config:    cfg,
		logger:    logger,
		mcpServer: mcpServer,
		audit:     audit,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mcpServer.RegisterRoutes(mux)
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/health/ready", g.handleReady)

	g.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the HTTP server, terminates MCP sessions, and closes the
// audit store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mcpServer.Shutdown()

	err := g.httpServer.Shutdown(ctx)

	if g.audit != nil {
		if closeErr := g.audit.Close(); closeErr != nil {
			g.logger.Warn("closing audit store", "error", closeErr)
		}
	}

	if err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	g.logger.Info("gateway stopped")
	return nil
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": Version,
		"uptime":  time.Since(g.startedAt).Round(time.Second).String(),
	})
}

func (g *Gateway) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ready",
		"sessions": g.mcpServer.SessionCount(),
		"audit":    g.audit != nil,
	})
}
