// Package mcp provides an MCP (Model Context Protocol) server exposing the
// jitter analysis to agent clients.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/rbmjitter/internal/config"
	"github.com/nvandessel/rbmjitter/internal/logging"
	"github.com/nvandessel/rbmjitter/internal/ratelimit"
	"github.com/nvandessel/rbmjitter/internal/store"
)

// Server wraps the MCP SDK server and the run store it records into.
type Server struct {
	server   *sdk.Server
	store    store.RunStore
	root     string
	defaults *config.JitterConfig
	limits   ratelimit.Tools
	logger   *slog.Logger
	trace    *logging.StageLogger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "rbmjitter")
	Version string // Server version
	Root    string // Project root directory

	// Defaults fill in tool arguments the client leaves empty.
	// Nil means config.Default().
	Defaults *config.JitterConfig

	// Store overrides the run store. Nil opens <Root>/.rbmjitter/runs.db.
	Store store.RunStore

	// Limits overrides the per-tool rate limits. Nil means ratelimit.NewTools().
	Limits ratelimit.Tools

	Logger *slog.Logger
	Trace  *logging.StageLogger
}

// NewServer creates a new MCP server with the jitter tools registered.
func NewServer(cfg *Config) (*Server, error) {
	runStore := cfg.Store
	if runStore == nil {
		sqliteStore, err := store.NewSQLiteRunStore(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to open run store: %w", err)
		}
		runStore = sqliteStore
	}

	defaults := cfg.Defaults
	if defaults == nil {
		defaults = config.Default()
	}
	limits := cfg.Limits
	if limits == nil {
		limits = ratelimit.NewTools()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server:   mcpServer,
		store:    runStore,
		root:     cfg.Root,
		defaults: defaults,
		limits:   limits,
		logger:   logger,
		trace:    cfg.Trace,
	}
	s.registerTools()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			s.logger.Info("shutting down on signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.store.Close()
	return err
}

// Close closes the server and releases resources.
func (s *Server) Close() error {
	return s.store.Close()
}
