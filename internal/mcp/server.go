// Package mcp exposes the wizard's validators and the interactive wizard as
// MCP tools.
package mcp

import (
	"log/slog"

	"github.com/acolita/ddns-setup/internal/config"
	"github.com/acolita/ddns-setup/internal/setup"
	"github.com/mark3labs/mcp-go/server"
)

// wizardRunner is the part of setup.Runner the wizard tool needs.
type wizardRunner interface {
	Run(remember bool) (setup.Result, error)
}

// Server wraps the MCP server implementation.
type Server struct {
	mcpServer *server.MCPServer
	config    *config.Config
	runner    wizardRunner
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRunner sets the runner used by the wizard tool. Without one the tool
// reports that the wizard is unavailable.
func WithRunner(r wizardRunner) ServerOption {
	return func(s *Server) {
		s.runner = r
	}
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg *config.Config, version string, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := &Server{
		mcpServer: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
			server.WithLogging(),
		),
		config: cfg,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio transport.
func (s *Server) Run() error {
	slog.Info("starting MCP server on stdio transport")
	return server.ServeStdio(s.mcpServer)
}
