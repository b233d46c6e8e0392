// Package mcpserver exposes CK metrics analysis as Model Context Protocol
// tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/panbanda/oometrics/pkg/config"
)

// Server wraps the MCP server and registers the oometrics tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	logger *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration used by tool handlers.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the logger. Stdout carries the protocol, so loggers must
// write elsewhere.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP server with all tools and prompts registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "oometrics",
			Version: version,
		},
		nil,
	)

	s := &Server{
		server: server,
		config: config.DefaultConfig(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_ck",
		Description: describeCK(),
	}, s.handleAnalyzeCK)
}
