package server

import (
	"context"

	"github.com/auditstack/acp/internal/config"
	"github.com/auditstack/acp/internal/engine"
	"github.com/auditstack/acp/internal/search"
	"github.com/auditstack/acp/internal/tools"
	"github.com/auditstack/acp/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version, Commit, Built are set by ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Built   = "unknown"
)

// Server wraps the MCP server with the audit workflow wiring.
type Server struct {
	server *mcp.Server
	coord  *workflow.Coordinator
	index  *search.Index
	cfg    config.Config
}

// New creates an ACP MCP server with all tools registered. The client is
// the assessment engine the session negotiates with.
func New(client engine.Client, cfg config.Config) *Server {
	srv := mcp.NewServer(
		&mcp.Implementation{Name: "acp", Version: Version},
		&mcp.ServerOptions{Instructions: Instructions},
	)

	s := &Server{
		server: srv,
		coord:  workflow.NewCoordinator(client, cfg.Engine.Model),
		index:  search.NewIndex(),
		cfg:    cfg,
	}

	s.registerTools()
	s.registerResources()
	return s
}

func (s *Server) registerTools() {
	tools.RegisterWorkflow(s.server, s.coord, s.cfg)
	tools.RegisterChecklist(s.server, s.coord)
	tools.RegisterSearch(s.server, s.coord, s.index)
}

// Run starts the MCP server on stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server (for testing).
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
