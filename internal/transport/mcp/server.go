// Package mcp exposes the search API as MCP tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/serverscout/serverscout/internal/domain/query"
	"github.com/serverscout/serverscout/internal/domain/record"
	healthuc "github.com/serverscout/serverscout/internal/usecase/health"
	searchuc "github.com/serverscout/serverscout/internal/usecase/search"
	"github.com/serverscout/serverscout/internal/version"
)

// ServerName is the MCP server name advertised during initialize.
const ServerName = "serverscout"

// Searcher is the consumer contract for the search use case.
type Searcher interface {
	Search(ctx context.Context, q query.Query, opts searchuc.Options) ([]record.Merged, error)
}

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp    *server.MCPServer
	search Searcher
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an MCP server instance over the given use cases.
func NewServer(search Searcher, health *healthuc.Service, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(ServerName, version.Version)

	s := &Server{
		mcp:    mcpServer,
		search: search,
		health: health,
		logger: logger,
	}
	s.registerTools()

	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(_ context.Context) error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchServersTool(), s.handleSearchServers)
	s.mcp.AddTool(healthStatusTool(), s.handleHealthStatus)
}
