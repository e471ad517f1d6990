// Package mcp implements the Model Context Protocol server for Gikai.
//
// The MCP server exposes the debate engine to MCP-compatible AI agents:
// running debates, recording critique validations, and inspecting agent
// reputations, plus the static agent catalog as a resource.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/gikai/internal/model"
	"github.com/ashita-ai/gikai/internal/service/parliament"
)

// Evaluator runs debates on behalf of MCP tool calls. *parliament.Engine
// is the production implementation.
type Evaluator interface {
	RunDebate(ctx context.Context, ideaID, projectID uuid.UUID, projectContext string, cfg *model.DebateConfig) (parliament.DebateResult, error)
	RunQuickDebate(ctx context.Context, ideaIDs []uuid.UUID, projectID uuid.UUID, projectContext string) (parliament.QuickDebateResult, error)
	RecordValidation(ctx context.Context, kind model.AgentKind, projectID uuid.UUID, validated bool) (model.AgentReputation, error)
}

// ReputationReader lists agent reputations for the reputation tool.
type ReputationReader interface {
	ListReputations(ctx context.Context, projectID uuid.UUID) (map[model.AgentKind]model.AgentReputation, error)
}

// Server wraps the MCP server with Gikai's debate engine.
type Server struct {
	mcpServer   *mcpserver.MCPServer
	evaluator   Evaluator
	reputations ReputationReader
	logger      *slog.Logger
}

// New creates and configures a new MCP server with all resources and tools.
func New(evaluator Evaluator, reputations ReputationReader, logger *slog.Logger) *Server {
	s := &Server{
		evaluator:   evaluator,
		reputations: reputations,
		logger:      logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"gikai",
		"0.1.0",
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func (s *Server) registerResources() {
	// gikai://agents/catalog — the static reviewer catalog.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"gikai://agents/catalog",
			"Agent Catalog",
			mcplib.WithResourceDescription("The fixed catalog of reviewer agents with categories and personas"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleAgentCatalog,
	)
}

func (s *Server) handleAgentCatalog(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	type entry struct {
		Kind     model.AgentKind     `json:"kind"`
		Category model.AgentCategory `json:"category"`
		Persona  string              `json:"persona"`
	}
	entries := make([]entry, 0, len(model.Catalog))
	for _, p := range model.Catalog {
		entries = append(entries, entry{Kind: p.Kind, Category: p.Category, Persona: p.Persona})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal catalog: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
