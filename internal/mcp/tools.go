package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/gikai/internal/model"
)

func (s *Server) registerTools() {
	// gikai_debate — run a full parliamentary debate over one idea.
	s.mcpServer.AddTool(
		mcplib.NewTool("gikai_debate",
			mcplib.WithDescription(`Run a multi-agent parliamentary debate over one candidate idea.

A roster of specialist reviewer agents argues through bounded rounds,
checks for consensus after each round, and resolves through a
reputation-weighted vote. Returns the full result: pass/fail, vote
tallies, consensus level, and the trade-offs extracted from the debate.

Debates cost several generation calls per round; expect seconds to
minutes depending on the provider.`),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("idea_id",
				mcplib.Description("UUID of the idea to debate"),
				mcplib.Required(),
			),
			mcplib.WithString("project_id",
				mcplib.Description("UUID of the project the idea belongs to"),
				mcplib.Required(),
			),
			mcplib.WithString("project_context",
				mcplib.Description("Optional free-form project context included in agent prompts"),
			),
			mcplib.WithNumber("max_rounds",
				mcplib.Description("Override the round cap for this debate"),
				mcplib.Min(1),
				mcplib.Max(10),
			),
		),
		s.handleDebate,
	)

	// gikai_quick_debate — shortened debates over a small idea batch.
	s.mcpServer.AddTool(
		mcplib.NewTool("gikai_quick_debate",
			mcplib.WithDescription(`Debate up to five ideas with shortened rounds and pick the strongest.

Each idea gets an independent two-round debate; the passed result with
the highest consensus level is selected. Use this to triage a backlog
before committing to a full debate.`),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("idea_ids",
				mcplib.Description("Comma-separated idea UUIDs (at most 5)"),
				mcplib.Required(),
			),
			mcplib.WithString("project_id",
				mcplib.Description("UUID of the project the ideas belong to"),
				mcplib.Required(),
			),
			mcplib.WithString("project_context",
				mcplib.Description("Optional free-form project context included in agent prompts"),
			),
		),
		s.handleQuickDebate,
	)

	// gikai_validate — feed human validation back into reputation.
	s.mcpServer.AddTool(
		mcplib.NewTool("gikai_validate",
			mcplib.WithDescription(`Record whether an agent's critique turned out to be right.

This is the reputation feedback loop: validated critiques raise an
agent's score, rejected ones lower its accuracy, and the score weights
that agent's future votes within the project.`),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("agent_kind",
				mcplib.Description("Agent kind from the catalog (e.g. bug-hunter, security-protector)"),
				mcplib.Required(),
			),
			mcplib.WithString("project_id",
				mcplib.Description("UUID of the project the critique was made in"),
				mcplib.Required(),
			),
			mcplib.WithBoolean("validated",
				mcplib.Description("true if the critique was validated, false if rejected"),
				mcplib.Required(),
			),
		),
		s.handleValidate,
	)

	// gikai_reputation — inspect per-project agent reputations.
	s.mcpServer.AddTool(
		mcplib.NewTool("gikai_reputation",
			mcplib.WithDescription(`List agent reputations for a project.

Returns accuracy statistics and the derived 0-100 score per agent kind.
Agents with no validation history are absent and vote at full weight.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("project_id",
				mcplib.Description("UUID of the project"),
				mcplib.Required(),
			),
		),
		s.handleReputation,
	)
}

func (s *Server) handleDebate(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ideaID, err := uuid.Parse(request.GetString("idea_id", ""))
	if err != nil {
		return errorResult("idea_id must be a valid UUID"), nil
	}
	projectID, err := uuid.Parse(request.GetString("project_id", ""))
	if err != nil {
		return errorResult("project_id must be a valid UUID"), nil
	}
	projectContext := request.GetString("project_context", "")

	var cfg *model.DebateConfig
	if maxRounds := request.GetInt("max_rounds", 0); maxRounds > 0 {
		c := model.DefaultDebateConfig()
		c.MaxRounds = maxRounds
		cfg = &c
	}

	result, err := s.evaluator.RunDebate(ctx, ideaID, projectID, projectContext, cfg)
	if err != nil {
		return errorResult(fmt.Sprintf("debate failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (s *Server) handleQuickDebate(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	raw := request.GetString("idea_ids", "")
	if raw == "" {
		return errorResult("idea_ids is required"), nil
	}
	var ideaIDs []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return errorResult(fmt.Sprintf("invalid idea id %q", part)), nil
		}
		ideaIDs = append(ideaIDs, id)
	}
	projectID, err := uuid.Parse(request.GetString("project_id", ""))
	if err != nil {
		return errorResult("project_id must be a valid UUID"), nil
	}

	result, err := s.evaluator.RunQuickDebate(ctx, ideaIDs, projectID, request.GetString("project_context", ""))
	if err != nil {
		return errorResult(fmt.Sprintf("quick debate failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (s *Server) handleValidate(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	kind := model.AgentKind(request.GetString("agent_kind", ""))
	if !model.ValidAgentKind(kind) {
		return errorResult(fmt.Sprintf("agent_kind %q is not in the catalog", kind)), nil
	}
	projectID, err := uuid.Parse(request.GetString("project_id", ""))
	if err != nil {
		return errorResult("project_id must be a valid UUID"), nil
	}
	validated := request.GetBool("validated", false)

	rep, err := s.evaluator.RecordValidation(ctx, kind, projectID, validated)
	if err != nil {
		return errorResult(fmt.Sprintf("validation failed: %v", err)), nil
	}
	return jsonResult(rep)
}

func (s *Server) handleReputation(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	projectID, err := uuid.Parse(request.GetString("project_id", ""))
	if err != nil {
		return errorResult("project_id must be a valid UUID"), nil
	}

	reps, err := s.reputations.ListReputations(ctx, projectID)
	if err != nil {
		return errorResult(fmt.Sprintf("listing reputations failed: %v", err)), nil
	}
	return jsonResult(reps)
}

func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
