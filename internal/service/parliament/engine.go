// Package parliament implements the multi-agent debate and
// parliamentary-voting engine.
//
// A debate takes one candidate idea, assembles a deterministic roster of
// reviewer agents, runs bounded argumentation rounds with a consensus
// check after each, extracts trade-offs from the transcript, and
// resolves through a reputation-weighted vote. Generation failures
// degrade to deterministic defaults; only storage failures are fatal to
// an evaluation.
package parliament

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ashita-ai/gikai/internal/model"
	"github.com/ashita-ai/gikai/internal/service/generation"
)

var tracer = otel.Tracer("gikai/parliament")

// Generation parameters per call kind. Debate turns run warm and long;
// votes and consensus checks run cool and short for more deterministic
// output.
const (
	turnTemperature      = 0.7
	turnMaxTokens        = 800
	voteTemperature      = 0.2
	voteMaxTokens        = 300
	consensusTemperature = 0.1
	consensusMaxTokens   = 400

	defaultGenerationTimeout = 45 * time.Second
	defaultVoteFanOut        = 3

	// quickDebateMaxRounds shortens each debate in a quick-debate batch.
	quickDebateMaxRounds = 2
)

// errorReasoning is the fixed reasoning string on evaluation-level
// failures.
const errorReasoning = "Error during parliament evaluation"

// Store is the persistence surface the engine needs. *storage.DB
// satisfies it; tests substitute fakes.
type Store interface {
	GetIdea(ctx context.Context, ideaID uuid.UUID) (model.Idea, error)
	MarkIdeaSelected(ctx context.Context, ideaID uuid.UUID) error
	ListGoals(ctx context.Context, projectID uuid.UUID) ([]model.Goal, error)
	ListContexts(ctx context.Context, projectID uuid.UUID) ([]model.ContextEntry, error)
	SaveSession(ctx context.Context, s model.DebateSession) error
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	HasActiveDebate(ctx context.Context, projectID, ideaID uuid.UUID) (bool, error)
	ListReputations(ctx context.Context, projectID uuid.UUID) (map[model.AgentKind]model.AgentReputation, error)
	RecordValidation(ctx context.Context, kind model.AgentKind, projectID uuid.UUID, validated bool) (model.AgentReputation, error)
}

// Config tunes an Engine beyond the per-debate bounds.
type Config struct {
	Debate            model.DebateConfig
	GenerationTimeout time.Duration
	VoteFanOut        int
}

// Engine orchestrates debates. One Engine serves all projects; each
// debate is an independent, single-threaded state machine, so concurrent
// RunDebate calls for different ideas are safe.
type Engine struct {
	store      Store
	provider   generation.Provider
	logger     *slog.Logger
	config     model.DebateConfig
	genTimeout time.Duration
	voteFanOut int
}

// NewEngine creates a debate engine. Zero-valued config fields fall back
// to defaults.
func NewEngine(store Store, provider generation.Provider, logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debate == (model.DebateConfig{}) {
		cfg.Debate = model.DefaultDebateConfig()
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}
	if cfg.VoteFanOut <= 0 {
		cfg.VoteFanOut = defaultVoteFanOut
	}
	return &Engine{
		store:      store,
		provider:   provider,
		logger:     logger,
		config:     cfg.Debate,
		genTimeout: cfg.GenerationTimeout,
		voteFanOut: cfg.VoteFanOut,
	}
}

// DebateResult is the evaluation outcome returned to callers. On
// evaluation-level failure it still describes the failure (Error set,
// SelectedIdeaID nil) rather than being empty.
type DebateResult struct {
	SessionID      uuid.UUID                `json:"session_id"`
	IdeaID         uuid.UUID                `json:"idea_id"`
	SelectedIdeaID *uuid.UUID               `json:"selected_idea_id"`
	Passed         bool                     `json:"passed"`
	Reasoning      string                   `json:"reasoning"`
	ConsensusLevel float64                  `json:"consensus_level"`
	Vote           *model.ParliamentaryVote `json:"vote,omitempty"`
	TradeOffs      []model.TradeOffAnalysis `json:"trade_offs"`
	Rounds         int                      `json:"rounds"`
	TokensUsed     int                      `json:"tokens_used"`
	Error          string                   `json:"error,omitempty"`
}

// QuickDebateResult is the outcome of a quick-debate batch.
type QuickDebateResult struct {
	SelectedIdeaID *uuid.UUID     `json:"selected_idea_id"`
	Results        []DebateResult `json:"results"`
}

// RunDebate evaluates one idea through a full debate. The returned
// result always describes the outcome; err is non-nil only for
// evaluation-level failures (unknown idea, concurrent debate over the
// same idea, storage errors), and the result then carries the same
// failure in structured form.
func (e *Engine) RunDebate(ctx context.Context, ideaID, projectID uuid.UUID, projectContext string, override *model.DebateConfig) (DebateResult, error) {
	cfg := e.config
	if override != nil {
		cfg = *override
	}
	if err := cfg.Validate(); err != nil {
		return errorResult(ideaID, err), err
	}

	idea, err := e.store.GetIdea(ctx, ideaID)
	if err != nil {
		err = fmt.Errorf("parliament: load idea %s: %w", ideaID, err)
		return errorResult(ideaID, err), err
	}
	if idea.ProjectID != projectID {
		err = fmt.Errorf("parliament: idea %s does not belong to project %s", ideaID, projectID)
		return errorResult(ideaID, err), err
	}
	if err := model.ValidateIdea(idea); err != nil {
		err = fmt.Errorf("parliament: invalid idea: %w", err)
		return errorResult(ideaID, err), err
	}

	active, err := e.store.HasActiveDebate(ctx, projectID, ideaID)
	if err != nil {
		err = fmt.Errorf("parliament: check active debates: %w", err)
		return errorResult(ideaID, err), err
	}
	if active {
		err = fmt.Errorf("parliament: debate already running for idea %s", ideaID)
		return errorResult(ideaID, err), err
	}

	return e.runDebate(ctx, idea, projectID, projectContext, cfg)
}

// RunQuickDebate debates each idea independently with shortened rounds
// and selects the passed result with the highest consensus level. Ideas
// run sequentially to bound concurrent generation load; a failed debate
// contributes an error result without aborting the batch.
func (e *Engine) RunQuickDebate(ctx context.Context, ideaIDs []uuid.UUID, projectID uuid.UUID, projectContext string) (QuickDebateResult, error) {
	if len(ideaIDs) == 0 {
		return QuickDebateResult{}, errors.New("parliament: no ideas to debate")
	}
	if len(ideaIDs) > model.MaxQuickDebateIdeas {
		return QuickDebateResult{}, fmt.Errorf("parliament: at most %d ideas per quick debate, got %d", model.MaxQuickDebateIdeas, len(ideaIDs))
	}

	cfg := e.config
	cfg.MaxRounds = quickDebateMaxRounds

	out := QuickDebateResult{Results: make([]DebateResult, 0, len(ideaIDs))}
	for _, id := range ideaIDs {
		res, err := e.RunDebate(ctx, id, projectID, projectContext, &cfg)
		if err != nil {
			e.logger.Warn("quick debate item failed",
				slog.String("idea_id", id.String()),
				slog.String("error", err.Error()))
		}
		out.Results = append(out.Results, res)
	}

	best := -1
	for i, r := range out.Results {
		if !r.Passed {
			continue
		}
		if best < 0 || r.ConsensusLevel > out.Results[best].ConsensusLevel {
			best = i
		}
	}
	if best >= 0 {
		id := out.Results[best].IdeaID
		out.SelectedIdeaID = &id
	}
	return out, nil
}

// RecordValidation applies one human validation event to an agent's
// reputation. The storage layer serializes concurrent updates per
// (agent kind, project) key.
func (e *Engine) RecordValidation(ctx context.Context, kind model.AgentKind, projectID uuid.UUID, validated bool) (model.AgentReputation, error) {
	if !model.ValidAgentKind(kind) {
		return model.AgentReputation{}, fmt.Errorf("parliament: agent kind %q is not in the catalog", kind)
	}
	rep, err := e.store.RecordValidation(ctx, kind, projectID, validated)
	if err != nil {
		return model.AgentReputation{}, fmt.Errorf("parliament: record validation: %w", err)
	}
	e.logger.Info("critique validation recorded",
		slog.String("agent", string(kind)),
		slog.String("project_id", projectID.String()),
		slog.Bool("validated", validated),
		slog.Int("score", rep.Score))
	return rep, nil
}

func (e *Engine) runDebate(ctx context.Context, idea model.Idea, projectID uuid.UUID, projectContext string, cfg model.DebateConfig) (DebateResult, error) {
	ctx, span := tracer.Start(ctx, "parliament.debate")
	defer span.End()
	span.SetAttributes(
		attribute.String("idea_id", idea.ID.String()),
		attribute.String("project_id", projectID.String()),
	)

	roster := SelectAgents(idea, cfg)

	session := model.DebateSession{
		ID:          uuid.New(),
		ProjectID:   projectID,
		IdeaID:      idea.ID,
		Status:      model.SessionPending,
		Config:      cfg,
		AgentStates: make(map[model.AgentKind]*model.AgentDebateState, len(roster.Agents)),
		StartedAt:   time.Now().UTC(),
	}
	for _, kind := range roster.Agents {
		session.AgentStates[kind] = &model.AgentDebateState{
			Kind: kind,
			Role: roster.Roles[kind],
		}
	}

	// The pending marker is what HasActiveDebate sees: it keeps a second
	// debate over the same idea out until the terminal snapshot replaces it.
	if err := e.store.SaveSession(ctx, session); err != nil {
		err = fmt.Errorf("parliament: reserve session: %w", err)
		return errorResult(idea.ID, err), err
	}

	e.logger.Info("debate started",
		slog.String("session_id", session.ID.String()),
		slog.String("idea_id", idea.ID.String()),
		slog.String("project_id", projectID.String()),
		slog.Int("roster_size", len(roster.Agents)),
		slog.String("proposer", string(roster.Proposer())))

	fullContext := e.composeProjectContext(ctx, projectID, projectContext)

	for r := 1; r <= cfg.MaxRounds; r++ {
		next := model.SessionChallenging
		if r == 1 {
			next = model.SessionProposing
		}
		if err := session.Advance(next); err != nil {
			e.abandonSession(ctx, session.ID)
			return errorResult(idea.ID, err), err
		}

		round := e.runRound(ctx, &session, roster, idea, fullContext, r)
		session.Rounds = append(session.Rounds, round)
		if round.Outcome != model.OutcomeOngoing {
			break
		}
	}

	session.TradeOffs = ExtractTradeOffs(session.Transcript())

	if err := session.Advance(model.SessionVoting); err != nil {
		e.abandonSession(ctx, session.ID)
		return errorResult(idea.ID, err), err
	}
	vote := e.runVote(ctx, &session, roster, idea)
	session.Vote = &vote

	if vote.Passed {
		id := idea.ID
		session.SelectedIdeaID = &id
	}

	// Terminal consensus status is earned by the vote's support ratio,
	// not the round-level consensus flag.
	final := model.SessionCompleted
	if float64(vote.SupportCount)/float64(len(roster.Agents)) >= cfg.ConsensusThreshold {
		final = model.SessionConsensus
	}
	if err := session.Advance(final); err != nil {
		e.abandonSession(ctx, session.ID)
		return errorResult(idea.ID, err), err
	}
	now := time.Now().UTC()
	session.CompletedAt = &now

	if vote.Passed {
		if err := e.store.MarkIdeaSelected(ctx, idea.ID); err != nil {
			err = fmt.Errorf("parliament: mark idea selected: %w", err)
			e.abandonSession(ctx, session.ID)
			return errorResult(idea.ID, err), err
		}
	}
	if err := e.store.SaveSession(ctx, session); err != nil {
		err = fmt.Errorf("parliament: save session: %w", err)
		e.abandonSession(ctx, session.ID)
		return errorResult(idea.ID, err), err
	}

	e.logger.Info("debate completed",
		slog.String("session_id", session.ID.String()),
		slog.String("status", string(session.Status)),
		slog.Int("rounds", len(session.Rounds)),
		slog.Bool("passed", vote.Passed),
		slog.Float64("margin", vote.Margin),
		slog.Int("tokens_used", session.TokensUsed))

	return DebateResult{
		SessionID:      session.ID,
		IdeaID:         idea.ID,
		SelectedIdeaID: session.SelectedIdeaID,
		Passed:         vote.Passed,
		Reasoning:      resultReasoning(vote),
		ConsensusLevel: session.ConsensusLevel,
		Vote:           session.Vote,
		TradeOffs:      session.TradeOffs,
		Rounds:         len(session.Rounds),
		TokensUsed:     session.TokensUsed,
	}, nil
}

// runRound executes one pass through the roster plus the consensus
// check, and returns the closed round.
func (e *Engine) runRound(ctx context.Context, session *model.DebateSession, roster Roster, idea model.Idea, projectContext string, r int) model.DebateRound {
	ctx, span := tracer.Start(ctx, "parliament.round")
	defer span.End()
	span.SetAttributes(attribute.Int("round", r))

	round := model.DebateRound{
		Number:      r,
		Proposer:    roster.Proposer(),
		Challengers: roster.Challengers(),
		Mediator:    roster.Mediator(),
	}

	hasNonVoter := roster.HasNonVoter()
	for _, kind := range roster.Agents {
		role := roster.Roles[kind]
		// Voters contribute only on the final round, so their ballot
		// reflects the full debate. A voter-only roster acts every round.
		if role == model.RoleVoter && r < session.Config.MaxRounds && hasNonVoter {
			continue
		}
		turn := e.runTurn(ctx, session, roster, idea, projectContext, kind, role, r, round.Turns)
		round.Turns = append(round.Turns, turn)
	}

	reached, level, recommendation := e.checkConsensus(ctx, session, roster, idea)
	session.ConsensusLevel = level

	switch {
	case reached:
		round.Outcome = model.OutcomeConsensus
	case r == session.Config.MaxRounds || recommendation == "proceed_to_vote":
		round.Outcome = model.OutcomeVoteRequired
	default:
		round.Outcome = model.OutcomeOngoing
	}
	round.Summary = fmt.Sprintf("%d turns, consensus level %.2f", len(round.Turns), level)
	return round
}

// runTurn executes one agent's contribution. Generation or parse
// failures degrade to a default turn; the round always progresses.
func (e *Engine) runTurn(ctx context.Context, session *model.DebateSession, roster Roster, idea model.Idea, projectContext string, kind model.AgentKind, role model.DebateRole, r int, roundTurns []model.DebateTurn) model.DebateTurn {
	persona, _ := model.LookupAgent(kind)
	transcript := append(session.Transcript(), roundTurns...)

	ctx, span := tracer.Start(ctx, "parliament.turn")
	defer span.End()
	span.SetAttributes(attribute.String("agent", string(kind)))

	genCtx, cancel := context.WithTimeout(ctx, e.genTimeout)
	defer cancel()

	result, err := e.provider.Generate(genCtx, generation.Request{
		SystemPrompt: systemPrompt(persona, role),
		Prompt:       turnPrompt(idea, projectContext, r, transcript, session.AgentStates, kind),
		Temperature:  turnTemperature,
		MaxTokens:    turnMaxTokens,
	})
	session.TokensUsed += result.Usage.Total()

	turn := model.DebateTurn{
		Round:     r,
		Agent:     kind,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	switch {
	case err != nil:
		e.logger.Warn("turn generation failed, using default",
			slog.String("session_id", session.ID.String()),
			slog.String("agent", string(kind)),
			slog.Int("round", r),
			slog.String("error", err.Error()))
		turn.Action = model.DefaultAction(role, r)
		turn.Content = fmt.Sprintf("%s was unable to respond this round.", kind)
		turn.Confidence = 50
	default:
		parsed, perr := parseTurn(result.Text, role, r)
		if perr != nil {
			e.logger.Warn("turn response unparseable, using raw content",
				slog.String("session_id", session.ID.String()),
				slog.String("agent", string(kind)),
				slog.Int("round", r),
				slog.String("error", perr.Error()))
			turn.Action = model.DefaultAction(role, r)
			turn.Content = truncateRaw(result.Text)
			turn.Confidence = 50
		} else {
			turn.Action = model.TurnAction(parsed.Action)
			turn.Content = parsed.Content
			turn.Confidence = parsed.Confidence
			if target := model.AgentKind(parsed.TargetAgent); roster.contains(target) && target != kind {
				turn.TargetAgent = target
				if st := session.AgentStates[target]; st != nil {
					st.Challenged = true
				}
			}
			if parsed.PositionChange {
				session.AgentStates[kind].ChangedPosition = true
			}
		}
	}

	st := session.AgentStates[kind]
	st.Position = turn.Content
	st.Confidence = turn.Confidence
	st.Arguments = append(st.Arguments, turn.Content)
	return turn
}

// checkConsensus runs the round-level agreement check. Fewer than two
// stated positions is trivial consensus; a failed check defaults to
// continuing the debate at level 0.5.
func (e *Engine) checkConsensus(ctx context.Context, session *model.DebateSession, roster Roster, idea model.Idea) (bool, float64, string) {
	positions := 0
	for _, st := range session.AgentStates {
		if st.Position != "" {
			positions++
		}
	}
	if positions < 2 {
		return true, 1.0, ""
	}

	genCtx, cancel := context.WithTimeout(ctx, e.genTimeout)
	defer cancel()

	result, err := e.provider.Generate(genCtx, generation.Request{
		Prompt:      consensusPrompt(idea, session.AgentStates, roster),
		Temperature: consensusTemperature,
		MaxTokens:   consensusMaxTokens,
	})
	session.TokensUsed += result.Usage.Total()
	if err != nil {
		e.logger.Warn("consensus check failed, continuing debate",
			slog.String("session_id", session.ID.String()),
			slog.String("error", err.Error()))
		return false, 0.5, "continue_debate"
	}
	parsed, perr := parseConsensus(result.Text)
	if perr != nil {
		e.logger.Warn("consensus response unparseable, continuing debate",
			slog.String("session_id", session.ID.String()),
			slog.String("error", perr.Error()))
		return false, 0.5, "continue_debate"
	}
	return parsed.ConsensusReached, parsed.ConsensusLevel, parsed.Recommendation
}

// composeProjectContext merges the caller-supplied context with stored
// goals and context entries. Read failures degrade to a thinner prompt,
// never a failed debate.
func (e *Engine) composeProjectContext(ctx context.Context, projectID uuid.UUID, callerContext string) string {
	var b strings.Builder
	if callerContext != "" {
		b.WriteString(callerContext)
		b.WriteString("\n")
	}

	goals, err := e.store.ListGoals(ctx, projectID)
	if err != nil {
		e.logger.Warn("loading goals failed, omitting from prompt context",
			slog.String("project_id", projectID.String()),
			slog.String("error", err.Error()))
	} else if len(goals) > 0 {
		b.WriteString("Project goals:\n")
		for _, g := range goals {
			fmt.Fprintf(&b, "- %s\n", g.Description)
		}
	}

	entries, err := e.store.ListContexts(ctx, projectID)
	if err != nil {
		e.logger.Warn("loading context entries failed, omitting from prompt context",
			slog.String("project_id", projectID.String()),
			slog.String("error", err.Error()))
	} else if len(entries) > 0 {
		b.WriteString("Project notes:\n")
		for _, c := range entries {
			fmt.Fprintf(&b, "- %s\n", c.Content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func resultReasoning(vote model.ParliamentaryVote) string {
	verb := "rejected"
	if vote.Passed {
		verb = "selected"
	}
	return fmt.Sprintf("Parliament %s the idea: %d support, %d oppose, %d abstain (weighted margin %+.2f)",
		verb, vote.SupportCount, vote.OpposeCount, vote.AbstainCount, vote.Margin)
}

// abandonSession deletes the pending marker after a fatal error so the
// failed debate does not keep blocking its idea. Best effort: cleanup
// failure is logged, callers keep the original error. Runs without the
// request's cancellation in case that cancellation caused the failure.
func (e *Engine) abandonSession(ctx context.Context, sessionID uuid.UUID) {
	if err := e.store.DeleteSession(context.WithoutCancel(ctx), sessionID); err != nil {
		e.logger.Warn("abandoned session cleanup failed",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
	}
}

func errorResult(ideaID uuid.UUID, err error) DebateResult {
	return DebateResult{
		IdeaID:    ideaID,
		Reasoning: errorReasoning,
		Error:     err.Error(),
	}
}
