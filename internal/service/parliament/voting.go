package parliament

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ashita-ai/gikai/internal/model"
	"github.com/ashita-ai/gikai/internal/service/generation"
)

// runVote runs one reputation-weighted ballot per roster agent.
//
// Ballots are independent, so they fan out across goroutines with a
// semaphore capping concurrent generation calls. Aggregation waits for
// every ballot (a full join); a failed or unparseable ballot becomes an
// abstention, never an aborted vote.
func (e *Engine) runVote(ctx context.Context, session *model.DebateSession, roster Roster, idea model.Idea) model.ParliamentaryVote {
	ctx, span := tracer.Start(ctx, "parliament.vote")
	defer span.End()

	reputations, err := e.store.ListReputations(ctx, session.ProjectID)
	if err != nil {
		e.logger.Warn("loading reputations failed, voting at full weight",
			slog.String("session_id", session.ID.String()),
			slog.String("error", err.Error()))
		reputations = nil
	}

	summary := debateSummary(session.Rounds)
	prompt := votePrompt(idea, summary, session.TradeOffs)

	ballots := make([]model.AgentVote, len(roster.Agents))
	var tokens atomic.Int64
	sem := semaphore.NewWeighted(int64(e.voteFanOut))
	g, gctx := errgroup.WithContext(ctx)

	for i, kind := range roster.Agents {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				ballots[i] = abstention(kind, reputations)
				return nil
			}
			defer sem.Release(1)
			ballots[i] = e.castBallot(gctx, session.ID, kind, prompt, reputations, &tokens)
			return nil
		})
	}
	// Ballot goroutines never return errors; Wait is the join barrier.
	_ = g.Wait()

	session.TokensUsed += int(tokens.Load())
	return model.TallyVotes(ballots)
}

func (e *Engine) castBallot(ctx context.Context, sessionID uuid.UUID, kind model.AgentKind, prompt string, reputations map[model.AgentKind]model.AgentReputation, tokens *atomic.Int64) model.AgentVote {
	persona, _ := model.LookupAgent(kind)

	genCtx, cancel := context.WithTimeout(ctx, e.genTimeout)
	defer cancel()

	result, err := e.provider.Generate(genCtx, generation.Request{
		SystemPrompt: systemPrompt(persona, model.RoleVoter),
		Prompt:       prompt,
		Temperature:  voteTemperature,
		MaxTokens:    voteMaxTokens,
	})
	tokens.Add(int64(result.Usage.Total()))
	if err != nil {
		e.logger.Warn("ballot generation failed, recording abstention",
			slog.String("session_id", sessionID.String()),
			slog.String("agent", string(kind)),
			slog.String("error", err.Error()))
		return abstention(kind, reputations)
	}

	parsed, perr := parseVote(result.Text)
	if perr != nil {
		e.logger.Warn("ballot response unparseable, recording abstention",
			slog.String("session_id", sessionID.String()),
			slog.String("agent", string(kind)),
			slog.String("error", perr.Error()))
		return abstention(kind, reputations)
	}

	return model.AgentVote{
		Agent:      kind,
		Choice:     model.BallotChoice(parsed.Vote),
		Reasoning:  parsed.Reasoning,
		Confidence: parsed.Confidence,
		Weight:     ballotWeight(kind, reputations),
	}
}

func abstention(kind model.AgentKind, reputations map[model.AgentKind]model.AgentReputation) model.AgentVote {
	return model.AgentVote{
		Agent:     kind,
		Choice:    model.VoteAbstain,
		Reasoning: "No ballot produced",
		Weight:    ballotWeight(kind, reputations),
	}
}

// ballotWeight is reputation-derived for known agents, bounding them to
// [0.5, 1.0]; agents without history vote at full weight.
func ballotWeight(kind model.AgentKind, reputations map[model.AgentKind]model.AgentReputation) float64 {
	if rep, ok := reputations[kind]; ok {
		return rep.VoteWeight()
	}
	return 1.0
}
