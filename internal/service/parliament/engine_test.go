package parliament_test

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/gikai/internal/model"
	"github.com/ashita-ai/gikai/internal/service/generation"
	"github.com/ashita-ai/gikai/internal/service/parliament"
)

// scriptedProvider answers by prompt kind: turn prompts, consensus
// checks, and vote prompts each get their configured response. Voting
// fans out across goroutines, so responses must not depend on call
// order.
type scriptedProvider struct {
	turnResponse      string
	consensusResponse string
	voteResponse      string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(_ context.Context, req generation.Request) (generation.Result, error) {
	var text string
	switch {
	case strings.Contains(req.Prompt, "Cast your final vote"):
		text = p.voteResponse
	case strings.Contains(req.Prompt, "assessing whether a debate has converged"):
		text = p.consensusResponse
	default:
		text = p.turnResponse
	}
	return generation.Result{
		Text:  text,
		Usage: generation.Usage{PromptTokens: 100, CompletionTokens: 50},
	}, nil
}

// fakeStore mimics the storage layer's session semantics: SaveSession
// upserts by id, and HasActiveDebate reports any stored non-terminal
// snapshot for the idea.
type fakeStore struct {
	mu           sync.Mutex
	ideas        map[uuid.UUID]model.Idea
	sessions     []model.DebateSession
	savedStatus  []model.SessionStatus
	reputations  map[model.AgentKind]model.AgentReputation
	selected     []uuid.UUID
	saveErr      error
	markErr      error
}

func newFakeStore(ideas ...model.Idea) *fakeStore {
	s := &fakeStore{
		ideas:       make(map[uuid.UUID]model.Idea),
		reputations: make(map[model.AgentKind]model.AgentReputation),
	}
	for _, i := range ideas {
		s.ideas[i.ID] = i
	}
	return s
}

func (s *fakeStore) GetIdea(_ context.Context, id uuid.UUID) (model.Idea, error) {
	idea, ok := s.ideas[id]
	if !ok {
		return model.Idea{}, fmt.Errorf("idea %s: not found", id)
	}
	return idea, nil
}

func (s *fakeStore) MarkIdeaSelected(_ context.Context, id uuid.UUID) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = append(s.selected, id)
	return nil
}

func (s *fakeStore) ListGoals(context.Context, uuid.UUID) ([]model.Goal, error) {
	return nil, nil
}

func (s *fakeStore) ListContexts(context.Context, uuid.UUID) ([]model.ContextEntry, error) {
	return nil, nil
}

func (s *fakeStore) SaveSession(_ context.Context, sess model.DebateSession) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedStatus = append(s.savedStatus, sess.Status)
	for i := range s.sessions {
		if s.sessions[i].ID == sess.ID {
			s.sessions[i] = sess
			return nil
		}
	}
	s.sessions = append(s.sessions, sess)
	return nil
}

func (s *fakeStore) DeleteSession(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("session %s: not found", sessionID)
}

func (s *fakeStore) HasActiveDebate(_ context.Context, projectID, ideaID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.ProjectID == projectID && sess.IdeaID == ideaID && !sess.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ListReputations(context.Context, uuid.UUID) (map[model.AgentKind]model.AgentReputation, error) {
	return s.reputations, nil
}

func (s *fakeStore) RecordValidation(_ context.Context, kind model.AgentKind, projectID uuid.UUID, validated bool) (model.AgentReputation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reputations[kind]
	if !ok {
		rep = model.NewAgentReputation(kind, projectID)
	}
	rep.Apply(validated)
	s.reputations[kind] = rep
	return rep, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

const (
	turnJSON     = `{"action": "challenge", "content": "adds latency to the hot path", "confidence": 75, "position_change": false}`
	agreeJSON    = `{"consensus_reached": true, "consensus_level": 0.9, "recommendation": "proceed_to_vote"}`
	disagreeJSON = `{"consensus_reached": false, "consensus_level": 0.4, "recommendation": "continue_debate"}`
	supportJSON  = `{"vote": "support", "reasoning": "worth doing", "confidence": 80}`
	opposeJSON   = `{"vote": "oppose", "reasoning": "too risky", "confidence": 80}`
)

func newTestEngine(store parliament.Store, provider generation.Provider) *parliament.Engine {
	return parliament.NewEngine(store, provider, quietLogger(), parliament.Config{})
}

func TestRunDebateConsensusShortCircuit(t *testing.T) {
	idea := testIdea("performance", "")
	store := newFakeStore(idea)
	provider := &scriptedProvider{
		turnResponse:      turnJSON,
		consensusResponse: agreeJSON,
		voteResponse:      supportJSON,
	}

	res, err := newTestEngine(store, provider).RunDebate(context.Background(), idea.ID, idea.ProjectID, "", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Rounds, "consensus after round 1 stops the loop")
	assert.True(t, res.Passed)
	require.NotNil(t, res.SelectedIdeaID)
	assert.Equal(t, idea.ID, *res.SelectedIdeaID)
	assert.Equal(t, []uuid.UUID{idea.ID}, store.selected)

	require.Len(t, store.sessions, 1)
	sess := store.sessions[0]
	assert.Equal(t, model.SessionConsensus, sess.Status, "unanimous support clears the consensus threshold")
	require.Len(t, sess.Rounds, 1)
	assert.Equal(t, model.OutcomeConsensus, sess.Rounds[0].Outcome)
	require.NotNil(t, sess.CompletedAt)
	assert.Positive(t, sess.TokensUsed)
}

func TestRunDebateMaxRoundExhaustion(t *testing.T) {
	idea := testIdea("performance", "")
	store := newFakeStore(idea)
	provider := &scriptedProvider{
		turnResponse:      turnJSON,
		consensusResponse: disagreeJSON,
		voteResponse:      opposeJSON,
	}

	res, err := newTestEngine(store, provider).RunDebate(context.Background(), idea.ID, idea.ProjectID, "", nil)
	require.NoError(t, err)

	cfg := model.DefaultDebateConfig()
	assert.Equal(t, cfg.MaxRounds, res.Rounds)
	assert.False(t, res.Passed)
	assert.Nil(t, res.SelectedIdeaID)
	assert.Empty(t, store.selected)

	require.Len(t, store.sessions, 1)
	sess := store.sessions[0]
	assert.Equal(t, model.SessionCompleted, sess.Status)
	require.Len(t, sess.Rounds, cfg.MaxRounds)
	assert.Equal(t, model.OutcomeVoteRequired, sess.Rounds[cfg.MaxRounds-1].Outcome)
	for _, r := range sess.Rounds[:cfg.MaxRounds-1] {
		assert.Equal(t, model.OutcomeOngoing, r.Outcome)
	}
}

func TestRunDebateVoterDeferral(t *testing.T) {
	idea := testIdea("performance", "")
	store := newFakeStore(idea)
	provider := &scriptedProvider{
		turnResponse:      turnJSON,
		consensusResponse: disagreeJSON,
		voteResponse:      opposeJSON,
	}

	_, err := newTestEngine(store, provider).RunDebate(context.Background(), idea.ID, idea.ProjectID, "", nil)
	require.NoError(t, err)

	require.Len(t, store.sessions, 1)
	sess := store.sessions[0]
	maxRounds := model.DefaultDebateConfig().MaxRounds
	for _, round := range sess.Rounds {
		for _, turn := range round.Turns {
			if turn.Role == model.RoleVoter {
				assert.Equal(t, maxRounds, turn.Round, "voters act only in the final round")
			}
		}
	}
	// The final round includes the whole roster.
	last := sess.Rounds[len(sess.Rounds)-1]
	assert.Len(t, last.Turns, 5)
}

func TestRunDebateProceedToVoteStopsRounds(t *testing.T) {
	idea := testIdea("performance", "")
	store := newFakeStore(idea)
	// Not reached, but the check recommends voting: rounds stop, yet the
	// round is tagged vote_required rather than consensus.
	provider := &scriptedProvider{
		turnResponse:      turnJSON,
		consensusResponse: `{"consensus_reached": false, "consensus_level": 0.6, "recommendation": "proceed_to_vote"}`,
		voteResponse:      opposeJSON,
	}

	res, err := newTestEngine(store, provider).RunDebate(context.Background(), idea.ID, idea.ProjectID, "", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Rounds)
	sess := store.sessions[0]
	assert.Equal(t, model.OutcomeVoteRequired, sess.Rounds[0].Outcome)
	assert.Equal(t, model.SessionCompleted, sess.Status, "session-level consensus comes from the vote, not the round signal")
}

func TestRunDebateMalformedTurnResponse(t *testing.T) {
	idea := testIdea("security", "")
	store := newFakeStore(idea)
	provider := &scriptedProvider{
		turnResponse:      "I really think this is a great idea, no JSON though!",
		consensusResponse: agreeJSON,
		voteResponse:      supportJSON,
	}

	res, err := newTestEngine(store, provider).RunDebate(context.Background(), idea.ID, idea.ProjectID, "", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Error)

	sess := store.sessions[0]
	require.NotEmpty(t, sess.Rounds[0].Turns)
	for _, turn := range sess.Rounds[0].Turns {
		assert.NotEmpty(t, turn.Content, "fallback turns carry the raw text")
		assert.Equal(t, 50, turn.Confidence)
		assert.True(t, model.ValidTurnAction(turn.Action))
	}
}

func TestRunDebateReputationWeightsApplied(t *testing.T) {
	idea := testIdea("performance", "")
	store := newFakeStore(idea)
	store.reputations[model.AgentBugHunter] = model.AgentReputation{
		AgentKind: model.AgentBugHunter,
		ProjectID: idea.ProjectID,
		Score:     80,
	}
	provider := &scriptedProvider{
		turnResponse:      turnJSON,
		consensusResponse: agreeJSON,
		voteResponse:      supportJSON,
	}

	res, err := newTestEngine(store, provider).RunDebate(context.Background(), idea.ID, idea.ProjectID, "", nil)
	require.NoError(t, err)
	require.NotNil(t, res.Vote)

	for _, b := range res.Vote.Ballots {
		if b.Agent == model.AgentBugHunter {
			assert.InDelta(t, 0.9, b.Weight, 1e-9, "0.5 + 80/200")
		} else {
			assert.InDelta(t, 1.0, b.Weight, 1e-9, "agents without history vote at full weight")
		}
	}
}

func TestRunDebateUnknownIdea(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{turnResponse: turnJSON, consensusResponse: agreeJSON, voteResponse: supportJSON}

	res, err := newTestEngine(store, provider).RunDebate(context.Background(), uuid.New(), uuid.New(), "", nil)
	require.Error(t, err)
	assert.Equal(t, "Error during parliament evaluation", res.Reasoning)
	assert.NotEmpty(t, res.Error)
	assert.Nil(t, res.SelectedIdeaID)
	assert.Empty(t, store.sessions, "no partial session is persisted")
}

func TestRunDebateRejectsConcurrentDebateOverSameIdea(t *testing.T) {
	idea := testIdea("performance", "")
	store := newFakeStore(idea)
	store.sessions = append(store.sessions, model.DebateSession{
		ID:        uuid.New(),
		ProjectID: idea.ProjectID,
		IdeaID:    idea.ID,
		Status:    model.SessionChallenging,
	})
	provider := &scriptedProvider{turnResponse: turnJSON, consensusResponse: agreeJSON, voteResponse: supportJSON}

	res, err := newTestEngine(store, provider).RunDebate(context.Background(), idea.ID, idea.ProjectID, "", nil)
	require.Error(t, err)
	assert.Contains(t, res.Error, "already running")
}

func TestRunDebateActiveMarkerLifecycle(t *testing.T) {
	idea := testIdea("performance", "")
	store := newFakeStore(idea)
	provider := &scriptedProvider{
		turnResponse:      turnJSON,
		consensusResponse: agreeJSON,
		voteResponse:      supportJSON,
	}

	_, err := newTestEngine(store, provider).RunDebate(context.Background(), idea.ID, idea.ProjectID, "", nil)
	require.NoError(t, err)

	// A pending marker is written before any round runs, then the terminal
	// snapshot replaces it under the same id.
	require.Len(t, store.savedStatus, 2)
	assert.Equal(t, model.SessionPending, store.savedStatus[0])
	require.Len(t, store.sessions, 1)
	sess := store.sessions[0]
	assert.True(t, sess.Terminal())

	active, err := store.HasActiveDebate(context.Background(), idea.ProjectID, idea.ID)
	require.NoError(t, err)
	assert.False(t, active, "completed debates release the idea")
}

func TestRunDebateCleansUpMarkerOnStorageFailure(t *testing.T) {
	idea := testIdea("performance", "")
	store := newFakeStore(idea)
	store.markErr = fmt.Errorf("connection reset")
	provider := &scriptedProvider{
		turnResponse:      turnJSON,
		consensusResponse: agreeJSON,
		voteResponse:      supportJSON,
	}
	engine := newTestEngine(store, provider)

	res, err := engine.RunDebate(context.Background(), idea.ID, idea.ProjectID, "", nil)
	require.Error(t, err)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, store.sessions, "the failed debate's marker is removed")

	// The idea is free again: a retry after the failure runs to completion.
	store.markErr = nil
	res, err = engine.RunDebate(context.Background(), idea.ID, idea.ProjectID, "", nil)
	require.NoError(t, err)
	assert.True(t, res.Passed)
	require.Len(t, store.sessions, 1)
}

func TestRunQuickDebateSelectsHighestConsensusPass(t *testing.T) {
	ideaA := testIdea("performance", "")
	ideaB := testIdea("security", "")
	ideaB.ProjectID = ideaA.ProjectID
	store := newFakeStore(ideaA, ideaB)
	provider := &scriptedProvider{
		turnResponse:      turnJSON,
		consensusResponse: agreeJSON,
		voteResponse:      supportJSON,
	}

	out, err := newTestEngine(store, provider).RunQuickDebate(context.Background(), []uuid.UUID{ideaA.ID, ideaB.ID}, ideaA.ProjectID, "")
	require.NoError(t, err)

	require.Len(t, out.Results, 2)
	require.NotNil(t, out.SelectedIdeaID)
	// Equal consensus levels: the first passed result wins.
	assert.Equal(t, ideaA.ID, *out.SelectedIdeaID)
}

func TestRunQuickDebateNoPassedResults(t *testing.T) {
	idea := testIdea("performance", "")
	store := newFakeStore(idea)
	provider := &scriptedProvider{
		turnResponse:      turnJSON,
		consensusResponse: disagreeJSON,
		voteResponse:      opposeJSON,
	}

	out, err := newTestEngine(store, provider).RunQuickDebate(context.Background(), []uuid.UUID{idea.ID}, idea.ProjectID, "")
	require.NoError(t, err)
	assert.Nil(t, out.SelectedIdeaID)
	require.Len(t, out.Results, 1)
	assert.False(t, out.Results[0].Passed)
}

func TestRunQuickDebateUsesShortenedRounds(t *testing.T) {
	idea := testIdea("performance", "")
	store := newFakeStore(idea)
	provider := &scriptedProvider{
		turnResponse:      turnJSON,
		consensusResponse: disagreeJSON,
		voteResponse:      opposeJSON,
	}

	out, err := newTestEngine(store, provider).RunQuickDebate(context.Background(), []uuid.UUID{idea.ID}, idea.ProjectID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, out.Results[0].Rounds, "quick debates cap at two rounds")
}

func TestRunQuickDebateRejectsTooManyIdeas(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{}
	ids := make([]uuid.UUID, model.MaxQuickDebateIdeas+1)
	for i := range ids {
		ids[i] = uuid.New()
	}

	_, err := newTestEngine(store, provider).RunQuickDebate(context.Background(), ids, uuid.New(), "")
	assert.Error(t, err)
}

func TestRecordValidationIdempotentRecompute(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, &scriptedProvider{})
	projectID := uuid.New()

	// validated, validated, rejected, validated
	events := []bool{true, true, false, true}
	var final model.AgentReputation
	for _, v := range events {
		rep, err := engine.RecordValidation(context.Background(), model.AgentBugHunter, projectID, v)
		require.NoError(t, err)
		final = rep
	}

	assert.Equal(t, 4, final.TotalCritiques)
	assert.Equal(t, 3, final.ValidatedCritiques)
	assert.Equal(t, 1, final.RejectedCritiques)
	assert.InDelta(t, 0.75, final.Accuracy, 1e-9)
	// 50 + 0.75*30 + (4/10)*20 = 50 + 22.5 + 8 = 80.5 -> 81
	assert.Equal(t, 81, final.Score)

	// Replaying the same history in a fresh store lands on the same record.
	store2 := newFakeStore()
	engine2 := newTestEngine(store2, &scriptedProvider{})
	var replay model.AgentReputation
	for _, v := range events {
		rep, err := engine2.RecordValidation(context.Background(), model.AgentBugHunter, projectID, v)
		require.NoError(t, err)
		replay = rep
	}
	assert.Equal(t, final.Score, replay.Score)
	assert.Equal(t, final.Accuracy, replay.Accuracy)
}

func TestRecordValidationUnknownAgent(t *testing.T) {
	engine := newTestEngine(newFakeStore(), &scriptedProvider{})
	_, err := engine.RecordValidation(context.Background(), "made-up-agent", uuid.New(), true)
	assert.Error(t, err)
}
