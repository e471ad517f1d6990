package parliament_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/gikai/internal/model"
	"github.com/ashita-ai/gikai/internal/service/parliament"
)

func TestExtractTradeOffsPairsOpposingSecurityTurns(t *testing.T) {
	transcript := []model.DebateTurn{
		{Round: 1, Agent: model.AgentZenArchitect, Role: model.RoleProposer, Action: model.ActionPropose,
			Content: "the new auth flow simplifies login security for users", Confidence: 90},
		{Round: 1, Agent: model.AgentSecurityProtector, Role: model.RoleChallenger, Action: model.ActionChallenge,
			Content: "this widens the attack surface through the token exchange", Confidence: 80},
	}

	out := parliament.ExtractTradeOffs(transcript)

	require.Len(t, out, 1)
	to := out[0]
	assert.Equal(t, model.DimensionSecurity, to.Dimension)
	assert.Equal(t, model.AgentZenArchitect, to.ProposerAgent)
	assert.Equal(t, model.AgentSecurityProtector, to.ChallengerAgent)
	assert.Equal(t, model.ImportanceCritical, to.Importance, "avg confidence 85 grades critical")
}

func TestExtractTradeOffsRequiresBothSides(t *testing.T) {
	// Only the proposer mentions performance; no challenger counterpart.
	transcript := []model.DebateTurn{
		{Agent: model.AgentPerfOptimizer, Role: model.RoleProposer, Content: "this makes lookups fast", Confidence: 70},
		{Agent: model.AgentBugHunter, Role: model.RoleChallenger, Content: "error handling is incomplete", Confidence: 70},
	}

	assert.Empty(t, parliament.ExtractTradeOffs(transcript))
}

func TestExtractTradeOffsAtMostOnePerDimension(t *testing.T) {
	transcript := []model.DebateTurn{
		{Agent: model.AgentPerfOptimizer, Role: model.RoleProposer, Content: "reduces latency on the hot path", Confidence: 60},
		{Agent: model.AgentDataFlowOptimizer, Role: model.RoleChallenger, Content: "adds memory pressure under load", Confidence: 60},
		{Agent: model.AgentPerfOptimizer, Role: model.RoleProposer, Content: "a second latency argument", Confidence: 95},
		{Agent: model.AgentDataFlowOptimizer, Role: model.RoleChallenger, Content: "a second cpu argument", Confidence: 95},
	}

	out := parliament.ExtractTradeOffs(transcript)

	require.Len(t, out, 1)
	assert.Equal(t, model.DimensionPerformance, out[0].Dimension)
	// The first matching pair wins, not the later higher-confidence one.
	assert.Equal(t, "reduces latency on the hot path", out[0].ProposerCase)
	assert.Equal(t, model.ImportanceSignificant, out[0].Importance)
}

func TestExtractTradeOffsMultipleDimensions(t *testing.T) {
	transcript := []model.DebateTurn{
		{Agent: model.AgentZenArchitect, Role: model.RoleProposer, Content: "keeps the design simple and fast", Confidence: 50},
		{Agent: model.AgentSecurityProtector, Role: model.RoleChallenger, Content: "the added complexity hides a slow path and an injection risk", Confidence: 50},
		{Agent: model.AgentZenArchitect, Role: model.RoleProposer, Content: "input encryption covers the security concern", Confidence: 50},
	}

	out := parliament.ExtractTradeOffs(transcript)

	dims := make([]model.TradeOffDimension, 0, len(out))
	for _, to := range out {
		dims = append(dims, to.Dimension)
	}
	assert.Contains(t, dims, model.DimensionPerformance)
	assert.Contains(t, dims, model.DimensionSecurity)
	assert.Contains(t, dims, model.DimensionComplexity)
}

func TestExtractTradeOffsEmptyTranscript(t *testing.T) {
	assert.Empty(t, parliament.ExtractTradeOffs(nil))
}
