package parliament_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/gikai/internal/model"
	"github.com/ashita-ai/gikai/internal/service/parliament"
)

func testIdea(category string, source model.AgentKind) model.Idea {
	return model.Idea{
		ID:          uuid.New(),
		ProjectID:   uuid.New(),
		Category:    category,
		Title:       "add request caching",
		Description: "cache repeated lookups",
		Effort:      2,
		Impact:      2,
		SourceAgent: source,
		Status:      model.IdeaStatusProposed,
	}
}

func TestSelectAgentsDeterministic(t *testing.T) {
	idea := testIdea("performance", "")
	cfg := model.DefaultDebateConfig()

	first := parliament.SelectAgents(idea, cfg)
	for i := 0; i < 10; i++ {
		again := parliament.SelectAgents(idea, cfg)
		assert.Equal(t, first.Agents, again.Agents)
		assert.Equal(t, first.Roles, again.Roles)
	}
}

func TestSelectAgentsRoleExclusivity(t *testing.T) {
	cfg := model.DefaultDebateConfig()
	categories := []string{"performance", "security", "ux", "business", "architecture", "testing", "something-else", ""}

	for _, cat := range categories {
		t.Run("category_"+cat, func(t *testing.T) {
			roster := parliament.SelectAgents(testIdea(cat, ""), cfg)

			require.GreaterOrEqual(t, len(roster.Agents), cfg.MinAgents)
			require.LessOrEqual(t, len(roster.Agents), cfg.MaxAgents)
			require.Len(t, roster.Roles, len(roster.Agents), "no duplicate agents")

			proposers, mediators := 0, 0
			for _, role := range roster.Roles {
				switch role {
				case model.RoleProposer:
					proposers++
				case model.RoleMediator:
					mediators++
				}
			}
			assert.Equal(t, 1, proposers, "exactly one proposer")
			assert.LessOrEqual(t, mediators, 1, "at most one mediator")
		})
	}
}

func TestSelectAgentsSourceAgentProposes(t *testing.T) {
	roster := parliament.SelectAgents(testIdea("security", model.AgentZenArchitect), model.DefaultDebateConfig())

	assert.Equal(t, model.AgentZenArchitect, roster.Proposer())
	assert.Equal(t, model.AgentZenArchitect, roster.Agents[0])
}

func TestSelectAgentsCategoryMatching(t *testing.T) {
	cfg := model.DefaultDebateConfig()

	tests := []struct {
		category   string
		proposer   model.AgentKind
		challenger model.AgentKind
	}{
		{"performance", model.AgentPerfOptimizer, model.AgentDataFlowOptimizer},
		{"security", model.AgentSecurityProtector, model.AgentBugHunter},
		{"ux-improvement", model.AgentUserEmpathyChampion, model.AgentAccessibilityAdvocate},
		{"business", model.AgentGrowthHacker, model.AgentCostBalancer},
		{"architecture", model.AgentZenArchitect, model.AgentRefactoringSurgeon},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			roster := parliament.SelectAgents(testIdea(tt.category, ""), cfg)

			assert.Equal(t, tt.proposer, roster.Proposer(), "unknown source falls back to the first category match")
			assert.Contains(t, roster.Challengers(), tt.challenger)
		})
	}
}

func TestSelectAgentsUnknownCategoryDefaults(t *testing.T) {
	roster := parliament.SelectAgents(testIdea("weird-category", ""), model.DefaultDebateConfig())

	assert.Equal(t, model.AgentBugHunter, roster.Proposer())
	assert.Equal(t, []model.AgentKind{model.AgentSecurityProtector, model.AgentPerfOptimizer}, roster.Challengers())
}

func TestSelectAgentsMediatorPreference(t *testing.T) {
	roster := parliament.SelectAgents(testIdea("performance", ""), model.DefaultDebateConfig())
	assert.Equal(t, model.AgentInsightSynthesizer, roster.Mediator())

	// When the first preference already holds a role, the next one is used.
	roster = parliament.SelectAgents(testIdea("performance", model.AgentInsightSynthesizer), model.DefaultDebateConfig())
	assert.Equal(t, model.AgentAmbiguityGuardian, roster.Mediator())
}

func TestSelectAgentsFillsWithVotersInCatalogOrder(t *testing.T) {
	roster := parliament.SelectAgents(testIdea("performance", ""), model.DefaultDebateConfig())

	require.Len(t, roster.Agents, 5)
	// perf-optimizer (proposer), data-flow-optimizer (challenger),
	// insight-synthesizer (mediator), then the first two free catalog
	// entries as voters.
	assert.Equal(t, model.RoleVoter, roster.Roles[model.AgentBugHunter])
	assert.Equal(t, model.RoleVoter, roster.Roles[model.AgentSecurityProtector])
}

func TestSelectAgentsSmallRoster(t *testing.T) {
	cfg := model.DebateConfig{MinAgents: 2, MaxAgents: 3, MaxRounds: 2, ConsensusThreshold: 0.7}
	roster := parliament.SelectAgents(testIdea("security", ""), cfg)

	require.Len(t, roster.Agents, 3)
	assert.Equal(t, model.RoleProposer, roster.Roles[model.AgentSecurityProtector])
	assert.Equal(t, model.RoleChallenger, roster.Roles[model.AgentBugHunter])
}
