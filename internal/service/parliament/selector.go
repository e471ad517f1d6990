package parliament

import (
	"strings"

	"github.com/ashita-ai/gikai/internal/model"
)

// Roster is the outcome of agent selection: an ordered agent list and an
// immutable role map. Order matters for turn sequencing and must be
// stable across runs.
type Roster struct {
	Agents []model.AgentKind
	Roles  map[model.AgentKind]model.DebateRole
}

// Proposer returns the single proposer. Every roster has exactly one.
func (r Roster) Proposer() model.AgentKind {
	for _, a := range r.Agents {
		if r.Roles[a] == model.RoleProposer {
			return a
		}
	}
	return ""
}

// Challengers returns the challengers in roster order.
func (r Roster) Challengers() []model.AgentKind {
	var out []model.AgentKind
	for _, a := range r.Agents {
		if r.Roles[a] == model.RoleChallenger {
			out = append(out, a)
		}
	}
	return out
}

// Mediator returns the mediator, or "" when the roster has none.
func (r Roster) Mediator() model.AgentKind {
	for _, a := range r.Agents {
		if r.Roles[a] == model.RoleMediator {
			return a
		}
	}
	return ""
}

// HasNonVoter reports whether any roster member holds a non-voter role.
// When false, voters act every round instead of deferring.
func (r Roster) HasNonVoter() bool {
	for _, role := range r.Roles {
		if role != model.RoleVoter {
			return true
		}
	}
	return false
}

func (r Roster) contains(kind model.AgentKind) bool {
	_, ok := r.Roles[kind]
	return ok
}

func (r *Roster) add(kind model.AgentKind, role model.DebateRole) {
	r.Agents = append(r.Agents, kind)
	r.Roles[kind] = role
}

// challengerTable maps idea-category keywords to preferred challengers.
// Rows are checked in order and the first match wins; matching is a
// case-insensitive substring test against the idea's category.
var challengerTable = []struct {
	keyword string
	agents  []model.AgentKind
}{
	{"performance", []model.AgentKind{model.AgentPerfOptimizer, model.AgentDataFlowOptimizer}},
	{"security", []model.AgentKind{model.AgentSecurityProtector, model.AgentBugHunter}},
	{"ux", []model.AgentKind{model.AgentUserEmpathyChampion, model.AgentAccessibilityAdvocate}},
	{"user", []model.AgentKind{model.AgentUserEmpathyChampion, model.AgentAccessibilityAdvocate}},
	{"business", []model.AgentKind{model.AgentGrowthHacker, model.AgentCostBalancer}},
	{"architecture", []model.AgentKind{model.AgentZenArchitect, model.AgentRefactoringSurgeon}},
	{"test", []model.AgentKind{model.AgentTestStrategist, model.AgentBugHunter}},
	{"quality", []model.AgentKind{model.AgentTestStrategist, model.AgentBugHunter}},
}

// defaultChallengers is used when the idea's category matches no table row.
var defaultChallengers = []model.AgentKind{
	model.AgentBugHunter,
	model.AgentSecurityProtector,
	model.AgentPerfOptimizer,
}

// mediatorPreference is tried in order; the first agent not already on
// the roster becomes mediator.
var mediatorPreference = []model.AgentKind{
	model.AgentInsightSynthesizer,
	model.AgentAmbiguityGuardian,
	model.AgentUserEmpathyChampion,
	model.AgentZenArchitect,
	model.AgentParadigmShifter,
}

// maxChallengers bounds how many challengers join a roster.
const maxChallengers = 2

// SelectAgents deterministically builds the roster and role map for one
// idea. No randomness anywhere: the same idea and config always produce
// the same roster, which tests rely on.
//
// Selection order: proposer (the idea's source agent, or the first
// category-matched candidate when unknown), then up to two challengers
// from the keyword table, then one mediator from the preference list,
// then voters in catalog order until maxAgents.
func SelectAgents(idea model.Idea, cfg model.DebateConfig) Roster {
	roster := Roster{Roles: make(map[model.AgentKind]model.DebateRole, cfg.MaxAgents)}

	candidates := challengerCandidates(idea.Category)

	if model.ValidAgentKind(idea.SourceAgent) {
		roster.add(idea.SourceAgent, model.RoleProposer)
	} else {
		roster.add(candidates[0], model.RoleProposer)
	}

	limit := maxChallengers
	if room := cfg.MaxAgents - len(roster.Agents); room < limit {
		limit = room
	}
	added := 0
	for _, kind := range candidates {
		if added >= limit {
			break
		}
		if roster.contains(kind) {
			continue
		}
		roster.add(kind, model.RoleChallenger)
		added++
	}

	if len(roster.Agents) < cfg.MaxAgents {
		for _, kind := range mediatorPreference {
			if roster.contains(kind) {
				continue
			}
			roster.add(kind, model.RoleMediator)
			break
		}
	}

	for _, p := range model.Catalog {
		if len(roster.Agents) >= cfg.MaxAgents {
			break
		}
		if roster.contains(p.Kind) {
			continue
		}
		roster.add(p.Kind, model.RoleVoter)
	}

	// Normally unreachable with the full catalog, but kept so a shrunken
	// catalog still meets the minimum.
	for _, p := range model.Catalog {
		if len(roster.Agents) >= cfg.MinAgents {
			break
		}
		if roster.contains(p.Kind) {
			continue
		}
		roster.add(p.Kind, model.RoleVoter)
	}

	return roster
}

func challengerCandidates(category string) []model.AgentKind {
	cat := strings.ToLower(category)
	for _, row := range challengerTable {
		if strings.Contains(cat, row.keyword) {
			return row.agents
		}
	}
	return defaultChallengers
}
