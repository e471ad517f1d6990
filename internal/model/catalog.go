// Package model defines the core domain types for Gikai.
//
// Types use strong typing (UUIDs, time.Time, string enums) and avoid
// interface{} wherever possible. The agent catalog is a closed static
// table: agents differ only in category tag and persona text, never in
// behavior.
package model

// AgentKind identifies one of the fixed reviewer personas.
type AgentKind string

// The full agent catalog. Order matters: selection fills roster capacity
// in catalog order, so reordering this list changes debate composition.
const (
	AgentBugHunter             AgentKind = "bug-hunter"
	AgentSecurityProtector     AgentKind = "security-protector"
	AgentPerfOptimizer         AgentKind = "perf-optimizer"
	AgentDataFlowOptimizer     AgentKind = "data-flow-optimizer"
	AgentZenArchitect          AgentKind = "zen-architect"
	AgentRefactoringSurgeon    AgentKind = "refactoring-surgeon"
	AgentTestStrategist        AgentKind = "test-strategist"
	AgentAPIDesigner           AgentKind = "api-designer"
	AgentUserEmpathyChampion   AgentKind = "user-empathy-champion"
	AgentAccessibilityAdvocate AgentKind = "accessibility-advocate"
	AgentInsightSynthesizer    AgentKind = "insight-synthesizer"
	AgentAmbiguityGuardian     AgentKind = "ambiguity-guardian"
	AgentParadigmShifter       AgentKind = "paradigm-shifter"
	AgentGrowthHacker          AgentKind = "growth-hacker"
	AgentCostBalancer          AgentKind = "cost-balancer"
	AgentDevOpsHarmonizer      AgentKind = "devops-harmonizer"
	AgentDocsCurator           AgentKind = "docs-curator"
	AgentLegacyWhisperer       AgentKind = "legacy-whisperer"
	AgentCodePoet              AgentKind = "code-poet"
)

// AgentCategory tags an agent kind for selection heuristics.
// It carries no behavior beyond keyword matching in the selector.
type AgentCategory string

const (
	CategoryQuality       AgentCategory = "quality"
	CategorySecurity      AgentCategory = "security"
	CategoryPerformance   AgentCategory = "performance"
	CategoryArchitecture  AgentCategory = "architecture"
	CategoryUX            AgentCategory = "ux"
	CategoryAccessibility AgentCategory = "accessibility"
	CategoryInsight       AgentCategory = "insight"
	CategoryBusiness      AgentCategory = "business"
	CategoryProcess       AgentCategory = "process"
)

// AgentPersona is one row of the static catalog.
type AgentPersona struct {
	Kind     AgentKind
	Category AgentCategory
	Persona  string
}

// Catalog is the ordered agent table. Selection iterates it front to back;
// the order is part of the engine's deterministic behavior and is covered
// by tests — do not reorder.
var Catalog = []AgentPersona{
	{AgentBugHunter, CategoryQuality, "You hunt for defects, edge cases, and failure modes others miss. You are skeptical of happy paths."},
	{AgentSecurityProtector, CategorySecurity, "You evaluate every proposal for attack surface, data exposure, and trust-boundary violations."},
	{AgentPerfOptimizer, CategoryPerformance, "You care about latency, throughput, and resource cost. You challenge anything that adds overhead without measurement."},
	{AgentDataFlowOptimizer, CategoryPerformance, "You trace how data moves through the system and flag redundant copies, chatty calls, and serialization waste."},
	{AgentZenArchitect, CategoryArchitecture, "You favor minimal, composable designs. You push back on accidental complexity and premature abstraction."},
	{AgentRefactoringSurgeon, CategoryArchitecture, "You assess how a change lands in the existing codebase: blast radius, migration path, and reversibility."},
	{AgentTestStrategist, CategoryQuality, "You judge proposals by how they can be verified: test seams, observability, and regression risk."},
	{AgentAPIDesigner, CategoryArchitecture, "You evaluate contracts and interfaces: naming, versioning, and how hard the API is to misuse."},
	{AgentUserEmpathyChampion, CategoryUX, "You speak for the end user: workflows, friction, and whether the change solves a felt problem."},
	{AgentAccessibilityAdvocate, CategoryAccessibility, "You check that nothing excludes users: keyboard paths, contrast, screen readers, cognitive load."},
	{AgentInsightSynthesizer, CategoryInsight, "You connect the other agents' arguments, surface hidden agreements, and reframe stuck debates."},
	{AgentAmbiguityGuardian, CategoryInsight, "You find underspecified requirements and force vague proposals to commit to concrete behavior."},
	{AgentParadigmShifter, CategoryInsight, "You question the framing itself and propose orthogonal approaches the roster has not considered."},
	{AgentGrowthHacker, CategoryBusiness, "You weigh proposals by user acquisition, activation, and measurable business impact."},
	{AgentCostBalancer, CategoryBusiness, "You account for build cost, run cost, and opportunity cost against the claimed impact."},
	{AgentDevOpsHarmonizer, CategoryProcess, "You evaluate deploy risk, rollback paths, and operational burden on the team."},
	{AgentDocsCurator, CategoryProcess, "You ask how the change will be explained: docs, onboarding, and discoverability."},
	{AgentLegacyWhisperer, CategoryQuality, "You know where the old code is load-bearing and challenge changes that disturb it casually."},
	{AgentCodePoet, CategoryQuality, "You care about readability and idiom: code is read far more often than written."},
}

var catalogByKind = func() map[AgentKind]AgentPersona {
	m := make(map[AgentKind]AgentPersona, len(Catalog))
	for _, p := range Catalog {
		m[p.Kind] = p
	}
	return m
}()

// LookupAgent returns the catalog row for a kind.
func LookupAgent(kind AgentKind) (AgentPersona, bool) {
	p, ok := catalogByKind[kind]
	return p, ok
}

// ValidAgentKind reports whether kind is in the catalog.
func ValidAgentKind(kind AgentKind) bool {
	_, ok := catalogByKind[kind]
	return ok
}
