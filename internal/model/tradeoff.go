package model

// TradeOffDimension is one of the fixed evaluation dimensions trade-offs
// are extracted along.
type TradeOffDimension string

const (
	DimensionPerformance     TradeOffDimension = "performance"
	DimensionSecurity        TradeOffDimension = "security"
	DimensionMaintainability TradeOffDimension = "maintainability"
	DimensionUsability       TradeOffDimension = "usability"
	DimensionAccessibility   TradeOffDimension = "accessibility"
	DimensionComplexity      TradeOffDimension = "complexity"
)

// TradeOffImportance grades a trade-off by the confidence of the agents
// arguing it.
type TradeOffImportance string

const (
	ImportanceCritical    TradeOffImportance = "critical"
	ImportanceSignificant TradeOffImportance = "significant"
	ImportanceMinor       TradeOffImportance = "minor"
)

// ImportanceForConfidence maps average turn confidence (0-100) to an
// importance grade: >=80 critical, >=60 significant, else minor.
func ImportanceForConfidence(avg float64) TradeOffImportance {
	switch {
	case avg >= 80:
		return ImportanceCritical
	case avg >= 60:
		return ImportanceSignificant
	default:
		return ImportanceMinor
	}
}

// TradeOffAnalysis pairs two opposing arguments on one dimension.
// Computed once after debate completion; immutable.
type TradeOffAnalysis struct {
	Dimension       TradeOffDimension  `json:"dimension"`
	ProposerAgent   AgentKind          `json:"proposer_agent"`
	ChallengerAgent AgentKind          `json:"challenger_agent"`
	ProposerCase    string             `json:"proposer_case"`
	ChallengerCase  string             `json:"challenger_case"`
	Importance      TradeOffImportance `json:"importance"`
}
