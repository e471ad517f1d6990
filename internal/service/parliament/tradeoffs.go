package parliament

import (
	"strings"

	"github.com/ashita-ai/gikai/internal/model"
)

// dimensionKeywords drives trade-off extraction: a turn belongs to a
// dimension when its content contains any keyword, case-insensitive
// substring match.
var dimensionKeywords = []struct {
	dimension model.TradeOffDimension
	keywords  []string
}{
	{model.DimensionPerformance, []string{"speed", "latency", "fast", "slow", "efficient", "cpu", "memory"}},
	{model.DimensionSecurity, []string{"security", "vulnerab", "attack", "exploit", "auth", "encrypt", "injection"}},
	{model.DimensionMaintainability, []string{"maintain", "refactor", "technical debt", "readab", "complex code", "coupling"}},
	{model.DimensionUsability, []string{"usability", "user experience", "ux", "intuitive", "friction", "workflow"}},
	{model.DimensionAccessibility, []string{"accessib", "screen reader", "keyboard", "contrast", "a11y", "wcag"}},
	{model.DimensionComplexity, []string{"complexity", "complicated", "over-engineer", "simple", "abstraction", "overhead"}},
}

// ExtractTradeOffs pairs opposing statements along the fixed dimensions.
// Pure over the transcript: for each dimension, the first matching
// proposer turn and first matching challenger turn form at most one
// trade-off, graded by their average confidence.
func ExtractTradeOffs(transcript []model.DebateTurn) []model.TradeOffAnalysis {
	var out []model.TradeOffAnalysis
	for _, dim := range dimensionKeywords {
		var proposer, challenger *model.DebateTurn
		for i := range transcript {
			t := &transcript[i]
			if !matchesDimension(t.Content, dim.keywords) {
				continue
			}
			switch t.Role {
			case model.RoleProposer:
				if proposer == nil {
					proposer = t
				}
			case model.RoleChallenger:
				if challenger == nil {
					challenger = t
				}
			}
			if proposer != nil && challenger != nil {
				break
			}
		}
		if proposer == nil || challenger == nil {
			continue
		}
		avg := float64(proposer.Confidence+challenger.Confidence) / 2
		out = append(out, model.TradeOffAnalysis{
			Dimension:       dim.dimension,
			ProposerAgent:   proposer.Agent,
			ChallengerAgent: challenger.Agent,
			ProposerCase:    proposer.Content,
			ChallengerCase:  challenger.Content,
			Importance:      model.ImportanceForConfidence(avg),
		})
	}
	return out
}

func matchesDimension(content string, keywords []string) bool {
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
