package parliament

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashita-ai/gikai/internal/model"
)

// Generation output parsing is defensive throughout: models wrap JSON in
// prose, markdown fences, or produce no JSON at all. Every parse
// function returns an explicit error and the caller substitutes a
// deterministic default; a malformed response never aborts a round.

// maxRawContent bounds how much of an unparseable response is carried
// into a fallback turn.
const maxRawContent = 500

type parsedTurn struct {
	Action         string `json:"action"`
	Content        string `json:"content"`
	Confidence     int    `json:"confidence"`
	TargetAgent    string `json:"target_agent"`
	PositionChange bool   `json:"position_change"`
}

type parsedVote struct {
	Vote       string `json:"vote"`
	Reasoning  string `json:"reasoning"`
	Confidence int    `json:"confidence"`
}

type parsedConsensus struct {
	ConsensusReached bool    `json:"consensus_reached"`
	ConsensusLevel   float64 `json:"consensus_level"`
	Recommendation   string  `json:"recommendation"`
}

// parseTurn extracts a structured turn from raw model output. The
// returned action is validated against the known set and the confidence
// clamped to [0,100]; an out-of-set action falls back to the role
// default rather than failing the whole parse.
func parseTurn(raw string, role model.DebateRole, round int) (parsedTurn, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return parsedTurn{}, fmt.Errorf("parliament: no JSON object in response")
	}
	var t parsedTurn
	if err := json.Unmarshal([]byte(obj), &t); err != nil {
		return parsedTurn{}, fmt.Errorf("parliament: unmarshal turn: %w", err)
	}
	if t.Content == "" {
		return parsedTurn{}, fmt.Errorf("parliament: turn has no content")
	}
	if !model.ValidTurnAction(model.TurnAction(t.Action)) {
		t.Action = string(model.DefaultAction(role, round))
	}
	t.Confidence = clampConfidence(t.Confidence)
	return t, nil
}

// parseVote extracts a ballot. An unknown vote value is an error so the
// caller records an abstention instead of guessing intent.
func parseVote(raw string) (parsedVote, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return parsedVote{}, fmt.Errorf("parliament: no JSON object in response")
	}
	var v parsedVote
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return parsedVote{}, fmt.Errorf("parliament: unmarshal vote: %w", err)
	}
	switch model.BallotChoice(v.Vote) {
	case model.VoteSupport, model.VoteOppose, model.VoteAbstain:
	default:
		return parsedVote{}, fmt.Errorf("parliament: unknown vote %q", v.Vote)
	}
	v.Confidence = clampConfidence(v.Confidence)
	return v, nil
}

// parseConsensus extracts the round-level agreement check. Level is
// clamped to [0,1].
func parseConsensus(raw string) (parsedConsensus, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return parsedConsensus{}, fmt.Errorf("parliament: no JSON object in response")
	}
	var c parsedConsensus
	if err := json.Unmarshal([]byte(obj), &c); err != nil {
		return parsedConsensus{}, fmt.Errorf("parliament: unmarshal consensus: %w", err)
	}
	if c.ConsensusLevel < 0 {
		c.ConsensusLevel = 0
	}
	if c.ConsensusLevel > 1 {
		c.ConsensusLevel = 1
	}
	return c, nil
}

// extractJSONObject finds the first balanced top-level JSON object in s.
// A brace scan that respects string literals and escapes, so prose or
// markdown fences around the object do not matter.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// truncateRaw trims an unparseable response for use as fallback turn
// content.
func truncateRaw(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxRawContent {
		return s
	}
	return s[:maxRawContent] + "..."
}
