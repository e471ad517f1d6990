package parliament

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/gikai/internal/model"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "bare object",
			input: `{"action": "propose"}`,
			want:  `{"action": "propose"}`,
			ok:    true,
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"action\": \"challenge\"}\n```",
			want:  `{"action": "challenge"}`,
			ok:    true,
		},
		{
			name:  "surrounding prose",
			input: `Here is my answer: {"vote": "support"} hope that helps!`,
			want:  `{"vote": "support"}`,
			ok:    true,
		},
		{
			name:  "nested objects",
			input: `{"a": {"b": 1}, "c": 2}`,
			want:  `{"a": {"b": 1}, "c": 2}`,
			ok:    true,
		},
		{
			name:  "braces inside strings",
			input: `{"content": "use {brackets} carefully \"}\" done"}`,
			want:  `{"content": "use {brackets} carefully \"}\" done"}`,
			ok:    true,
		},
		{
			name:  "no json",
			input: "I think this is a great idea!",
			ok:    false,
		},
		{
			name:  "unbalanced",
			input: `{"content": "truncated`,
			ok:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseTurn(t *testing.T) {
	raw := `{"action": "challenge", "content": "this adds latency", "confidence": 85, "target_agent": "perf-optimizer", "position_change": false}`

	turn, err := parseTurn(raw, model.RoleChallenger, 1)
	require.NoError(t, err)
	assert.Equal(t, "challenge", turn.Action)
	assert.Equal(t, "this adds latency", turn.Content)
	assert.Equal(t, 85, turn.Confidence)
	assert.Equal(t, "perf-optimizer", turn.TargetAgent)
}

func TestParseTurnUnknownActionFallsBackToRoleDefault(t *testing.T) {
	raw := `{"action": "ponder", "content": "hmm", "confidence": 40}`

	turn, err := parseTurn(raw, model.RoleMediator, 2)
	require.NoError(t, err)
	assert.Equal(t, string(model.ActionMediate), turn.Action)
}

func TestParseTurnClampsConfidence(t *testing.T) {
	turn, err := parseTurn(`{"action": "defend", "content": "x", "confidence": 250}`, model.RoleProposer, 2)
	require.NoError(t, err)
	assert.Equal(t, 100, turn.Confidence)

	turn, err = parseTurn(`{"action": "defend", "content": "x", "confidence": -3}`, model.RoleProposer, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, turn.Confidence)
}

func TestParseTurnErrors(t *testing.T) {
	_, err := parseTurn("no json here", model.RoleProposer, 1)
	assert.Error(t, err)

	_, err = parseTurn(`{"action": "propose", "confidence": 50}`, model.RoleProposer, 1)
	assert.Error(t, err, "empty content is a parse failure")
}

func TestParseVote(t *testing.T) {
	v, err := parseVote(`{"vote": "oppose", "reasoning": "too risky", "confidence": 70}`)
	require.NoError(t, err)
	assert.Equal(t, "oppose", v.Vote)
	assert.Equal(t, "too risky", v.Reasoning)
	assert.Equal(t, 70, v.Confidence)
}

func TestParseVoteRejectsUnknownChoice(t *testing.T) {
	_, err := parseVote(`{"vote": "maybe", "reasoning": "unsure"}`)
	assert.Error(t, err)
}

func TestParseConsensusClampsLevel(t *testing.T) {
	c, err := parseConsensus(`{"consensus_reached": true, "consensus_level": 1.7, "recommendation": "proceed_to_vote"}`)
	require.NoError(t, err)
	assert.True(t, c.ConsensusReached)
	assert.Equal(t, 1.0, c.ConsensusLevel)
	assert.Equal(t, "proceed_to_vote", c.Recommendation)
}

func TestTruncateRaw(t *testing.T) {
	short := "  short response  "
	assert.Equal(t, "short response", truncateRaw(short))

	long := strings.Repeat("a", maxRawContent+100)
	got := truncateRaw(long)
	assert.Len(t, got, maxRawContent+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}
