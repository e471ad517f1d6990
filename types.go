package gikai

// GenerationRequest is one text generation call issued by the debate
// engine: a persona system prompt plus the turn, vote, or consensus
// prompt itself.
type GenerationRequest struct {
	SystemPrompt string
	Prompt       string
	Temperature  float64
	MaxTokens    int
}

// GenerationResult is the text and token accounting for one call.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// DebateDefaults overrides the built-in debate bounds. Zero fields keep
// the configured value.
type DebateDefaults struct {
	MinAgents          int
	MaxAgents          int
	MaxRounds          int
	ConsensusThreshold float64
}
