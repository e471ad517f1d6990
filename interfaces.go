package gikai

import "context"

// Generator produces agent turn, vote, and consensus text.
// When provided via WithGenerator, replaces the auto-detected
// OpenAI/Ollama/static provider. Uses standalone request/result structs
// so external consumers never import internal packages; App.New() wraps
// it in an adapter for internal use.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
	Name() string
}
