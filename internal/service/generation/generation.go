// Package generation provides the text-generation capability the debate
// engine consumes.
//
// Defines a Provider interface with OpenAI-compatible and Ollama
// implementations. The interface allows swapping providers without
// changing the engine; a static provider backs tests and offline runs.
package generation

import (
	"context"
	"fmt"
	"sync"
)

// Request is one generation call. Temperature and MaxTokens are set per
// call site: debate turns run warmer and longer than votes and consensus
// checks.
type Request struct {
	SystemPrompt string
	Prompt       string
	Temperature  float64
	MaxTokens    int
}

// Usage reports token consumption for one call. Zero when the provider
// does not report usage.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns the combined token count for session accounting.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// Result is a successful generation response.
type Result struct {
	Text  string
	Usage Usage
}

// Provider generates text from a prompt. Implementations must respect
// ctx cancellation; callers bound every call with a timeout.
type Provider interface {
	Generate(ctx context.Context, req Request) (Result, error)
	Name() string
}

// StaticProvider returns canned responses in order, then repeats the
// last one. Used in tests and offline smoke runs. Safe for concurrent
// use: the voting engine fans ballots out across goroutines sharing one
// provider.
type StaticProvider struct {
	Responses []string

	mu    sync.Mutex
	calls int
}

// NewStaticProvider creates a provider that replays the given responses.
func NewStaticProvider(responses ...string) *StaticProvider {
	return &StaticProvider{Responses: responses}
}

// Name identifies the provider in logs.
func (p *StaticProvider) Name() string { return "static" }

// Generate returns the next canned response.
func (p *StaticProvider) Generate(_ context.Context, _ Request) (Result, error) {
	if len(p.Responses) == 0 {
		return Result{}, fmt.Errorf("generation: static provider has no responses")
	}
	p.mu.Lock()
	i := p.calls
	if i >= len(p.Responses) {
		i = len(p.Responses) - 1
	}
	p.calls++
	p.mu.Unlock()
	return Result{Text: p.Responses[i]}, nil
}
