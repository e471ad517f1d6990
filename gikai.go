// Package gikai is the public API for embedding the Gikai debate server.
//
// Consumers import this package to construct and run the server without
// forking it:
//
//	app, err := gikai.New(
//	    gikai.WithVersion(version),
//	    gikai.WithLogger(logger),
//	    gikai.WithGenerator(myProvider),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The import graph enforces a strict no-cycle rule: gikai (root) imports
// internal/*, but internal/* never imports gikai (root). Public types
// (GenerationRequest, DebateDefaults) are standalone structs with no
// internal imports; the Generator adapter lives here because this is the
// only file that sees both sides of the boundary.
package gikai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashita-ai/gikai/internal/config"
	"github.com/ashita-ai/gikai/internal/mcp"
	"github.com/ashita-ai/gikai/internal/model"
	"github.com/ashita-ai/gikai/internal/server"
	"github.com/ashita-ai/gikai/internal/service/generation"
	"github.com/ashita-ai/gikai/internal/service/parliament"
	"github.com/ashita-ai/gikai/internal/storage"
	"github.com/ashita-ai/gikai/internal/telemetry"
	"github.com/ashita-ai/gikai/migrations"
)

// App is the Gikai server lifecycle. Construct with New(), run with Run().
// App has no public fields — use New() options to configure it.
type App struct {
	cfg          config.Config
	db           *storage.DB
	srv          *server.Server
	engine       *parliament.Engine
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	version      string
}

// New initialises the Gikai server. It connects to the database, runs
// migrations, wires the generation provider and debate engine, and
// returns a ready-to-run App. It does NOT accept HTTP connections —
// call Run().
func New(opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.apiToken != "" {
		cfg.APIToken = o.apiToken
	}
	if o.debateDefaults != nil {
		applyDebateDefaults(&cfg, *o.debateDefaults)
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("gikai starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Connect to database.
	db, err := storage.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("storage: %w", err)
	}

	// Run built-in migrations, then any extra migration filesystems.
	if err := db.RunMigrations(context.Background(), migrations.FS); err != nil {
		db.Close()
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("migrations: %w", err)
	}
	for i, extraFS := range o.extraMigrations {
		if err := db.RunMigrations(context.Background(), extraFS); err != nil {
			db.Close()
			_ = otelShutdown(context.Background())
			return nil, fmt.Errorf("extra migrations[%d]: %w", i, err)
		}
	}

	// Create generation provider — external override takes priority over
	// auto-detect.
	var provider generation.Provider
	if o.generator != nil {
		provider = &generatorAdapter{g: o.generator}
	} else {
		provider = newGenerationProvider(cfg, logger)
	}
	logger.Info("generation provider", "name", provider.Name())

	// Create the debate engine.
	engine := parliament.NewEngine(db, provider, logger, parliament.Config{
		Debate: model.DebateConfig{
			MinAgents:          cfg.DebateMinAgents,
			MaxAgents:          cfg.DebateMaxAgents,
			MaxRounds:          cfg.DebateMaxRounds,
			ConsensusThreshold: cfg.DebateConsensusThreshold,
		},
		GenerationTimeout: cfg.GenerationTimeout,
		VoteFanOut:        cfg.VoteFanOut,
	})

	// MCP server.
	mcpSrv := mcp.New(engine, db, logger)

	// HTTP server (MCP mounted at /mcp).
	srv := server.New(server.ServerConfig{
		Evaluator:           engine,
		Store:               db,
		Logger:              logger,
		MCPServer:           mcpSrv.MCPServer(),
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		APIToken:            cfg.APIToken,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	return &App{
		cfg:          cfg,
		db:           db,
		srv:          srv,
		engine:       engine,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or a
// fatal server error occurs. On return, Shutdown is called automatically
// — callers should not call Shutdown separately.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	return a.Shutdown(context.Background())
}

// Shutdown drains in-flight HTTP requests, then closes the database pool
// and OTEL provider. In-flight debates get the full write timeout to
// finish before the drain gives up.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("gikai shutting down")

	httpCtx, cancel := context.WithTimeout(ctx, a.cfg.WriteTimeout)
	if err := a.srv.Shutdown(httpCtx); err != nil {
		a.logger.Error("http shutdown error", "error", err)
	}
	cancel()

	_ = a.otelShutdown(context.Background())
	a.db.Close()

	a.logger.Info("gikai stopped")
	return nil
}

func applyDebateDefaults(cfg *config.Config, d DebateDefaults) {
	if d.MinAgents > 0 {
		cfg.DebateMinAgents = d.MinAgents
	}
	if d.MaxAgents > 0 {
		cfg.DebateMaxAgents = d.MaxAgents
	}
	if d.MaxRounds > 0 {
		cfg.DebateMaxRounds = d.MaxRounds
	}
	if d.ConsensusThreshold > 0 {
		cfg.DebateConsensusThreshold = d.ConsensusThreshold
	}
}

// ── Adapters (defined here because this file imports both sides) ───────────────

// generatorAdapter wraps a public gikai.Generator to satisfy
// generation.Provider. It converts between public and internal
// request/result structs at the boundary.
type generatorAdapter struct {
	g Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, req generation.Request) (generation.Result, error) {
	res, err := a.g.Generate(ctx, GenerationRequest{
		SystemPrompt: req.SystemPrompt,
		Prompt:       req.Prompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
	if err != nil {
		return generation.Result{}, err
	}
	return generation.Result{
		Text: res.Text,
		Usage: generation.Usage{
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.CompletionTokens,
		},
	}, nil
}

func (a *generatorAdapter) Name() string { return a.g.Name() }

// ── Helpers ────────────────────────────────────────────────────────────────────

// newGenerationProvider creates a generation provider based on
// configuration. Provider selection: "openai", "ollama", "static", or
// "auto" (default). Auto mode tries OpenAI if a key is present, then
// Ollama if reachable, else static canned responses.
func newGenerationProvider(cfg config.Config, logger *slog.Logger) generation.Provider {
	switch cfg.GenerationProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Error("OPENAI_API_KEY required when GIKAI_GENERATION_PROVIDER=openai")
			return generation.NewStaticProvider(staticDebateResponses()...)
		}
		logger.Info("generation provider: openai", "model", cfg.OpenAIModel)
		return generation.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "ollama":
		logger.Info("generation provider: ollama", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		return generation.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel)
	case "static":
		logger.Info("generation provider: static (canned responses, evaluation quality is nil)")
		return generation.NewStaticProvider(staticDebateResponses()...)
	case "auto":
		fallthrough
	default:
		if cfg.OpenAIAPIKey != "" {
			logger.Info("generation provider: openai (auto-detected)", "model", cfg.OpenAIModel)
			return generation.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		}
		if ollamaReachable(cfg.OllamaURL) {
			logger.Info("generation provider: ollama (auto-detected)", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
			return generation.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel)
		}
		logger.Warn("no generation provider available, using static canned responses")
		return generation.NewStaticProvider(staticDebateResponses()...)
	}
}

// staticDebateResponses gives the static provider a minimal but
// well-formed debate script so local runs without any LLM still exercise
// the full pipeline.
func staticDebateResponses() []string {
	return []string{
		`{"action": "propose", "content": "The idea is worth pursuing on its stated merits.", "confidence": 60}`,
		`{"action": "challenge", "content": "The claimed impact is unverified; the cost may outweigh it.", "confidence": 55}`,
		`{"consensus_reached": false, "consensus_level": 0.5, "recommendation": "proceed_to_vote"}`,
		`{"vote": "abstain", "reasoning": "No live model was available to evaluate the idea.", "confidence": 50}`,
	}
}

// ollamaReachable checks if an Ollama server is responding.
func ollamaReachable(baseURL string) bool {
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(c, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
