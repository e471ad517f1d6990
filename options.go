package gikai

import (
	"io/fs"
	"log/slog"
)

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	port            int
	databaseURL     string
	apiToken        string
	logger          *slog.Logger
	version         string
	generator       Generator
	debateDefaults  *DebateDefaults
	extraMigrations []fs.FS
}

// WithPort overrides the TCP port from config (GIKAI_PORT env var).
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithDatabaseURL overrides the database connection string from config (DATABASE_URL env var).
func WithDatabaseURL(url string) Option {
	return func(o *resolvedOptions) { o.databaseURL = url }
}

// WithAPIToken overrides the bearer token from config (GIKAI_API_TOKEN env var).
// An empty token leaves authentication disabled.
func WithAPIToken(token string) Option {
	return func(o *resolvedOptions) { o.apiToken = token }
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in logs and the MCP server.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithGenerator replaces the auto-detected generation provider
// (OpenAI/Ollama/static). The provided implementation must satisfy the
// Generator interface.
func WithGenerator(g Generator) Option {
	return func(o *resolvedOptions) { o.generator = g }
}

// WithDebateDefaults overrides the default debate bounds from config.
// Zero-valued fields keep the configured value. Per-request config can
// still override these within validation bounds.
func WithDebateDefaults(d DebateDefaults) Option {
	return func(o *resolvedOptions) { o.debateDefaults = &d }
}

// WithExtraMigrations adds an additional SQL migration filesystem to run
// after the built-in migrations. Multiple filesystems may be registered;
// they are applied in registration order.
func WithExtraMigrations(dir fs.FS) Option {
	return func(o *resolvedOptions) { o.extraMigrations = append(o.extraMigrations, dir) }
}
