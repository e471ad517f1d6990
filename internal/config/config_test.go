package config

import (
	"testing"
	"time"
)

func TestEnvIntValid(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if v := envInt("TEST_INT", 0); v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestEnvIntFallback(t *testing.T) {
	// TEST_INT_MISSING is not set.
	if v := envInt("TEST_INT_MISSING", 99); v != 99 {
		t.Fatalf("expected fallback 99, got %d", v)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "abc")
	if v := envInt("TEST_INT_BAD", 7); v != 7 {
		t.Fatalf("expected fallback 7 for non-integer value, got %d", v)
	}
}

func TestEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.85")
	if v := envFloat("TEST_FLOAT", 0); v != 0.85 {
		t.Fatalf("expected 0.85, got %f", v)
	}
	if v := envFloat("TEST_FLOAT_MISSING", 0.7); v != 0.7 {
		t.Fatalf("expected fallback 0.7, got %f", v)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	if !envBool("TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("TEST_BOOL_BAD", "yep")
	if envBool("TEST_BOOL_BAD", false) {
		t.Fatal("expected fallback false for unparseable value")
	}
	if !envBool("TEST_BOOL_MISSING", true) {
		t.Fatal("expected fallback true")
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "5s")
	if v := envDuration("TEST_DUR", 0); v != 5*time.Second {
		t.Fatalf("expected 5s, got %s", v)
	}
	t.Setenv("TEST_DUR_BAD", "five-seconds")
	if v := envDuration("TEST_DUR_BAD", time.Minute); v != time.Minute {
		t.Fatalf("expected fallback 1m, got %s", v)
	}
}

func TestLoadSucceedsWithDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed with defaults, got: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.GenerationProvider != "auto" {
		t.Fatalf("expected default provider auto, got %q", cfg.GenerationProvider)
	}
	if cfg.DebateConsensusThreshold != 0.7 {
		t.Fatalf("expected default consensus threshold 0.7, got %f", cfg.DebateConsensusThreshold)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("GIKAI_GENERATION_PROVIDER", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to fail with unknown provider")
	}
}

func TestLoadRejectsBadDebateBounds(t *testing.T) {
	t.Setenv("GIKAI_DEBATE_MIN_AGENTS", "6")
	t.Setenv("GIKAI_DEBATE_MAX_AGENTS", "4")
	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to fail when max agents < min agents")
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	t.Setenv("GIKAI_DEBATE_CONSENSUS_THRESHOLD", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to fail with threshold above 1")
	}
}
