package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/gikai/internal/model"
)

func TestCatalogIsClosedAndUnique(t *testing.T) {
	seen := make(map[model.AgentKind]bool, len(model.Catalog))
	for _, p := range model.Catalog {
		assert.NotEmpty(t, p.Kind)
		assert.NotEmpty(t, p.Category)
		assert.NotEmpty(t, p.Persona)
		assert.False(t, seen[p.Kind], "duplicate catalog entry %s", p.Kind)
		seen[p.Kind] = true
	}
	assert.Len(t, seen, 19)
}

func TestLookupAgent(t *testing.T) {
	p, ok := model.LookupAgent(model.AgentBugHunter)
	require.True(t, ok)
	assert.Equal(t, model.CategoryQuality, p.Category)

	_, ok = model.LookupAgent("made-up-agent")
	assert.False(t, ok)
}

func TestValidAgentKind(t *testing.T) {
	assert.True(t, model.ValidAgentKind(model.AgentCodePoet))
	assert.False(t, model.ValidAgentKind(""))
	assert.False(t, model.ValidAgentKind("BUG-HUNTER"))
}
