package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run from a temp dir so a developer's local config.yaml is not picked up.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Data.Source)
	assert.Contains(t, cfg.Data.ClientsFile, "clients.json")
	assert.Contains(t, cfg.Data.DismissalsFile, "dismissals.json")
	assert.Equal(t, "neo4j://localhost:7687", cfg.Neo4j.URI)
	assert.Empty(t, cfg.Claude.APIKey)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, ":8087", cfg.API.ListenAddr)
	assert.Empty(t, cfg.API.AuthToken)

	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ADVISOR_PULSE_DATA_SOURCE", "graph")
	t.Setenv("ADVISOR_PULSE_NEO4J_URI", "neo4j://db.internal:7687")
	t.Setenv("ADVISOR_PULSE_API_AUTH_TOKEN", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "graph", cfg.Data.Source)
	assert.Equal(t, "neo4j://db.internal:7687", cfg.Neo4j.URI)
	assert.Equal(t, "hunter2", cfg.API.AuthToken)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := &Config{Data: DataConfig{Source: "file"}}
	assert.ErrorContains(t, cfg.Validate(), "data.clients_file is required")

	cfg = &Config{Data: DataConfig{Source: "graph"}}
	assert.ErrorContains(t, cfg.Validate(), "neo4j.uri is required")

	cfg = &Config{Data: DataConfig{Source: "carrier-pigeon"}}
	assert.ErrorContains(t, cfg.Validate(), "unknown data.source")
}

func TestClaudeConfigMasksAPIKey(t *testing.T) {
	c := ClaudeConfig{APIKey: "sk-ant-api03-verysecret", Model: "claude-haiku-4-5-20251001"}
	s := c.String()
	assert.NotContains(t, s, "verysecret")
	assert.Contains(t, s, "sk-a")

	short := ClaudeConfig{APIKey: "tiny"}
	assert.Contains(t, short.String(), "***")
}
