package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for advisor-pulse.
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j"`
	Claude  ClaudeConfig  `mapstructure:"claude"`
	Logging LoggingConfig `mapstructure:"logging"`
	API     APIConfig     `mapstructure:"api"`
}

// DataConfig holds client book and dismissal persistence settings.
type DataConfig struct {
	// Source selects where clients are loaded from: "file" or "graph".
	Source         string `mapstructure:"source"`
	ClientsFile    string `mapstructure:"clients_file"`
	DismissalsFile string `mapstructure:"dismissals_file"`
}

// Neo4jConfig holds graph database connection settings for the graph-backed
// client source.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// ClaudeConfig holds Anthropic Claude API settings for briefing narration and
// email drafting. An empty APIKey disables the LLM and falls back to
// template output.
type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// String returns a safe representation of ClaudeConfig with the API key masked.
func (c ClaudeConfig) String() string {
	return fmt.Sprintf("ClaudeConfig{APIKey:%s, Model:%s}", maskAPIKey(c.APIKey), c.Model)
}

// maskAPIKey shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	dataDir := filepath.Join(homeDir(), ".advisor-pulse")

	// Defaults
	v.SetDefault("data.source", "file")
	v.SetDefault("data.clients_file", filepath.Join(dataDir, "clients.json"))
	v.SetDefault("data.dismissals_file", filepath.Join(dataDir, "dismissals.json"))

	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "neo4j")

	v.SetDefault("claude.api_key", "")
	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8087")
	v.SetDefault("api.auth_token", "")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)
	v.AddConfigPath(".")

	// Environment variables: ADVISOR_PULSE_CLAUDE_API_KEY etc.
	v.SetEnvPrefix("ADVISOR_PULSE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration consistency for the selected client source.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "file":
		if c.Data.ClientsFile == "" {
			return fmt.Errorf("data.clients_file is required when data.source is file")
		}
	case "graph":
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j.uri is required when data.source is graph")
		}
	default:
		return fmt.Errorf("unknown data.source %q (expected file or graph)", c.Data.Source)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
