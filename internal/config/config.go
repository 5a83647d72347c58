// Package config resolves console settings from an optional YAML file plus
// environment overrides. Environment wins over file, file wins over
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// DataDir roots the database, token and attachment scratch space.
	DataDir        string `yaml:"dataDir"`
	DBPath         string `yaml:"dbPath"`
	TokenPath      string `yaml:"tokenPath"`
	AttachmentsDir string `yaml:"attachmentsDir"`
	// MCPConfigPath is the host's MCP registration file the console merges
	// itself into on startup.
	MCPConfigPath string `yaml:"mcpConfigPath"`
	// MCPCommand is the stdio bridge binary written into the registration.
	MCPCommand string `yaml:"mcpCommand"`
	MaxHistory int    `yaml:"maxHistory"`
	// CleanupDelaySeconds is how long resolved temp attachments linger
	// before deletion.
	CleanupDelaySeconds int    `yaml:"cleanupDelaySeconds"`
	LogLevel            string `yaml:"logLevel"`
}

// Load resolves the configuration. When configPath is empty the default
// location <dataDir>/config.yaml is tried; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".seamless-agent")

	cfg := &Config{
		DataDir:             dataDir,
		MCPConfigPath:       filepath.Join(home, ".antigravity", "mcp_config.json"),
		MCPCommand:          "seamless-agent-mcp",
		MaxHistory:          50,
		CleanupDelaySeconds: 60,
		LogLevel:            "info",
	}

	if configPath == "" {
		configPath = filepath.Join(dataDir, "config.yaml")
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	cfg.DataDir = envStr("SEAMLESS_DATA_DIR", cfg.DataDir)
	cfg.DBPath = envStr("SEAMLESS_DB_PATH", cfg.DBPath)
	cfg.TokenPath = envStr("SEAMLESS_TOKEN_PATH", cfg.TokenPath)
	cfg.AttachmentsDir = envStr("SEAMLESS_ATTACHMENTS_DIR", cfg.AttachmentsDir)
	cfg.MCPConfigPath = envStr("SEAMLESS_MCP_CONFIG", cfg.MCPConfigPath)
	cfg.MCPCommand = envStr("SEAMLESS_MCP_COMMAND", cfg.MCPCommand)
	cfg.MaxHistory = envInt("SEAMLESS_MAX_HISTORY", cfg.MaxHistory)
	cfg.CleanupDelaySeconds = envInt("SEAMLESS_CLEANUP_DELAY_SECONDS", cfg.CleanupDelaySeconds)
	cfg.LogLevel = envStr("SEAMLESS_LOG_LEVEL", cfg.LogLevel)

	// Derived paths follow DataDir unless set explicitly.
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "console.db")
	}
	if cfg.TokenPath == "" {
		cfg.TokenPath = filepath.Join(cfg.DataDir, "session.token")
	}
	if cfg.AttachmentsDir == "" {
		cfg.AttachmentsDir = filepath.Join(cfg.DataDir, "attachments")
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("dataDir must not be empty")
	}
	if c.MaxHistory < 1 {
		return fmt.Errorf("maxHistory must be positive, got %d", c.MaxHistory)
	}
	if c.CleanupDelaySeconds < 0 {
		return fmt.Errorf("cleanupDelaySeconds must not be negative, got %d", c.CleanupDelaySeconds)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
