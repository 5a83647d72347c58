package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ServerName is the key this console registers under in the host's MCP
// configuration file.
const ServerName = "seamless-agent"

// RegisterMCPServer merges this console's stdio bridge into the host MCP
// configuration, preserving every other entry. A missing or corrupt file is
// replaced by a fresh one rather than treated as fatal.
func RegisterMCPServer(configPath, command string, port int, token string) error {
	config := readConfig(configPath)

	servers, ok := config["mcpServers"].(map[string]any)
	if !ok {
		servers = map[string]any{}
		config["mcpServers"] = servers
	}
	servers[ServerName] = map[string]any{
		"command": command,
		"args":    []string{"--port", strconv.Itoa(port), "--token", token},
	}

	return writeConfig(configPath, config)
}

// UnregisterMCPServer removes only this console's entry, leaving the rest of
// the file untouched. A missing file is a no-op.
func UnregisterMCPServer(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	config := readConfig(configPath)
	servers, ok := config["mcpServers"].(map[string]any)
	if !ok {
		return nil
	}
	if _, present := servers[ServerName]; !present {
		return nil
	}
	delete(servers, ServerName)

	return writeConfig(configPath, config)
}

func readConfig(path string) map[string]any {
	config := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		// Corrupt JSON falls through to an empty config.
		json.Unmarshal(data, &config)
	}
	return config
}

func writeConfig(path string, config map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mcp config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write mcp config: %w", err)
	}
	return nil
}
