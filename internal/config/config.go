package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/confluence-mcp/internal/common"
	"github.com/bobmcallan/confluence-mcp/internal/profile"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Environment string               `toml:"environment"`
	Server      ServerConfig         `toml:"server"`
	Confluence  ConfluenceConfig     `toml:"confluence"`
	Upstream    UpstreamConfig       `toml:"upstream"`
	MCP         MCPConfig            `toml:"mcp"`
	Logging     common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// ConfluenceConfig holds the process-wide connection defaults used when a
// request carries no config blob.
type ConfluenceConfig struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	APIToken string `toml:"api_token"`
}

// UpstreamConfig bounds outbound Confluence calls.
type UpstreamConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Timeout returns the outbound call timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// MCPConfig contains MCP server identity settings.
type MCPConfig struct {
	ServerName string `toml:"server_name"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config, os.LookupEnv)
	config.Environment = normalizeEnvironment(config.Environment)

	return config, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables already set are left alone and missing files are
// skipped.
func LoadDotEnv(paths ...string) ([]string, error) {
	var loaded []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// CONFLUENCE_URL, CONFLUENCE_USERNAME and CONFLUENCE_API_TOKEN keep their
// established names; the rest use the CONFLUENCE_MCP_ prefix.
func applyEnvOverrides(config *Config, lookup func(string) (string, bool)) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if env := get("CONFLUENCE_MCP_ENV"); env != "" {
		config.Environment = env
	}
	if host := get("CONFLUENCE_MCP_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	// PORT is what container platforms inject; the prefixed form wins.
	for _, key := range []string{"PORT", "CONFLUENCE_MCP_SERVER_PORT"} {
		if port := get(key); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				config.Server.Port = p
			}
		}
	}
	if url := get(profile.EnvURL); url != "" {
		config.Confluence.URL = url
	}
	if username := get(profile.EnvUsername); username != "" {
		config.Confluence.Username = username
	}
	if token := get(profile.EnvAPIToken); token != "" {
		config.Confluence.APIToken = token
	}
	if timeout := get("CONFLUENCE_MCP_UPSTREAM_TIMEOUT"); timeout != "" {
		if s, err := strconv.Atoi(timeout); err == nil {
			config.Upstream.TimeoutSeconds = s
		}
	}
	if level := get("CONFLUENCE_MCP_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := get("CONFLUENCE_MCP_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true, "disabled": true,
}

// Validate returns human-readable configuration problems. An empty slice
// means the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d is outside 1-65535", c.Server.Port))
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		issues = append(issues, fmt.Sprintf("upstream.timeout_seconds must be positive, got %d", c.Upstream.TimeoutSeconds))
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		issues = append(issues, fmt.Sprintf("logging.level %q is not a known level", c.Logging.Level))
	}
	if c.MCP.ServerName == "" {
		issues = append(issues, "mcp.server_name must not be empty")
	}
	return issues
}

// ConnectionDefaults snapshots the Confluence fallback connection. Taken
// once at startup and passed to each request explicitly.
func (c *Config) ConnectionDefaults() profile.Defaults {
	return profile.Defaults{
		URL:      c.Confluence.URL,
		Username: c.Confluence.Username,
		APIToken: c.Confluence.APIToken,
	}
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "prod"
}

// normalizeEnvironment maps environment aliases to their canonical short forms.
func normalizeEnvironment(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development":
		return "dev"
	case "production":
		return "prod"
	default:
		return env
	}
}
