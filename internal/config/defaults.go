package config

import "github.com/bobmcallan/confluence-mcp/internal/common"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 8000,
			Host: "0.0.0.0",
		},
		Upstream: UpstreamConfig{
			TimeoutSeconds: 30,
		},
		MCP: MCPConfig{
			ServerName: "confluence-mcp",
		},
		Logging: common.LoggingConfig{
			Level:      "info",
			Format:     "text",
			Outputs:    []string{"console"},
			FilePath:   "./logs/confluence-mcp.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}
