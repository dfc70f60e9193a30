package app

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/confluence-mcp/internal/common"
	"github.com/bobmcallan/confluence-mcp/internal/config"
	"github.com/bobmcallan/confluence-mcp/internal/handlers"
	"github.com/bobmcallan/confluence-mcp/internal/mcp"
	"github.com/bobmcallan/confluence-mcp/internal/profile"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	// Defaults is the fallback connection snapshot, taken once at startup.
	Defaults   profile.Defaults
	Dispatcher *mcp.Dispatcher

	// HTTP handlers
	InfoHandler    *handlers.InfoHandler
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
	MCPHandler     *mcp.Handler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Defaults: cfg.ConnectionDefaults(),
	}

	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if !cfg.IsProduction() && env != "dev" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}
	if cfg.IsProduction() && isVerboseLevel(cfg.Logging.Level) {
		logger.Warn().
			Str("level", cfg.Logging.Level).
			Msg("verbose logging enabled in production; upstream paths and page ids will be logged")
	}

	dispatcher, err := mcp.NewDispatcher(cfg.Upstream.Timeout(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}
	a.Dispatcher = dispatcher

	if !a.Defaults.Complete() {
		logger.Warn().Msg("no complete CONFLUENCE_* defaults; tool calls must carry a config parameter")
	}

	a.initHandlers()

	logger.Info().Msg("application initialization complete")

	return a, nil
}

func isVerboseLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return true
	}
	return false
}

// ServerInfo identifies this server to MCP clients.
func (a *App) ServerInfo() mcp.ServerInfo {
	return mcp.ServerInfo{
		Name:    a.Config.MCP.ServerName,
		Version: config.Version,
	}
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	info := a.ServerInfo()

	a.InfoHandler = handlers.NewInfoHandler(info.Name, info.Version, len(a.Dispatcher.Tools()), a.Logger)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.MCPHandler = mcp.NewHandler(a.Dispatcher, a.Defaults, info, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	return nil
}
