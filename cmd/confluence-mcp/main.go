// confluence-mcp exposes Confluence Cloud as a set of MCP tools.
//
// HTTP mode (default) serves JSON-RPC on /mcp; each tools/call may carry its
// own connection in a base64 ?config= parameter, falling back to the
// CONFLUENCE_URL, CONFLUENCE_USERNAME and CONFLUENCE_API_TOKEN defaults.
// Stdio mode (--stdio) serves the same tools to a desktop client that
// launches the binary, using the defaults only.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	"github.com/bobmcallan/confluence-mcp/internal/app"
	"github.com/bobmcallan/confluence-mcp/internal/common"
	"github.com/bobmcallan/confluence-mcp/internal/config"
	"github.com/bobmcallan/confluence-mcp/internal/mcp"
	"github.com/bobmcallan/confluence-mcp/internal/profile"
	"github.com/bobmcallan/confluence-mcp/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configFiles  []string
		port         int
		host         string
		stdio        bool
		decodeConfig string
		check        bool
		showVersion  bool
	)

	flagSet := pflag.NewFlagSet("confluence-mcp", pflag.ContinueOnError)
	flagSet.StringArrayVarP(&configFiles, "config", "c", nil, "configuration file path (repeatable; later files win)")
	flagSet.IntVarP(&port, "port", "p", 0, "server port (overrides config)")
	flagSet.StringVar(&host, "host", "", "server host (overrides config)")
	flagSet.BoolVar(&stdio, "stdio", false, "serve MCP over stdin/stdout instead of HTTP")
	flagSet.StringVar(&decodeConfig, "decode-config", "", "decode a base64 config blob and print it with the credential redacted")
	flagSet.BoolVar(&check, "check", false, "call get_current_user with the default connection and exit")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("confluence-mcp %s\n", config.CurrentVersion())
		return nil
	}

	if decodeConfig != "" {
		p, err := profile.Resolve(decodeConfig, true, profile.Defaults{})
		if err != nil {
			return err
		}
		fmt.Println(p.String())
		return nil
	}

	if _, err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	if len(configFiles) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				configFiles = append(configFiles, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		return err
	}
	config.ApplyFlagOverrides(cfg, port, host)

	if issues := cfg.Validate(); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "Configuration is invalid:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  - %s\n", issue)
		}
		return fmt.Errorf("%d configuration issue(s)", len(issues))
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	logger.Info().
		Int("port", cfg.Server.Port).
		Str("host", cfg.Server.Host).
		Str("environment", cfg.Environment).
		Str("config_files", fmt.Sprintf("%v", configFiles)).
		Msg("configuration loaded")

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case check:
		return runCheck(ctx, application)
	case stdio:
		return runStdio(application)
	default:
		return runHTTP(ctx, application)
	}
}

// runHTTP serves until ctx is cancelled, then drains in-flight requests.
func runHTTP(ctx context.Context, application *app.App) error {
	logger := application.Logger
	srv := server.New(application)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://%s/mcp", srv.Addr())).
		Msg("server ready")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Str("error", err.Error()).Msg("server shutdown failed")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}

// runStdio serves the registry on stdin/stdout. stdout belongs to the MCP
// stream, so logging stays on stderr.
func runStdio(application *app.App) error {
	p, profileErr := profile.Resolve("", false, application.Defaults)
	if profileErr != nil {
		application.Logger.Warn().
			Str("error", profileErr.Error()).
			Msg("no usable default connection; tool calls will fail")
	}

	s := mcp.NewStdioServer(application.Dispatcher, application.ServerInfo(), p, profileErr)
	return mcpserver.ServeStdio(s)
}

// runCheck verifies the default connection end to end.
func runCheck(ctx context.Context, application *app.App) error {
	p, err := profile.Resolve("", false, application.Defaults)
	if err != nil {
		return err
	}

	res := application.Dispatcher.Dispatch(ctx, mcp.Invocation{
		Tool:      "get_current_user",
		Arguments: map[string]any{},
	}, p)
	if f := res.Failure(); f != nil {
		return f
	}

	fmt.Printf("connected to %s\n", p.APIOrigin())
	for _, c := range res.Payload().Content {
		if text, ok := c.(mcpgo.TextContent); ok {
			fmt.Println(text.Text)
		}
	}
	return nil
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Binary-relative paths are tried before the working directory.
func configSearchPaths() []string {
	candidates := []string{
		"confluence-mcp.toml",
		filepath.Join("config", "confluence-mcp.toml"),
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, "confluence-mcp.toml"),
		filepath.Join(binDir, "config", "confluence-mcp.toml"),
	}
	paths = append(paths, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}
