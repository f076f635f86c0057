package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hpungsan/statustracker/internal/config"
	"github.com/hpungsan/statustracker/internal/logging"
	"github.com/hpungsan/statustracker/internal/mcp"
	"github.com/hpungsan/statustracker/internal/metrics"
	"github.com/hpungsan/statustracker/internal/remote"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"names": true, "uuid": true, "counts": true, "rolling": true,
	"sessions": true, "chart": true, "summary": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// Global flags and --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	if arg == "--server" || arg == "-s" || strings.HasPrefix(arg, "--server=") {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  statustracker

  Occupancy history client for a statustracker server

  Usage: statustracker <command> [options]
         statustracker --help

  MCP server mode requires piped input.`)
}

// loadConfig reads ~/.statustracker, the nearest repo config and the environment.
func loadConfig() (*config.Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not determine working directory: %w", err)
	}

	cfg, err := config.LoadWithRepo(filepath.Join(homeDir, config.DirName), cwd)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newClient builds the remote client for cfg.ServerURL.
func newClient(cfg *config.Config, m *metrics.Metrics) *remote.Client {
	return remote.New(remote.Options{
		BaseURL:      cfg.ServerURL,
		Timeout:      cfg.RequestTimeout(),
		UUIDCacheTTL: cfg.UUIDCacheTTL(),
		NameMapTTL:   cfg.NameMapTTL(),
		Metrics:      m,
		Logger:       slog.Default(),
	})
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before loading config
	if isHelpOrVersion() {
		app := newCLIApp(&runtime{cfg: config.DefaultConfig()})
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// .env is optional
	envErr := godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if envErr != nil && !os.IsNotExist(envErr) {
		slog.Warn("could not load .env", "error", envErr)
	}
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		slog.Warn("ignoring unknown disabled_tools", "tools", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		slog.Warn("ignoring unknown disabled_types", "types", unknown)
	}

	rt := &runtime{cfg: cfg, metrics: metrics.New()}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(rt)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'statustracker --help' for usage.\n")
		os.Exit(1)
	}

	if cfg.ServerURL == "" {
		slog.Warn("no server configured; every tool will report no data", "env", config.EnvServer)
	}

	// MCP server mode (default)
	if err := mcp.Run(newClient(cfg, rt.metrics), cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
