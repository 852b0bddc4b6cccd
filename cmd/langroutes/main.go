package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/langroutes/internal/cache"
	"github.com/hpungsan/langroutes/internal/config"
	"github.com/hpungsan/langroutes/internal/logging"
	"github.com/hpungsan/langroutes/internal/mcp"
	"github.com/hpungsan/langroutes/internal/ops"
	"github.com/hpungsan/langroutes/internal/restcountries"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"list": true, "top": true, "show": true, "export": true,
	"serve": true, "mcp": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
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
	return isCharDevice(os.Stdin)
}

// isCharDevice reports whether f is a character device. A file that
// cannot be stat'ed is not one.
func isCharDevice(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  langroutes: countries by spoken language

  Usage: langroutes <command> [options]
         langroutes --help

  MCP server mode requires piped input.`)
}

// app holds everything a command needs. The cache lives only as long as
// the process.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sql.DB
	store  *cache.Store
	src    ops.Source
}

// setup loads config (global, repo, .env, environment) and wires the
// cached upstream client.
func setup() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not determine working directory: %w", err)
	}

	if err := config.LoadEnvFile(filepath.Join(cwd, ".env")); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.LoadWithRepo(filepath.Join(homeDir, config.DirName), cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg = config.ApplyEnv(cfg, os.Getenv)

	logger, err := logging.New(cfg.LogLevel, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	database, err := cache.Init()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	store := cache.NewStore(database, cfg.CacheTTL(), cfg.CacheMaxEntries)
	client := restcountries.New(cfg, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     database,
		store:  store,
		src:    cache.NewSource(store, client, logger),
	}, nil
}

func (a *app) Close() {
	_ = a.logger.Sync()
	a.db.Close()
}

// purgeLoop drops expired cache entries until ctx is done.
func (a *app) purgeLoop(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.store.Purge(ctx)
			if err != nil {
				a.logger.Warn("cache purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				a.logger.Debug("cache purged", zap.Int("entries", n))
			}
		}
	}
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Help and version need no config.
	if isHelpOrVersion() {
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if isCLIMode() {
		err := newCLIApp(a).Run(os.Args)
		a.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(os.Args) >= 2 && isTerminal() {
		a.Close()
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'langroutes --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default for piped stdin)
	err = mcp.Run(a.src, a.cfg, a.logger, Version)
	a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
