// Package cli implements the reefrank command-line interface.
//
// Commands:
//   - centrality: connectivity centrality and strongest predecessors
//   - rank: rank seeding and shading sites for every replicate
//   - allocate: split seeded coral area over chosen sites
//   - graph: render the connectivity network
//   - runs: inspect saved runs
//   - cache: manage the centrality and run cache
//   - serve: run the HTTP API
//
// All commands support --verbose (-v) for debug logging and --config for an
// explicit configuration file.
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/reefrank/pkg/buildinfo"
	"github.com/matzehuels/reefrank/pkg/cache"
	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/pipeline"
	"github.com/matzehuels/reefrank/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "reefrank"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Reefrank ranks reef sites for coral seeding and shading",
		Long:         `Reefrank ranks candidate reef sites for restoration interventions from larval connectivity, environmental stress and coral cover, and allocates seeded coral area over the chosen sites.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default .reefrank.yaml)")

	root.AddCommand(c.centralityCommand())
	root.AddCommand(c.rankCommand())
	root.AddCommand(c.allocateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner and Store Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, c.keyer(), c.Logger), nil
}

// keyer scopes cache keys when cache.prefix is set, so several projects can
// share one Redis database.
func (c *CLI) keyer() cache.Keyer {
	if p := c.Config.Cache.Prefix; p != "" {
		return cache.NewScopedKeyer(cache.NewDefaultKeyer(), p)
	}
	return cache.NewDefaultKeyer()
}

// newCache picks Redis when configured, the file cache otherwise. A cache
// that cannot be opened degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// openStore opens the configured run store, creating the parent directory
// of a SQLite file.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg := c.Config.Store
	if (cfg.Driver == store.DriverSQLite || cfg.Driver == "") && cfg.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, err
		}
	}
	return store.Open(ctx, cfg.Driver, cfg.DSN)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/reefrank/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Exit Codes
// =============================================================================

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2 // bad scenario, flags or file format
	ExitBadData     = 3 // domain data rejected
	ExitInterrupted = 130
)

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.IsData(err):
		return ExitBadData
	case errors.IsConfig(err), errors.Is(err, errors.ErrCodeInvalidInput), errors.Is(err, errors.ErrCodeInvalidFormat):
		return ExitUsage
	}
	return ExitFailure
}

// ErrorMessage renders err for the terminal: the message of a coded error
// prefixed by its code, anything else as is.
func ErrorMessage(err error) string {
	if code := errors.GetCode(err); code != "" {
		return string(code) + ": " + errors.UserMessage(err)
	}
	return err.Error()
}
