package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/phaseplane/odekit/internal/cli/config"
	"github.com/phaseplane/odekit/internal/cli/output"
	"github.com/phaseplane/odekit/internal/sim"
	"github.com/phaseplane/odekit/internal/state"
	"github.com/phaseplane/odekit/pkg/xpp"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Sim      *sim.Simulator
	Store    *state.SQLiteStore
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a simulator and run store.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutStore(cmd)

	store, err := openStore(cmdCtx.Cfg)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Store = store

	cleanup := func() {
		_ = store.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without opening the
// run store. Useful for commands that never record runs.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Sim:      newSimulator(cfg, logger),
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		XPPautPath:   getEnvOrDefault("ODEKIT_XPPAUT", config.DefaultXPPautPath),
		WorkDir:      getEnvOrDefault("ODEKIT_WORKDIR", config.DefaultWorkDir),
		StatePath:    getEnvOrDefault("ODEKIT_STATE_PATH", config.DefaultStateFile),
		KeepFiles:    os.Getenv("ODEKIT_KEEP_FILES") == "true",
		Verbose:      os.Getenv("ODEKIT_VERBOSE") == "true",
		OutputFormat: os.Getenv("ODEKIT_OUTPUT"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func newSimulator(cfg *config.Config, logger *slog.Logger) *sim.Simulator {
	return sim.New(sim.Config{
		XPPautPath: cfg.XPPautPath,
		WorkDir:    cfg.WorkDir,
		KeepFiles:  cfg.KeepFiles,
		Logger:     logger,
	})
}

// openStore opens the run store at cfg.StatePath and applies pending migrations.
func openStore(cfg *config.Config) (*state.SQLiteStore, error) {
	if cfg.StatePath != state.MemoryPath {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return store, nil
}

// loadModel reads and parses an .ode file. Statements the parser had to drop
// are preserved on the returned program's Dropped list.
func loadModel(path string) (*xpp.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	prog, err := xpp.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// reportDropped prints one error line per statement the parser dropped.
func reportDropped(r *output.Renderer, prog *xpp.Program) {
	for _, d := range prog.Dropped {
		r.Error("%s", d.Error())
	}
}

// recordRun wraps fn with run bookkeeping: a row is created before fn starts
// and completed with its status, row count, and duration afterwards. The
// returned error is fn's own error; bookkeeping failures take precedence only
// when fn succeeded.
func recordRun(store *state.SQLiteStore, kind state.RunKind, modelPath string, fn func() (int64, error)) error {
	run, err := store.CreateRun(kind, modelPath)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	rows, err := fn()
	if err != nil {
		_ = store.CompleteRun(run.ID, state.RunStatusError, rows, err.Error())
		return err
	}
	return store.CompleteRun(run.ID, state.RunStatusSuccess, rows, "")
}
