// Package sim drives an external xppaut installation. It writes model and
// initial-condition files, launches silent-mode processes, and reads back
// the data files xppaut leaves behind.
package sim

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Simulator runs xppaut processes against generated model files.
// Methods are safe for concurrent use as long as callers pass distinct
// UIDs; the one exception is Nullclines, whose output file name is fixed
// inside xppaut itself.
type Simulator struct {
	xppaut  string
	workDir string
	keep    bool
	logger  *slog.Logger
}

// Config holds simulator configuration.
type Config struct {
	// XPPautPath is the binary to invoke, a name resolved on PATH or an
	// absolute path. Defaults to "xppaut".
	XPPautPath string
	// WorkDir is the directory model and data files are written to.
	// Relative file names in xppaut arguments resolve against it.
	// Defaults to the current directory.
	WorkDir string
	// KeepFiles disables removal of temporary files, for debugging.
	KeepFiles bool
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a simulator. The xppaut binary is not checked here; the
// first invocation reports a missing installation.
func New(cfg Config) *Simulator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	path := cfg.XPPautPath
	if path == "" {
		path = "xppaut"
	}
	dir := cfg.WorkDir
	if dir == "" {
		dir = "."
	}
	return &Simulator{xppaut: path, workDir: dir, keep: cfg.KeepFiles, logger: logger}
}

// execute runs the binary with args in the work directory and returns the
// combined output. xppaut reports most problems on stderr while exiting
// zero, so the combined text is what callers show the user.
func (s *Simulator) execute(ctx context.Context, args ...string) (string, error) {
	s.logger.Debug("invoking xppaut", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, s.xppaut, args...)
	cmd.Dir = s.workDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("xppaut failed: %w: %s", err, msg)
		}
		return "", fmt.Errorf("xppaut failed: %w", err)
	}
	return stdout.String() + stderr.String(), nil
}
