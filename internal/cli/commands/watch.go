package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce collapses the bursts of events editors produce per save.
const watchDebounce = 200 * time.Millisecond

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	With      []string
	CheckOnly bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <model.ode>",
		Short: "Re-run a model whenever its file changes",
		Long: `Watch re-parses and re-integrates the model every time the file is
written, so edits show their effect immediately. Parse and simulator
errors are reported and watching continues.

The watch is on the containing directory, since most editors replace the
file on save instead of writing it in place.`,
		Example: `  odekit watch fhn.ode
  odekit watch --check-only fhn.ode
  odekit watch --with total=50 fhn.ode`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.With, "with", nil, "Override a parameter or option for every run (name=value, repeatable)")
	cmd.Flags().BoolVar(&opts.CheckOnly, "check-only", false, "Only re-parse on change, never run the simulator")

	return cmd
}

func runWatch(cmd *cobra.Command, path string, opts *WatchOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(absPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	r.Muted("watching %s", path)
	watchPass(cmd, cmdCtx, path, opts)

	runCh := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !eventMatches(event, absPath) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case runCh <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmdCtx.Logger.Warn("watch error", "error", err)
		case <-runCh:
			r.Println()
			r.Muted("%s changed", path)
			watchPass(cmd, cmdCtx, path, opts)
		}
	}
}

// watchPass checks the model once and, unless disabled, runs it. Failures
// are reported and swallowed so watching continues.
func watchPass(cmd *cobra.Command, cmdCtx *CommandContext, path string, opts *WatchOptions) {
	r := cmdCtx.Renderer

	prog, err := loadModel(path)
	if err != nil {
		r.Error("%v", err)
		return
	}
	if len(prog.Dropped) > 0 {
		reportDropped(r, prog)
		return
	}
	r.Success("parsed %d statements", len(prog.Commands))

	if opts.CheckOnly {
		return
	}
	if err := runModelOnce(cmd, cmdCtx, path, &RunOptions{With: opts.With}); err != nil {
		r.Error("%v", err)
	}
}

// eventMatches reports whether a watcher event concerns the model file.
// Create and Rename are included because editors that save through a
// temporary file never emit a plain Write for the watched name.
func eventMatches(event fsnotify.Event, path string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(path)
}
