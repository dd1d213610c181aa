package commands

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/phaseplane/odekit/internal/cli/output"
	"github.com/phaseplane/odekit/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded simulator runs",
		Long: `History lists past simulator invocations, newest first: runs,
sweeps, nullcline computations, and dry-run checks, with their status
and timing.`,
		Example: `  odekit history
  odekit history --limit 5
  odekit history -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	runs, err := cmdCtx.Store.ListRuns(opts.Limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Muted("no runs recorded yet")
		return nil
	}

	styles := r.Styles()
	styled := r.EffectiveMode() == output.ModeText

	rows := make([][]string, len(runs))
	for i, run := range runs {
		status := string(run.Status)
		if styled {
			status = statusStyle(styles, run.Status).Render(status)
		}
		rows[i] = []string{
			shortID(run.ID),
			string(run.Kind),
			run.ModelPath,
			status,
			strconv.FormatInt(run.Rows, 10),
			formatRunDuration(run),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
		}
	}
	renderStringTable(r, []string{"ID", "Kind", "Model", "Status", "Rows", "Duration", "Started"}, rows)
	r.Printf("(%d runs)\n", len(runs))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatRunDuration renders the run duration, or a dash while it is still
// in flight.
func formatRunDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return (time.Duration(run.DurationMS) * time.Millisecond).String()
}

// statusStyle maps a run status to its color in the history table.
func statusStyle(s *output.Styles, status state.RunStatus) lipgloss.Style {
	switch status {
	case state.RunStatusSuccess:
		return s.Success
	case state.RunStatusError:
		return s.Error
	default:
		return s.Info
	}
}
