package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/phaseplane/odekit/internal/cli/output"
	"github.com/phaseplane/odekit/internal/sim"
	"github.com/phaseplane/odekit/internal/state"
	"github.com/phaseplane/odekit/pkg/xpp"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	With    []string
	Out     string
	ParFile string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <model.ode>",
		Short: "Integrate a model through xppaut",
		Long: `Run hands a model to xppaut for silent integration and reports a
summary: row and column counts, the integrated time range, and the final
state. The full trajectory can be exported with --out.

Parameter and option overrides apply for this run only; the model file
is never modified.`,
		Example: `  # Integrate with the model's own settings
  odekit run neuron.ode

  # Override parameters and export the trajectory
  odekit run --with iapp=1.2 --with total=500 --out trajectory.csv neuron.ode`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.With, "with", nil, "Override a parameter or option for this run (name=value, repeatable)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write the full trajectory to a CSV file")
	cmd.Flags().StringVar(&opts.ParFile, "parfile", "", "Load parameter values from an xppaut .par file")

	return cmd
}

func runRun(cmd *cobra.Command, path string, opts *RunOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return runModelOnce(cmd, cmdCtx, path, opts)
}

// runModelOnce parses, integrates, and summarizes one model run. The watch
// command reuses it on every file change.
func runModelOnce(cmd *cobra.Command, cmdCtx *CommandContext, path string, opts *RunOptions) error {
	r := cmdCtx.Renderer

	prog, err := loadModel(path)
	if err != nil {
		return err
	}
	if n := len(prog.Dropped); n > 0 {
		reportDropped(r, prog)
		return fmt.Errorf("%d statements failed to parse", n)
	}

	overrides, err := parseOverrides(opts.With)
	if err != nil {
		return err
	}
	if err := cmdCtx.Cfg.ValidateWorkDir(); err != nil {
		return err
	}

	var res *sim.Result
	start := time.Now()
	err = recordRun(cmdCtx.Store, state.RunKindRun, path, func() (int64, error) {
		var err error
		res, err = cmdCtx.Sim.Run(cmd.Context(), prog, sim.RunOptions{
			Overrides: overrides,
			ParFile:   opts.ParFile,
		})
		if err != nil {
			return 0, err
		}
		return int64(len(res.Rows)), nil
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if opts.Out != "" {
		if err := writeResultCSV(opts.Out, res); err != nil {
			return err
		}
	}
	return renderRunSummary(r, path, res, elapsed, opts.Out)
}

// parseOverrides converts repeated name=value flags into KV pairs.
func parseOverrides(with []string) ([]xpp.KV, error) {
	if len(with) == 0 {
		return nil, nil
	}
	kvs := make([]xpp.KV, 0, len(with))
	for _, w := range with {
		k, v, ok := strings.Cut(w, "=")
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid override %q (want name=value)", w)
		}
		kvs = append(kvs, xpp.KV{Key: k, Value: v})
	}
	return kvs, nil
}

// runOutput is the JSON shape of a run summary.
type runOutput struct {
	Model      string             `json:"model"`
	Rows       int                `json:"rows"`
	Columns    []string           `json:"columns"`
	TStart     float64            `json:"t_start"`
	TEnd       float64            `json:"t_end"`
	DurationMS int64              `json:"duration_ms"`
	Final      map[string]float64 `json:"final"`
	OutFile    string             `json:"out_file,omitempty"`
}

func renderRunSummary(r *output.Renderer, path string, res *sim.Result, elapsed time.Duration, outFile string) error {
	if len(res.Rows) == 0 {
		r.Warning("simulator produced no output rows")
		return nil
	}

	t, err := res.Column("t")
	if err != nil {
		return err
	}
	final := res.Final()

	if r.EffectiveMode() == output.ModeJSON {
		out := &runOutput{
			Model:      path,
			Rows:       len(res.Rows),
			Columns:    res.Columns,
			TStart:     t[0],
			TEnd:       t[len(t)-1],
			DurationMS: elapsed.Milliseconds(),
			Final:      make(map[string]float64, len(res.Columns)),
			OutFile:    outFile,
		}
		for i, col := range res.Columns {
			if i < len(final) {
				out.Final[col] = final[i]
			}
		}
		return r.JSON(out)
	}

	r.Success("run completed in %s", elapsed.Round(time.Millisecond))
	r.Println(output.FormatKeyValue("model", path))
	r.Println(output.FormatKeyValue("rows", len(res.Rows)))
	r.Println(output.FormatKeyValue("columns", strings.Join(res.Columns, ", ")))
	r.Println(output.FormatKeyValue("t", fmt.Sprintf("%s .. %s", formatFloat(t[0]), formatFloat(t[len(t)-1]))))
	if outFile != "" {
		r.Println(output.FormatKeyValue("saved", outFile))
	}
	r.Println()

	r.Header("Final State")
	rows := make([][]string, 0, len(res.Columns))
	for i, col := range res.Columns {
		if i < len(final) {
			rows = append(rows, []string{col, formatFloat(final[i])})
		}
	}
	renderStringTable(r, []string{"Column", "Value"}, rows)
	return nil
}
