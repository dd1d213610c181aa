package commands

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/phaseplane/odekit/internal/cli/output"
	"github.com/phaseplane/odekit/internal/sim"
	"github.com/phaseplane/odekit/internal/state"
	"github.com/phaseplane/odekit/pkg/xpp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SweepOptions holds options for the sweep command.
type SweepOptions struct {
	Param    string
	From     float64
	To       float64
	Steps    int
	Parallel int
	Spec     string
	With     []string
	Out      string
}

// sweepSpec mirrors a sweep description file. Values wins over the
// from/to/steps grid when both are given. With values stay untyped so
// unquoted numbers decode.
type sweepSpec struct {
	Parameter string         `yaml:"parameter"`
	From      float64        `yaml:"from"`
	To        float64        `yaml:"to"`
	Steps     int            `yaml:"steps"`
	Values    []float64      `yaml:"values"`
	Parallel  int            `yaml:"parallel"`
	With      map[string]any `yaml:"with"`
}

// sweepPlan is a resolved sweep: flags and spec file merged.
type sweepPlan struct {
	Parameter string
	Values    []float64
	Overrides []xpp.KV
	Parallel  int
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand() *cobra.Command {
	opts := &SweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep <model.ode>",
		Short: "Run a model across a range of parameter values",
		Long: `Sweep integrates the model once per value of a parameter and
summarizes the final state of each run. Values come from an evenly
spaced grid (--from/--to/--steps) or from a sweep file (--spec).

A sweep file is YAML:

    parameter: iapp
    from: 0
    to: 2
    steps: 21
    parallel: 4
    with:
      total: 200

Runs fan out over a bounded pool of xppaut processes; the first failure
cancels the rest.`,
		Example: `  # 21 evenly spaced values of iapp
  odekit sweep --param iapp --from 0 --to 2 --steps 21 fhn.ode

  # Same sweep from a file, four runs at a time
  odekit sweep --spec sweep.yaml --parallel 4 fhn.ode`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Param, "param", "", "Parameter to sweep")
	cmd.Flags().Float64Var(&opts.From, "from", 0, "First value of the sweep")
	cmd.Flags().Float64Var(&opts.To, "to", 0, "Last value of the sweep")
	cmd.Flags().IntVar(&opts.Steps, "steps", 0, "Number of values between from and to")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 0, "Concurrent xppaut processes (default 4)")
	cmd.Flags().StringVar(&opts.Spec, "spec", "", "Read the sweep description from a YAML file")
	cmd.Flags().StringArrayVar(&opts.With, "with", nil, "Override a parameter or option for every run (name=value, repeatable)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write per-value final states to a CSV file")

	return cmd
}

func runSweep(cmd *cobra.Command, path string, opts *SweepOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	plan, err := resolveSweep(opts)
	if err != nil {
		return err
	}

	prog, err := loadModel(path)
	if err != nil {
		return err
	}
	if n := len(prog.Dropped); n > 0 {
		reportDropped(r, prog)
		return fmt.Errorf("%d statements failed to parse", n)
	}
	if err := cmdCtx.Cfg.ValidateWorkDir(); err != nil {
		return err
	}

	var points []sim.SweepPoint
	start := time.Now()
	err = recordRun(cmdCtx.Store, state.RunKindSweep, path, func() (int64, error) {
		var err error
		points, err = cmdCtx.Sim.Sweep(cmd.Context(), prog, sim.SweepOptions{
			Parameter: plan.Parameter,
			Values:    plan.Values,
			Overrides: plan.Overrides,
			Parallel:  plan.Parallel,
		})
		if err != nil {
			return 0, err
		}
		var rows int64
		for _, p := range points {
			rows += int64(len(p.Result.Rows))
		}
		return rows, nil
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if opts.Out != "" {
		if err := writeSweepCSV(opts.Out, plan.Parameter, points); err != nil {
			return err
		}
	}
	return renderSweepSummary(r, path, plan.Parameter, points, elapsed, opts.Out)
}

// resolveSweep merges the spec file and flags into one plan. Flags win for
// parallelism, and --with overrides are applied after the spec's.
func resolveSweep(opts *SweepOptions) (*sweepPlan, error) {
	plan := &sweepPlan{
		Parameter: opts.Param,
		Parallel:  opts.Parallel,
	}

	if opts.Spec != "" {
		raw, err := os.ReadFile(opts.Spec)
		if err != nil {
			return nil, fmt.Errorf("failed to read sweep file: %w", err)
		}
		var spec sweepSpec
		if err := yaml.Unmarshal(raw, &spec); err != nil {
			return nil, fmt.Errorf("failed to parse sweep file: %w", err)
		}
		if plan.Parameter == "" {
			plan.Parameter = spec.Parameter
		}
		if len(spec.Values) > 0 {
			plan.Values = spec.Values
		} else if spec.Steps > 0 {
			plan.Values = sim.Linspace(spec.From, spec.To, spec.Steps)
		}
		if plan.Parallel == 0 {
			plan.Parallel = spec.Parallel
		}
		keys := make([]string, 0, len(spec.With))
		for k := range spec.With {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			plan.Overrides = append(plan.Overrides, xpp.KV{Key: k, Value: fmt.Sprint(spec.With[k])})
		}
	}

	if len(plan.Values) == 0 {
		if opts.Steps <= 0 {
			return nil, fmt.Errorf("either --steps with --param or --spec is required")
		}
		plan.Values = sim.Linspace(opts.From, opts.To, opts.Steps)
	}
	if plan.Parameter == "" {
		return nil, fmt.Errorf("sweep parameter is required (--param or the spec file)")
	}

	flagOverrides, err := parseOverrides(opts.With)
	if err != nil {
		return nil, err
	}
	plan.Overrides = append(plan.Overrides, flagOverrides...)
	return plan, nil
}

// sweepRow is one line of the sweep summary, keyed by the swept value.
type sweepRow struct {
	Value float64            `json:"value"`
	Rows  int                `json:"rows"`
	Final map[string]float64 `json:"final"`
}

func sweepRows(points []sim.SweepPoint) []sweepRow {
	rows := make([]sweepRow, len(points))
	for i, p := range points {
		final := p.Result.Final()
		finals := make(map[string]float64, len(p.Result.Columns))
		for j, col := range p.Result.Columns {
			if j < len(final) {
				finals[col] = final[j]
			}
		}
		rows[i] = sweepRow{Value: p.Value, Rows: len(p.Result.Rows), Final: finals}
	}
	return rows
}

func renderSweepSummary(r *output.Renderer, path, param string, points []sim.SweepPoint, elapsed time.Duration, outFile string) error {
	rows := sweepRows(points)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{
			"model":       path,
			"parameter":   param,
			"points":      rows,
			"duration_ms": elapsed.Milliseconds(),
		})
	}

	r.Success("swept %s over %d values in %s", param, len(points), elapsed.Round(time.Millisecond))
	if outFile != "" {
		r.Println(output.FormatKeyValue("saved", outFile))
	}
	r.Println()

	if len(points) == 0 {
		return nil
	}
	cols := finalColumns(points[0].Result)
	header := append([]string{param, "rows"}, cols...)
	cells := make([][]string, len(rows))
	for i, row := range rows {
		line := []string{formatFloat(row.Value), strconv.Itoa(row.Rows)}
		for _, col := range cols {
			line = append(line, formatFloat(row.Final[col]))
		}
		cells[i] = line
	}
	renderStringTable(r, header, cells)
	return nil
}

// finalColumns lists every result column except time, which is the same for
// all points of a sweep.
func finalColumns(res *sim.Result) []string {
	cols := make([]string, 0, len(res.Columns))
	for _, c := range res.Columns {
		if c == "t" {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// writeSweepCSV exports one row of final values per swept value.
func writeSweepCSV(path, param string, points []sim.SweepPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if len(points) == 0 {
		_, err := fmt.Fprintln(f, param)
		return err
	}

	cols := finalColumns(points[0].Result)
	header := param
	for _, c := range cols {
		header += "," + c
	}
	if _, err := fmt.Fprintln(f, header); err != nil {
		return err
	}
	for _, row := range sweepRows(points) {
		line := formatFloat(row.Value)
		for _, c := range cols {
			line += "," + formatFloat(row.Final[c])
		}
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
	}
	return nil
}
