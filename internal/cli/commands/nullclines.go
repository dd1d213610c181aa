package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/phaseplane/odekit/internal/cli/output"
	"github.com/phaseplane/odekit/internal/sim"
	"github.com/phaseplane/odekit/internal/state"
	"github.com/phaseplane/odekit/pkg/xpp"
	"github.com/spf13/cobra"
)

// NullclinesOptions holds options for the nullclines command.
type NullclinesOptions struct {
	XPlot string
	YPlot string
	XLo   string
	XHi   string
	YLo   string
	YHi   string
	With  []string
	Out   string
}

// NewNullclinesCommand creates the nullclines command.
func NewNullclinesCommand() *cobra.Command {
	opts := &NullclinesOptions{}

	cmd := &cobra.Command{
		Use:   "nullclines <model.ode>",
		Short: "Compute nullclines for a planar model",
		Long: `Nullclines asks xppaut for the two zero curves of a planar system
inside the plot window. The plotted pair and window limits come from the
model's own option statements unless overridden with the axis flags;
overriding rewrites the temporary model copy, never the file itself.

The curves are summarized on stdout and exported in full with --out.`,
		Example: `  # Use the model's plot window
  odekit nullclines fhn.ode

  # Pick the plane and window explicitly
  odekit nullclines --xplot v --yplot w --xlo=-2.5 --xhi 2.5 --ylo=-1 --yhi 2 fhn.ode`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNullclines(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.XPlot, "xplot", "", "Variable on the x axis")
	cmd.Flags().StringVar(&opts.YPlot, "yplot", "", "Variable on the y axis")
	cmd.Flags().StringVar(&opts.XLo, "xlo", "", "Left window limit")
	cmd.Flags().StringVar(&opts.XHi, "xhi", "", "Right window limit")
	cmd.Flags().StringVar(&opts.YLo, "ylo", "", "Lower window limit")
	cmd.Flags().StringVar(&opts.YHi, "yhi", "", "Upper window limit")
	cmd.Flags().StringArrayVar(&opts.With, "with", nil, "Override a parameter or option (name=value, repeatable)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write both curves to a CSV file")

	return cmd
}

func runNullclines(cmd *cobra.Command, path string, opts *NullclinesOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
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

	var set *sim.NullclineSet
	start := time.Now()
	err = recordRun(cmdCtx.Store, state.RunKindNullclines, path, func() (int64, error) {
		var err error
		set, err = cmdCtx.Sim.Nullclines(cmd.Context(), prog, sim.NullclineOptions{
			Axes:      opts.axes(),
			Overrides: overrides,
		})
		if err != nil {
			return 0, err
		}
		return int64(len(set.X) + len(set.Y)), nil
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if opts.Out != "" {
		if err := writeNullclineCSV(opts.Out, set); err != nil {
			return err
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{
			"model":       path,
			"x_nullcline": set.X,
			"y_nullcline": set.Y,
			"duration_ms": elapsed.Milliseconds(),
		})
	}

	r.Success("computed nullclines in %s", elapsed.Round(time.Millisecond))
	r.Println(output.FormatKeyValue("model", path))
	r.Println(output.FormatKeyValue("x-nullcline", fmt.Sprintf("%d points", len(set.X))))
	r.Println(output.FormatKeyValue("y-nullcline", fmt.Sprintf("%d points", len(set.Y))))
	if opts.Out != "" {
		r.Println(output.FormatKeyValue("saved", opts.Out))
	}
	return nil
}

// axes collects the axis flags that were set into option assignments.
func (o *NullclinesOptions) axes() []xpp.KV {
	pairs := []xpp.KV{
		{Key: "xp", Value: o.XPlot},
		{Key: "yp", Value: o.YPlot},
		{Key: "xlo", Value: o.XLo},
		{Key: "xhi", Value: o.XHi},
		{Key: "ylo", Value: o.YLo},
		{Key: "yhi", Value: o.YHi},
	}
	var axes []xpp.KV
	for _, kv := range pairs {
		if kv.Value != "" {
			axes = append(axes, kv)
		}
	}
	return axes
}

// writeNullclineCSV exports both curves as branch,x,y rows.
func writeNullclineCSV(path string, set *sim.NullclineSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeNullclinesTo(f, set); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeNullclinesTo(w io.Writer, set *sim.NullclineSet) error {
	if _, err := fmt.Fprintln(w, "branch,x,y"); err != nil {
		return err
	}
	write := func(branch string, points [][2]float64) error {
		for _, p := range points {
			line := strings.Join([]string{branch, formatFloat(p[0]), formatFloat(p[1])}, ",")
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write("x", set.X); err != nil {
		return err
	}
	return write("y", set.Y)
}
