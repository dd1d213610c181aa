package commands

import (
	"fmt"

	"github.com/phaseplane/odekit/internal/state"
	"github.com/phaseplane/odekit/pkg/xpp"
	"github.com/spf13/cobra"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Simulator bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <model.ode>",
		Short: "Parse a model and report diagnostics",
		Long: `Check parses a model file and reports every statement the parser
had to drop, with line numbers. The exit status is non-zero when any
diagnostic was produced.

With --simulator the model is additionally handed to xppaut for a dry
run, which catches problems the parser cannot see (unknown option names,
solver limits).`,
		Example: `  # Parse only
  odekit check neuron.ode

  # Parse and dry-run through xppaut
  odekit check --simulator neuron.ode`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Simulator, "simulator", false, "Dry-run the model through xppaut after parsing")

	return cmd
}

func runCheck(cmd *cobra.Command, path string, opts *CheckOptions) error {
	cmdCtx := NewCommandContextWithoutStore(cmd)
	r := cmdCtx.Renderer

	prog, err := loadModel(path)
	if err != nil {
		return err
	}

	if n := len(prog.Dropped); n > 0 {
		reportDropped(r, prog)
		return fmt.Errorf("%d of %d statements failed to parse", n, n+len(prog.Commands))
	}

	if opts.Simulator {
		if err := checkWithSimulator(cmd, cmdCtx, path, prog); err != nil {
			return err
		}
	}

	r.Success("parsed %d statements", len(prog.Commands))
	return nil
}

func checkWithSimulator(cmd *cobra.Command, cmdCtx *CommandContext, path string, prog *xpp.Program) error {
	if err := cmdCtx.Cfg.ValidateWorkDir(); err != nil {
		return err
	}
	store, err := openStore(cmdCtx.Cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	r := cmdCtx.Renderer
	return recordRun(store, state.RunKindCheck, path, func() (int64, error) {
		out, err := cmdCtx.Sim.CheckModel(cmd.Context(), prog)
		if err != nil {
			return 0, err
		}
		if out != "" {
			r.Muted("%s", out)
		}
		r.Success("xppaut accepted the model")
		return 0, nil
	})
}
