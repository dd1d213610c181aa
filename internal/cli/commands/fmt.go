package commands

import (
	"fmt"
	"os"

	"github.com/phaseplane/odekit/pkg/xpp"
	"github.com/spf13/cobra"
)

// FmtOptions holds options for the fmt command.
type FmtOptions struct {
	Write bool
}

// NewFmtCommand creates the fmt command.
func NewFmtCommand() *cobra.Command {
	opts := &FmtOptions{}

	cmd := &cobra.Command{
		Use:   "fmt <model.ode>",
		Short: "Reformat a model file canonically",
		Long: `Fmt parses a model and regenerates it in canonical form: lowercase
keywords, one statement per line, normalized spacing, and ranged
definitions left unexpanded.

Without -w the formatted model is printed to stdout. With -w the file is
rewritten in place. A file with statements that fail to parse is never
rewritten, since formatting would silently drop them.`,
		Example: `  # Print the canonical form
  odekit fmt neuron.ode

  # Rewrite the file in place
  odekit fmt -w neuron.ode`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Rewrite the file instead of printing to stdout")

	return cmd
}

func runFmt(cmd *cobra.Command, path string, opts *FmtOptions) error {
	cmdCtx := NewCommandContextWithoutStore(cmd)
	r := cmdCtx.Renderer

	prog, err := loadModel(path)
	if err != nil {
		return err
	}
	if n := len(prog.Dropped); n > 0 {
		reportDropped(r, prog)
		return fmt.Errorf("refusing to format %s: %d statements failed to parse", path, n)
	}

	text, err := xpp.Generate(prog)
	if err != nil {
		return err
	}

	if !opts.Write {
		r.Printf("%s", text)
		return nil
	}

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	r.Success("formatted %s", path)
	return nil
}
