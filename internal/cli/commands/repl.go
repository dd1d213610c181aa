package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/phaseplane/odekit/internal/cli/output"
	"github.com/phaseplane/odekit/internal/state"
	"github.com/phaseplane/odekit/pkg/xpp"
)

const replPrompt = "ode> "

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactively parse model statements",
		Long: `Repl reads model statements one line at a time, parses each, and
echoes the statement kind and its canonical form. It is a quick way to
check syntax or see how a line normalizes without touching a file.`,
		Example: `  odekit repl
  ode> par gna=120,gk=36
  par          par gna=120,gk=36`,
		Args: cobra.NoArgs,
		RunE: runRepl,
	}
}

func runRepl(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContextWithoutStore(cmd)
	r := cmdCtx.Renderer

	// History sits next to the state database; a memory-only state path
	// means no history either.
	historyFile := ""
	if cmdCtx.Cfg.StatePath != state.MemoryPath {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "repl_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    replCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.Printf("odekit statement REPL\n")
	r.Printf("Type .help for commands, .quit to exit\n\n")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(r, line); quit {
				break
			}
			continue
		}

		evalLine(r, line)
	}

	return nil
}

// evalLine parses one statement and echoes its kind and canonical form.
func evalLine(r *output.Renderer, line string) {
	cmd, err := xpp.ParseCommand(line)
	if err != nil {
		r.Error("%v", err)
		return
	}
	canonical, err := xpp.GenerateCommand(cmd)
	if err != nil {
		r.Error("%v", err)
		return
	}
	r.Printf("%-12s %s\n", commandKindName(cmd), canonical)
}

// handleDotCommand runs a REPL dot-command and reports whether to quit.
func handleDotCommand(r *output.Renderer, line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		r.Printf("Enter any model statement to parse it.\n")
		r.Printf("Commands:\n")
		r.Printf("  .help          Show this help\n")
		r.Printf("  .quit, .exit   Leave the REPL\n")
	default:
		r.Error("unknown command %s (try .help)", line)
	}
	return false
}

// commandKindName names a statement kind for REPL echo lines.
func commandKindName(cmd xpp.Command) string {
	switch cmd.(type) {
	case *xpp.Par:
		return "par"
	case *xpp.Init:
		return "init"
	case *xpp.Aux:
		return "aux"
	case *xpp.Option:
		return "option"
	case *xpp.Global:
		return "global"
	case *xpp.FunDef:
		return "function"
	case *xpp.ODE:
		return "ode"
	case *xpp.FixedVar:
		return "fixed"
	case *xpp.Done:
		return "done"
	default:
		return fmt.Sprintf("%T", cmd)
	}
}

func replCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("par"),
		readline.PcItem("init"),
		readline.PcItem("aux"),
		readline.PcItem("global"),
		readline.PcItem("number"),
		readline.PcItem("done"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
