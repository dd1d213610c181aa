package commands

import (
	"fmt"
	"strings"

	"github.com/phaseplane/odekit/internal/cli/output"
	"github.com/phaseplane/odekit/pkg/xpp"
	"github.com/spf13/cobra"
)

// namedEntry is a name/value pair in info output.
type namedEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// infoOutput is the JSON shape of the info command.
type infoOutput struct {
	Model             string       `json:"model"`
	Statements        int          `json:"statements"`
	StateVariables    []string     `json:"state_variables"`
	AuxVariables      []string     `json:"aux_variables,omitempty"`
	Functions         []string     `json:"functions,omitempty"`
	Parameters        []namedEntry `json:"parameters,omitempty"`
	InitialConditions []namedEntry `json:"initial_conditions,omitempty"`
	NumericOptions    []namedEntry `json:"numeric_options,omitempty"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <model.ode>",
		Short: "Show a model's variables, parameters, and options",
		Long: `Info parses a model and summarizes what it declares: state
variables with their initial conditions, auxiliary outputs, user
functions, parameters, and numeric solver options.`,
		Example: `  odekit info neuron.ode
  odekit info -o json neuron.ode`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, args[0])
		},
	}
}

func runInfo(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContextWithoutStore(cmd)
	r := cmdCtx.Renderer

	prog, err := loadModel(path)
	if err != nil {
		return err
	}
	reportDropped(r, prog)

	info, err := collectInfo(path, prog)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(info)
	}

	r.Header("Model")
	r.Println(output.FormatKeyValue("file", info.Model))
	r.Println(output.FormatKeyValue("statements", info.Statements))
	r.Println()

	r.Header("State Variables")
	if len(info.StateVariables) == 0 {
		r.Muted("none")
	} else {
		ics := make(map[string]string, len(info.InitialConditions))
		for _, e := range info.InitialConditions {
			ics[e.Name] = e.Value
		}
		rows := make([][]string, 0, len(info.StateVariables))
		for _, v := range info.StateVariables {
			init := ics[v]
			if init == "" {
				init = "0"
			}
			rows = append(rows, []string{v, init})
		}
		renderStringTable(r, []string{"Variable", "Initial"}, rows)
	}
	r.Println()

	if len(info.AuxVariables) > 0 {
		r.Header("Auxiliary Outputs")
		r.Println(strings.Join(info.AuxVariables, ", "))
		r.Println()
	}
	if len(info.Functions) > 0 {
		r.Header("Functions")
		r.Println(strings.Join(info.Functions, ", "))
		r.Println()
	}

	r.Header("Parameters")
	renderEntryTable(r, "Parameter", info.Parameters)
	r.Println()

	if len(info.NumericOptions) > 0 {
		r.Header("Numeric Options")
		renderEntryTable(r, "Option", info.NumericOptions)
	}
	return nil
}

func collectInfo(path string, prog *xpp.Program) (*infoOutput, error) {
	params, err := prog.Parameters()
	if err != nil {
		return nil, err
	}
	ics, err := prog.InitialConditions()
	if err != nil {
		return nil, err
	}
	numerics, err := prog.NumericOptions()
	if err != nil {
		return nil, err
	}

	var funcs []string
	for _, cmd := range prog.Commands {
		def, ok := cmd.(*xpp.FunDef)
		if !ok {
			continue
		}
		args := make([]string, len(def.Params))
		for i, p := range def.Params {
			args[i] = p.ID
		}
		funcs = append(funcs, fmt.Sprintf("%s(%s)", def.Name.ID, strings.Join(args, ",")))
	}

	return &infoOutput{
		Model:             path,
		Statements:        len(prog.Commands),
		StateVariables:    prog.StateVariables(),
		AuxVariables:      prog.AuxVariables(),
		Functions:         funcs,
		Parameters:        toEntries(params),
		InitialConditions: toEntries(ics),
		NumericOptions:    toEntries(numerics),
	}, nil
}

func toEntries(kvs []xpp.KV) []namedEntry {
	entries := make([]namedEntry, len(kvs))
	for i, kv := range kvs {
		entries[i] = namedEntry{Name: kv.Key, Value: kv.Value}
	}
	return entries
}

func renderEntryTable(r *output.Renderer, label string, entries []namedEntry) {
	if len(entries) == 0 {
		r.Muted("none")
		return
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Name, e.Value}
	}
	renderStringTable(r, []string{label, "Value"}, rows)
}
