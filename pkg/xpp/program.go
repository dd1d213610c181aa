package xpp

import (
	"fmt"
	"strings"
)

// Program is one parsed model: the ordered command list, plus the lines
// statement-level error recovery discarded. Order is preserved end to end
// so callers can rely on positional lookup and patch by index.
type Program struct {
	Commands []Command
	Dropped  []SyntaxError
}

// KV is one extracted name/value pair; Value is the generated source text
// of the bound expression.
type KV struct {
	Key   string
	Value string
}

// Patch replaces the command at index i. Commands are immutable values, so
// overriding a setting means parsing a replacement line and swapping it in
// wholesale.
func (p *Program) Patch(i int, cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("patch with nil command")
	}
	if i < 0 || i >= len(p.Commands) {
		return fmt.Errorf("patch index %d out of range (%d commands)", i, len(p.Commands))
	}
	p.Commands[i] = cmd
	return nil
}

// FindAssignment returns the index of the first par, init, aux or option
// command that assigns to target, or -1. The search is case insensitive
// like the language itself.
func (p *Program) FindAssignment(target string) int {
	t := strings.ToLower(target)
	for i, cmd := range p.Commands {
		for _, a := range keyedAssignments(cmd) {
			if a.Target.ID == t {
				return i
			}
		}
	}
	return -1
}

// StateVariables lists the ODE targets in program order.
func (p *Program) StateVariables() []string {
	var out []string
	for _, cmd := range p.Commands {
		if ode, ok := cmd.(*ODE); ok {
			out = append(out, ode.Assignment.Target.ID)
		}
	}
	return out
}

// AuxVariables lists the auxiliary-variable targets in program order.
func (p *Program) AuxVariables() []string {
	var out []string
	for _, cmd := range p.Commands {
		if aux, ok := cmd.(*Aux); ok {
			for _, a := range aux.Assignments {
				out = append(out, a.Target.ID)
			}
		}
	}
	return out
}

// Parameters flattens every par assignment in program order.
func (p *Program) Parameters() ([]KV, error) {
	var out []KV
	for _, cmd := range p.Commands {
		par, ok := cmd.(*Par)
		if !ok {
			continue
		}
		kvs, err := assignmentKVs(par.Assignments)
		if err != nil {
			return nil, err
		}
		out = append(out, kvs...)
	}
	return out, nil
}

// InitialConditions flattens every init assignment in program order.
func (p *Program) InitialConditions() ([]KV, error) {
	var out []KV
	for _, cmd := range p.Commands {
		init, ok := cmd.(*Init)
		if !ok {
			continue
		}
		kvs, err := assignmentKVs(init.Assignments)
		if err != nil {
			return nil, err
		}
		out = append(out, kvs...)
	}
	return out, nil
}

// NumericOptions flattens every @ option assignment in program order.
func (p *Program) NumericOptions() ([]KV, error) {
	var out []KV
	for _, cmd := range p.Commands {
		opt, ok := cmd.(*Option)
		if !ok {
			continue
		}
		kvs, err := assignmentKVs(opt.Assignments)
		if err != nil {
			return nil, err
		}
		out = append(out, kvs...)
	}
	return out, nil
}

func assignmentKVs(as []Assignment) ([]KV, error) {
	out := make([]KV, 0, len(as))
	for _, a := range as {
		value, err := GenerateExpr(a.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, KV{Key: a.Target.ID, Value: value})
	}
	return out, nil
}

// keyedAssignments returns the assignment list of the four keyword-block
// command kinds, the ones FindAssignment searches.
func keyedAssignments(cmd Command) []Assignment {
	switch cmd := cmd.(type) {
	case *Par:
		return cmd.Assignments
	case *Init:
		return cmd.Assignments
	case *Aux:
		return cmd.Assignments
	case *Option:
		return cmd.Assignments
	}
	return nil
}
