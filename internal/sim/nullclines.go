package sim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phaseplane/odekit/pkg/xpp"
)

// nullclineFile is hard-coded inside xppaut; -ncdraw always writes here.
// Concurrent Nullclines calls therefore need distinct work directories.
const nullclineFile = "nullclines.dat"

// NullclineOptions configures one nullcline computation.
type NullclineOptions struct {
	// Axes are option settings applied to the model before the run: the
	// plotted pair xp and yp, and the window limits xlo, xhi, ylo, yhi.
	// xppaut computes nullclines only for the plotted pair inside the
	// visible window, so the model must be rewritten, not just overridden.
	Axes []xpp.KV
	// Overrides are handed to xppaut through -with like in Run.
	Overrides []xpp.KV
	// UID tags the temporary model file.
	UID string
}

// NullclineSet holds the two zero curves of a planar system, each sorted
// by its first coordinate for plotting.
type NullclineSet struct {
	X [][2]float64 // branch 1, the x-axis equation at zero
	Y [][2]float64 // branch 2, the y-axis equation at zero
}

// Nullclines rewrites the plot window, runs xppaut with -ncdraw, and
// splits the curve file it produces.
func (s *Simulator) Nullclines(ctx context.Context, prog *xpp.Program, opts NullclineOptions) (*NullclineSet, error) {
	patched := &xpp.Program{Commands: append([]xpp.Command(nil), prog.Commands...)}
	for _, kv := range opts.Axes {
		if err := applyAxis(patched, kv); err != nil {
			return nil, err
		}
	}

	modelFile := appendUID("nullclines.ode", opts.UID)
	if err := s.writeModel(patched, modelFile); err != nil {
		return nil, err
	}
	if !s.keep {
		defer s.remove(modelFile)
	}

	args := []string{modelFile, "-silent"}
	if len(opts.Overrides) > 0 {
		args = append(args, "-with", joinOverrides(opts.Overrides))
	}
	args = append(args, "-ncdraw", "2", "-noout")
	if _, err := s.execute(ctx, args...); err != nil {
		return nil, err
	}
	if !s.keep {
		defer s.remove(nullclineFile)
	}

	f, err := os.Open(filepath.Join(s.workDir, nullclineFile))
	if err != nil {
		return nil, fmt.Errorf("read nullclines: %w", err)
	}
	defer f.Close()
	rows, err := parseMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("parse nullclines: %w", err)
	}
	return splitNullclines(rows)
}

// applyAxis rewrites one option setting in place. The key's assignment is
// swapped inside the command that holds it, so sibling settings on the
// same line survive; a key the model never sets is appended as a new
// option line.
func applyAxis(prog *xpp.Program, kv xpp.KV) error {
	parsed, err := xpp.ParseCommand("@ " + kv.Key + "=" + kv.Value)
	if err != nil {
		return fmt.Errorf("axis setting %s=%s: %w", kv.Key, kv.Value, err)
	}
	option := parsed.(*xpp.Option)

	i := prog.FindAssignment(kv.Key)
	if i < 0 {
		prog.Commands = append(prog.Commands, option)
		return nil
	}
	replacement := swapAssignment(prog.Commands[i], strings.ToLower(kv.Key), option.Assignments[0].Value)
	if replacement == nil {
		return fmt.Errorf("axis setting %s: command %d is not an assignment block", kv.Key, i)
	}
	return prog.Patch(i, replacement)
}

// swapAssignment rebuilds an assignment-block command with one target
// bound to a new value. Returns nil for command kinds without an
// assignment list.
func swapAssignment(cmd xpp.Command, target string, value xpp.Expression) xpp.Command {
	swap := func(as []xpp.Assignment) []xpp.Assignment {
		out := make([]xpp.Assignment, len(as))
		copy(out, as)
		for i := range out {
			if out[i].Target.ID == target {
				out[i].Value = value
			}
		}
		return out
	}
	switch cmd := cmd.(type) {
	case *xpp.Option:
		return &xpp.Option{Assignments: swap(cmd.Assignments)}
	case *xpp.Par:
		return &xpp.Par{Assignments: swap(cmd.Assignments)}
	case *xpp.Init:
		return &xpp.Init{Assignments: swap(cmd.Assignments)}
	case *xpp.Aux:
		return &xpp.Aux{Assignments: swap(cmd.Assignments)}
	}
	return nil
}

// splitNullclines separates the three-column curve table on its branch
// discriminator and sorts each curve along the first coordinate. Rows
// with any other discriminator are xppaut bookkeeping and are skipped.
func splitNullclines(rows [][]float64) (*NullclineSet, error) {
	set := &NullclineSet{}
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("nullcline row %d has %d columns, want 3", i+1, len(row))
		}
		pt := [2]float64{row[0], row[1]}
		switch row[2] {
		case 1:
			set.X = append(set.X, pt)
		case 2:
			set.Y = append(set.Y, pt)
		}
	}
	sort.Slice(set.X, func(i, j int) bool { return set.X[i][0] < set.X[j][0] })
	sort.Slice(set.Y, func(i, j int) bool { return set.Y[i][0] < set.Y[j][0] })
	return set, nil
}
