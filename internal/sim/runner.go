package sim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/phaseplane/odekit/pkg/xpp"
)

var versionPattern = regexp.MustCompile(`\d+\.\d*|\d*\.\d+`)

// Version asks the installed xppaut for its version number.
func (s *Simulator) Version(ctx context.Context) (string, error) {
	out, err := s.execute(ctx, "-version")
	if err != nil {
		return "", err
	}
	v := versionPattern.FindString(out)
	if v == "" {
		return "", fmt.Errorf("no version number in xppaut output %q", strings.TrimSpace(out))
	}
	return v, nil
}

// CheckModel writes the program to a scratch file and has xppaut read it
// back, catching constructs our front end accepts but the simulator
// rejects. The combined xppaut output is returned for display.
func (s *Simulator) CheckModel(ctx context.Context, prog *xpp.Program) (string, error) {
	uid := shortUID()
	modelFile := appendUID("check.ode", uid)
	outFile := appendUID("check.dat", uid)

	if err := s.writeModel(prog, modelFile); err != nil {
		return "", err
	}
	if !s.keep {
		defer s.remove(modelFile)
		defer s.remove(outFile)
	}

	out, err := s.execute(ctx, modelFile, "-qics", "-outfile", outFile, "-quiet", "1")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// QueryParameters returns the parameter table as xppaut itself resolves
// it, derived values included.
func (s *Simulator) QueryParameters(ctx context.Context, prog *xpp.Program) ([]NamedValue, error) {
	return s.query(ctx, prog, "-qpars")
}

// QueryInitialConditions returns the initial conditions as xppaut
// resolves them.
func (s *Simulator) QueryInitialConditions(ctx context.Context, prog *xpp.Program) ([]NamedValue, error) {
	return s.query(ctx, prog, "-qics")
}

func (s *Simulator) query(ctx context.Context, prog *xpp.Program, flag string) ([]NamedValue, error) {
	uid := shortUID()
	modelFile := appendUID("query.ode", uid)
	outFile := appendUID("query.dat", uid)

	if err := s.writeModel(prog, modelFile); err != nil {
		return nil, err
	}
	if !s.keep {
		defer s.remove(modelFile)
		defer s.remove(outFile)
	}

	if _, err := s.execute(ctx, modelFile, flag, "-outfile", outFile, "-quiet", "1"); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.workDir, outFile))
	if err != nil {
		return nil, fmt.Errorf("read query output: %w", err)
	}
	defer f.Close()
	return parseNamedValues(f)
}

// RunOptions configures one silent-mode integration.
type RunOptions struct {
	// ICs overrides the initial conditions. Nil derives them from the
	// program like DefaultICs.
	ICs []float64
	// Overrides are name=value settings handed to xppaut through -with,
	// applied on top of the model file without touching it.
	Overrides []xpp.KV
	// ParFile names an xppaut parameter file to load with -parfile.
	ParFile string
	// UID tags every temporary file, keeping parallel runs apart.
	UID string
}

// Result is the output of one run: the sample matrix with its column
// names, time first, then state variables in equation order, then
// auxiliaries.
type Result struct {
	Columns []string
	Rows    [][]float64
}

// Column extracts one column by name.
func (r *Result) Column(name string) ([]float64, error) {
	name = strings.ToLower(name)
	for i, c := range r.Columns {
		if c != name {
			continue
		}
		out := make([]float64, len(r.Rows))
		for j, row := range r.Rows {
			if i >= len(row) {
				return nil, fmt.Errorf("row %d has no column %d", j, i)
			}
			out[j] = row[i]
		}
		return out, nil
	}
	return nil, fmt.Errorf("no column %q", name)
}

// Final returns the last sample, the system state when the run ended.
func (r *Result) Final() []float64 {
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[len(r.Rows)-1]
}

// Run integrates the model once in silent mode and loads the result.
func (s *Simulator) Run(ctx context.Context, prog *xpp.Program, opts RunOptions) (*Result, error) {
	modelFile := appendUID("model.ode", opts.UID)
	outFile := appendUID("output.dat", opts.UID)
	icFile := appendUID("ics.dat", opts.UID)

	if err := s.writeModel(prog, modelFile); err != nil {
		return nil, err
	}
	if !s.keep {
		defer s.remove(modelFile)
	}

	ics := opts.ICs
	if ics == nil {
		var err error
		ics, err = DefaultICs(prog)
		if err != nil {
			return nil, err
		}
	}
	if err := s.writeICs(ics, icFile); err != nil {
		return nil, err
	}
	if !s.keep {
		defer s.remove(icFile)
		defer s.remove(outFile)
	}

	args := []string{modelFile, "-silent"}
	if len(opts.Overrides) > 0 {
		args = append(args, "-with", joinOverrides(opts.Overrides))
	}
	args = append(args, "-runnow", "-outfile", outFile, "-icfile", icFile)
	if opts.ParFile != "" {
		args = append(args, "-parfile", opts.ParFile)
	}

	start := time.Now()
	if _, err := s.execute(ctx, args...); err != nil {
		return nil, err
	}
	s.logger.Debug("run finished", "model", modelFile, "elapsed_ms", time.Since(start).Milliseconds())

	f, err := os.Open(filepath.Join(s.workDir, outFile))
	if err != nil {
		return nil, fmt.Errorf("read run output: %w", err)
	}
	defer f.Close()
	rows, err := parseMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("parse run output: %w", err)
	}

	cols := append([]string{"t"}, prog.StateVariables()...)
	cols = append(cols, prog.AuxVariables()...)
	return &Result{Columns: cols, Rows: rows}, nil
}

// joinOverrides renders the -with argument, "a=1;b=2".
func joinOverrides(kvs []xpp.KV) string {
	parts := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		parts = append(parts, kv.Key+"="+kv.Value)
	}
	return strings.Join(parts, ";")
}
