package sim

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/phaseplane/odekit/pkg/xpp"
)

// appendUID derives a per-run file name, so parallel runs sharing one
// work directory never collide.
func appendUID(name, uid string) string {
	if uid == "" {
		return name
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + uid + ext
}

func shortUID() string {
	return uuid.NewString()[:8]
}

// writeModel serializes prog into the work directory. xppaut stops
// reading at "done", so one is appended when the program has none.
func (s *Simulator) writeModel(prog *xpp.Program, name string) error {
	text, err := xpp.Generate(prog)
	if err != nil {
		return fmt.Errorf("generate model: %w", err)
	}
	if !hasDone(prog) {
		text += "done\n"
	}
	if err := os.WriteFile(filepath.Join(s.workDir, name), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write model file: %w", err)
	}
	return nil
}

func hasDone(prog *xpp.Program) bool {
	for _, cmd := range prog.Commands {
		if _, ok := cmd.(*xpp.Done); ok {
			return true
		}
	}
	return false
}

// writeICs writes one value per line, the format -icfile expects.
func (s *Simulator) writeICs(ics []float64, name string) error {
	var b strings.Builder
	for _, v := range ics {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(s.workDir, name), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write ic file: %w", err)
	}
	return nil
}

// DefaultICs builds the initial-condition vector an -icfile carries: one
// value per state variable in equation order, with 0 where the model
// declares none, followed by a zero for every auxiliary variable, which
// xppaut always starts at zero.
func DefaultICs(prog *xpp.Program) ([]float64, error) {
	kvs, err := prog.InitialConditions()
	if err != nil {
		return nil, err
	}
	values := make(map[string]float64, len(kvs))
	for _, kv := range kvs {
		v, err := strconv.ParseFloat(kv.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("initial condition %s=%s is not a literal", kv.Key, kv.Value)
		}
		values[kv.Key] = v
	}

	states := prog.StateVariables()
	out := make([]float64, 0, len(states)+len(prog.AuxVariables()))
	for _, name := range states {
		out = append(out, values[name])
	}
	for range prog.AuxVariables() {
		out = append(out, 0)
	}
	return out, nil
}

func (s *Simulator) remove(name string) {
	err := os.Remove(filepath.Join(s.workDir, name))
	if err != nil && !os.IsNotExist(err) {
		s.logger.Debug("cleanup failed", "file", name, "error", err)
	}
}
