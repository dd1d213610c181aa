package sim

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/phaseplane/odekit/pkg/xpp"
)

// defaultSweepParallel bounds concurrent xppaut processes when the
// caller does not.
const defaultSweepParallel = 4

// SweepOptions configures a one-parameter sweep.
type SweepOptions struct {
	// Parameter is the name swept over Values, one run per value.
	Parameter string
	Values    []float64
	// Overrides are applied to every run, before the swept parameter.
	Overrides []xpp.KV
	// ICs overrides the initial conditions for every run.
	ICs []float64
	// Parallel bounds the number of concurrent xppaut processes.
	Parallel int
}

// SweepPoint is one completed run of a sweep.
type SweepPoint struct {
	Value  float64
	Result *Result
}

// Sweep runs the model once per parameter value, fanning runs out over a
// bounded worker pool. Points come back in value order; the first failed
// run cancels the rest.
func (s *Simulator) Sweep(ctx context.Context, prog *xpp.Program, opts SweepOptions) ([]SweepPoint, error) {
	if opts.Parameter == "" {
		return nil, fmt.Errorf("sweep parameter not set")
	}
	if len(opts.Values) == 0 {
		return nil, fmt.Errorf("sweep values not set")
	}
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = defaultSweepParallel
	}

	points := make([]SweepPoint, len(opts.Values))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, value := range opts.Values {
		g.Go(func() error {
			overrides := make([]xpp.KV, 0, len(opts.Overrides)+1)
			overrides = append(overrides, opts.Overrides...)
			overrides = append(overrides, xpp.KV{
				Key:   opts.Parameter,
				Value: strconv.FormatFloat(value, 'g', -1, 64),
			})
			res, err := s.Run(ctx, prog, RunOptions{
				ICs:       opts.ICs,
				Overrides: overrides,
				UID:       shortUID(),
			})
			if err != nil {
				return fmt.Errorf("%s=%g: %w", opts.Parameter, value, err)
			}
			points[i] = SweepPoint{Value: value, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
