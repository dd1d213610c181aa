package sim

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phaseplane/odekit/internal/testutil"
	"github.com/phaseplane/odekit/pkg/xpp"
)

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, Linspace(0, 1, 5))
	assert.Equal(t, []float64{2}, Linspace(2, 7, 1))
	assert.Nil(t, Linspace(0, 1, 0))

	// Endpoints are exact even when the step does not divide evenly.
	vals := Linspace(0, 0.3, 4)
	assert.Equal(t, 0.0, vals[0])
	assert.Equal(t, 0.3, vals[3])
}

func TestSweepValidation(t *testing.T) {
	s := New(Config{})
	prog, err := xpp.Parse("v'=-v\ndone\n")
	require.NoError(t, err)

	_, err = s.Sweep(context.Background(), prog, SweepOptions{Values: []float64{1}})
	assert.ErrorContains(t, err, "parameter not set")

	_, err = s.Sweep(context.Background(), prog, SweepOptions{Parameter: "iapp"})
	assert.ErrorContains(t, err, "values not set")
}

func TestSweepReportsFailedValue(t *testing.T) {
	dir := t.TempDir()
	s := New(Config{XPPautPath: filepath.Join(dir, "no-such-binary"), WorkDir: dir, Logger: testutil.Logger(t)})

	prog, err := xpp.Parse("dv/dt=-iapp*v\npar iapp=1\ninit v=1\ndone\n")
	require.NoError(t, err)

	_, err = s.Sweep(context.Background(), prog, SweepOptions{
		Parameter: "iapp",
		Values:    []float64{0.25},
	})
	assert.ErrorContains(t, err, "iapp=0.25")
}
