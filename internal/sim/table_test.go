package sim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNamedValues(t *testing.T) {
	in := "IAPP 0.1\nGCA 1.1\n\nVK -0.7\n"
	got, err := parseNamedValues(strings.NewReader(in))
	require.NoError(t, err)

	want := []NamedValue{
		{Name: "iapp", Value: 0.1},
		{Name: "gca", Value: 1.1},
		{Name: "vk", Value: -0.7},
	}
	assert.Equal(t, want, got)
}

func TestParseNamedValuesMalformed(t *testing.T) {
	_, err := parseNamedValues(strings.NewReader("a 1 2\n"))
	assert.ErrorContains(t, err, "want name and value")

	_, err = parseNamedValues(strings.NewReader("a x\n"))
	assert.ErrorContains(t, err, "bad value")
}

func TestParseMatrix(t *testing.T) {
	in := "0 0.05 0\n0.5 0.048 0.001\n\n1 0.046 0.002\n"
	got, err := parseMatrix(strings.NewReader(in))
	require.NoError(t, err)

	want := [][]float64{
		{0, 0.05, 0},
		{0.5, 0.048, 0.001},
		{1, 0.046, 0.002},
	}
	assert.Equal(t, want, got)
}

func TestParseMatrixScientificNotation(t *testing.T) {
	got, err := parseMatrix(strings.NewReader("1.5e-3 2E+2\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.0015, 200}}, got)
}

func TestParseMatrixRaggedRow(t *testing.T) {
	_, err := parseMatrix(strings.NewReader("1 2\n3\n"))
	assert.ErrorContains(t, err, "1 columns, want 2")
}

func TestParseMatrixBadValue(t *testing.T) {
	_, err := parseMatrix(strings.NewReader("1 nope\n"))
	assert.ErrorContains(t, err, "bad value")
}

func TestParseMatrixEmpty(t *testing.T) {
	got, err := parseMatrix(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}
