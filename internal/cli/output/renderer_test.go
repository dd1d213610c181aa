package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRenderer(out, errOut, mode), out, errOut
}

func TestEffectiveModeAutoOnBuffer(t *testing.T) {
	// A bytes.Buffer is not a terminal, so auto resolves to markdown.
	r, _, _ := newBufferRenderer(ModeAuto)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestEffectiveModeExplicit(t *testing.T) {
	for _, mode := range []Mode{ModeText, ModeMarkdown, ModeJSON} {
		r, _, _ := newBufferRenderer(mode)
		assert.Equal(t, mode, r.EffectiveMode())
	}
}

func TestNewRendererNormalizesMode(t *testing.T) {
	r, _, _ := newBufferRenderer("md")
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	r, _, _ = newBufferRenderer("sideways")
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestHeaderMarkdown(t *testing.T) {
	r, out, _ := newBufferRenderer(ModeMarkdown)
	r.Header("Parameters")
	assert.Equal(t, "## Parameters\n\n", out.String())
}

func TestHeaderText(t *testing.T) {
	r, out, _ := newBufferRenderer(ModeText)
	r.Header("Parameters")
	assert.Contains(t, out.String(), "Parameters")
}

func TestStatusLines(t *testing.T) {
	r, out, errOut := newBufferRenderer(ModeMarkdown)

	r.Success("run completed in %dms", 42)
	r.Warning("dropped %d statements", 2)
	r.Error("parse failed")

	assert.Contains(t, out.String(), "✓ run completed in 42ms")
	assert.Contains(t, errOut.String(), "! dropped 2 statements")
	assert.Contains(t, errOut.String(), "✗ parse failed")
}

func TestPrintlnPrintf(t *testing.T) {
	r, out, _ := newBufferRenderer(ModeText)
	r.Println("one")
	r.Printf("two %s\n", "three")
	assert.Equal(t, "one\ntwo three\n", out.String())
}

func TestJSON(t *testing.T) {
	r, out, _ := newBufferRenderer(ModeJSON)
	require.NoError(t, r.JSON(map[string]int{"rows": 7}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 7, decoded["rows"])
	assert.True(t, strings.HasSuffix(strings.TrimRight(out.String(), "\n"), "}"))
}

func TestFormatKeyValue(t *testing.T) {
	line := FormatKeyValue("rows", 4001)
	assert.Equal(t, "rows:          4001", line)
}
