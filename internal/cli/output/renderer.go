// Package output renders command results for terminals, pipes, and scripts.
//
// A Renderer wraps the command's stdout/stderr with an output mode. ModeAuto
// picks text on a terminal and markdown when piped, so command output stays
// readable in both places without flags.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Mode selects how command output is rendered.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes styled command output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  *bool
	styles *Styles
}

// NewRenderer creates a renderer for the given writers and mode.
// Unknown modes fall back to ModeAuto.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON:
	case "md":
		mode = ModeMarkdown
	default:
		mode = ModeAuto
	}
	return &Renderer{out: out, errOut: errOut, mode: mode, styles: DefaultStyles()}
}

// NewRendererWithTTY creates a renderer with a fixed TTY state instead of
// detecting one, so tests can exercise both halves of ModeAuto on buffers.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	r := NewRenderer(out, errOut, mode)
	r.isTTY = &isTTY
	return r
}

// EffectiveMode resolves ModeAuto against the output writer: text on a
// terminal, markdown otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY != nil {
		if *r.isTTY {
			return ModeText
		}
		return ModeMarkdown
	}
	if f, ok := r.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ModeText
	}
	return ModeMarkdown
}

// Styles returns the style set for callers that drive lipgloss directly.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the underlying output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Println writes a line to the output writer.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the output writer.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section heading: styled in text mode, "## ..." in markdown.
func (r *Renderer) Header(text string) {
	if r.EffectiveMode() == ModeMarkdown {
		_, _ = fmt.Fprintf(r.out, "## %s\n\n", text)
		return
	}
	_, _ = fmt.Fprintln(r.out, r.styles.Header.Render(text))
}

// Success writes a success status line to the output writer.
func (r *Renderer) Success(format string, a ...any) {
	r.statusLine(r.out, r.styles.Success, "✓", format, a...)
}

// Warning writes a warning status line to the error writer.
func (r *Renderer) Warning(format string, a ...any) {
	r.statusLine(r.errOut, r.styles.Warning, "!", format, a...)
}

// Error writes an error status line to the error writer.
func (r *Renderer) Error(format string, a ...any) {
	r.statusLine(r.errOut, r.styles.Error, "✗", format, a...)
}

// Muted writes a de-emphasized line to the output writer.
func (r *Renderer) Muted(format string, a ...any) {
	text := fmt.Sprintf(format, a...)
	if r.EffectiveMode() == ModeText {
		text = r.styles.Muted.Render(text)
	}
	_, _ = fmt.Fprintln(r.out, text)
}

// JSON writes v to the output writer as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) statusLine(w io.Writer, style lipgloss.Style, glyph, format string, a ...any) {
	text := fmt.Sprintf(format, a...)
	if r.EffectiveMode() == ModeText {
		_, _ = fmt.Fprintln(w, style.Render(glyph)+" "+text)
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", glyph, text)
}

// FormatKeyValue renders an aligned "key: value" line for summary blocks.
func FormatKeyValue(key string, value any) string {
	return fmt.Sprintf("%-14s %v", key+":", value)
}
