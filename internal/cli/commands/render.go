package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/phaseplane/odekit/internal/cli/output"
	"github.com/phaseplane/odekit/internal/sim"
)

// renderStringTable writes a table to the renderer's output writer: a boxed
// table in text mode, a pipe table in markdown mode.
func renderStringTable(r *output.Renderer, header []string, rows [][]string) {
	if r.EffectiveMode() == output.ModeMarkdown {
		renderMarkdownTable(r.Writer(), header, rows)
		return
	}
	renderPrettyTable(r.Writer(), header, rows)
}

func renderPrettyTable(w io.Writer, header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, col := range header {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, cells := range rows {
		row := make(table.Row, len(cells))
		for i, cell := range cells {
			row[i] = cell
		}
		t.AppendRow(row)
	}

	t.Render()
}

func renderMarkdownTable(w io.Writer, header []string, rows [][]string) {
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(header, " | "))

	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, cells := range rows {
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
}

// formatFloat renders a simulator value with the shortest exact representation.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeResultCSV exports a result matrix to path with a header row.
func writeResultCSV(path string, res *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeCSVTo(f, res); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeCSVTo(w io.Writer, res *sim.Result) error {
	if _, err := fmt.Fprintln(w, strings.Join(res.Columns, ",")); err != nil {
		return err
	}
	cells := make([]string, len(res.Columns))
	for _, row := range res.Rows {
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = formatFloat(row[i])
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, ",")); err != nil {
			return err
		}
	}
	return nil
}
