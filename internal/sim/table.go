package sim

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NamedValue is one "name value" line from an xppaut query file.
type NamedValue struct {
	Name  string
	Value float64
}

// parseNamedValues reads the two-column file -qpars and -qics produce.
// Names are folded to lower case like everything else in the language.
func parseNamedValues(r io.Reader) ([]NamedValue, error) {
	var out []NamedValue
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want name and value, got %q", line, sc.Text())
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad value %q", line, fields[1])
		}
		out = append(out, NamedValue{Name: strings.ToLower(fields[0]), Value: v})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// parseMatrix reads a whitespace-delimited numeric table, one sample per
// row. Blank lines are skipped; a row of unexpected width is an error.
func parseMatrix(r io.Reader) ([][]float64, error) {
	var rows [][]float64
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	width := -1
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if width == -1 {
			width = len(fields)
		} else if len(fields) != width {
			return nil, fmt.Errorf("line %d: %d columns, want %d", line, len(fields), width)
		}
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad value %q", line, field)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
