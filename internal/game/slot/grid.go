package slot

import (
	"fmt"
	"strings"
)

// Default grid shape.
const (
	DefaultRows    = 4
	DefaultColumns = 3
)

// Line is an ordered sequence of symbols taken from one row of a grid.
type Line []Symbol

// String renders the line as symbol labels, e.g. "AB*".
func (l Line) String(t *SymbolTable) string {
	var b strings.Builder
	for _, s := range l {
		b.WriteRune(t.Label(s))
	}
	return b.String()
}

// Grid is a fixed-shape rows x columns matrix of symbols, stored row-major.
type Grid struct {
	rows    int
	columns int
	cells   []Symbol
}

// Build fills a rows x columns grid with independent draws from gen,
// row by row.
func Build(gen *Generator, rows, columns int) (Grid, error) {
	if rows <= 0 || columns <= 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, rows, columns)
	}

	g := Grid{
		rows:    rows,
		columns: columns,
		cells:   make([]Symbol, rows*columns),
	}
	for i := range g.cells {
		g.cells[i] = gen.Draw()
	}
	return g, nil
}

// GridFromLines builds a grid from explicit rows. All rows must have the
// same non-zero length.
func GridFromLines(lines ...Line) (Grid, error) {
	if len(lines) == 0 || len(lines[0]) == 0 {
		return Grid{}, fmt.Errorf("%w: empty grid", ErrInvalidDimension)
	}

	g := Grid{
		rows:    len(lines),
		columns: len(lines[0]),
		cells:   make([]Symbol, 0, len(lines)*len(lines[0])),
	}
	for i, l := range lines {
		if len(l) != g.columns {
			return Grid{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidDimension, i, len(l), g.columns)
		}
		g.cells = append(g.cells, l...)
	}
	return g, nil
}

// Rows returns the number of rows.
func (g Grid) Rows() int { return g.rows }

// Columns returns the number of columns.
func (g Grid) Columns() int { return g.columns }

// At returns the symbol at row r, column c.
func (g Grid) At(r, c int) Symbol {
	if r < 0 || r >= g.rows || c < 0 || c >= g.columns {
		panic(fmt.Sprintf("slot: cell (%d,%d) outside %dx%d grid", r, c, g.rows, g.columns))
	}
	return g.cells[r*g.columns+c]
}

// Row returns a copy of row r as a Line.
func (g Grid) Row(r int) Line {
	if r < 0 || r >= g.rows {
		panic(fmt.Sprintf("slot: row %d outside %dx%d grid", r, g.rows, g.columns))
	}
	line := make(Line, g.columns)
	copy(line, g.cells[r*g.columns:(r+1)*g.columns])
	return line
}

// Lines returns every pay line of the grid. Only rows pay.
func (g Grid) Lines() []Line {
	lines := make([]Line, g.rows)
	for r := range lines {
		lines[r] = g.Row(r)
	}
	return lines
}

// String renders the grid as label rows separated by newlines.
func (g Grid) String(t *SymbolTable) string {
	rows := make([]string, g.rows)
	for r := range rows {
		rows[r] = g.Row(r).String(t)
	}
	return strings.Join(rows, "\n")
}
