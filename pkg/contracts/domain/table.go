package domain

import (
	"math"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// Anchor and metadata column names shared by every stage of the pipeline.
const (
	ColumnSample      = "Sample"
	ColumnTotalEvents = "Total Events"
	ColumnLocation    = "Location"
	ColumnWell        = "Well"
	ColumnStudySample = "Study_sample"
	ColumnSubclass    = "Subclass"
	ColumnPlate       = "Plate"
)

// Cell is one table value; a Cell that is not Valid is missing.
type Cell = null.String

// Table is a rectangular table with named columns. Every row holds exactly
// len(Columns) cells; a cell that is not Valid is a missing value.
type Table struct {
	// Plate identifies the plate the rows came from. It is carried as an
	// attribute and only materialised as a column by the aggregator.
	Plate   string
	Columns []string
	Rows    [][]null.String
}

// NewTable creates an empty table with a copy of the given header.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column called name.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// AppendRow appends a row, padding with missing cells or truncating so the
// table stays rectangular.
func (t *Table) AppendRow(cells []null.String) {
	row := make([]null.String, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Value returns the cell at row i in column name. Unknown columns read as
// missing.
func (t *Table) Value(i int, name string) null.String {
	idx := t.ColumnIndex(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return null.String{}
	}
	return t.Rows[i][idx]
}

// SetColumn replaces the values of an existing column or appends a new one.
// values must have one entry per row; short slices are padded with missing.
func (t *Table) SetColumn(name string, values []null.String) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		t.Columns = append(t.Columns, name)
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], null.String{})
		}
		idx = len(t.Columns) - 1
	}
	for i := range t.Rows {
		if i < len(values) {
			t.Rows[i][idx] = values[i]
		} else {
			t.Rows[i][idx] = null.String{}
		}
	}
}

// Reorder rearranges the columns to the given order. Names absent from the
// table are ignored and columns not named are dropped.
func (t *Table) Reorder(order []string) {
	var cols []string
	var src []int
	for _, name := range order {
		if idx := t.ColumnIndex(name); idx >= 0 {
			cols = append(cols, name)
			src = append(src, idx)
		}
	}
	for i, row := range t.Rows {
		next := make([]null.String, len(src))
		for j, idx := range src {
			next[j] = row[idx]
		}
		t.Rows[i] = next
	}
	t.Columns = cols
}

// MoveToFront moves the named columns to the front of the table, in the order
// given, keeping the relative order of every other column. Names that are not
// present are skipped.
func (t *Table) MoveToFront(names ...string) {
	front := make(map[string]bool, len(names))
	var order []string
	for _, name := range names {
		if t.HasColumn(name) && !front[name] {
			front[name] = true
			order = append(order, name)
		}
	}
	for _, c := range t.Columns {
		if !front[c] {
			order = append(order, c)
		}
	}
	t.Reorder(order)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Plate = t.Plate
	out.Rows = make([][]null.String, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]null.String(nil), row...)
	}
	return out
}

// Records renders the rows as strings with missing cells written empty.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, c := range row {
			if c.Valid {
				rec[j] = c.String
			}
		}
		out[i] = rec
	}
	return out
}

// CellFromString parses a raw delimited-text field. Blank fields are missing.
func CellFromString(s string) null.String {
	if strings.TrimSpace(s) == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}

// CellFloat interprets a cell as a number. Missing and non-numeric cells
// report ok=false.
func CellFloat(c null.String) (float64, bool) {
	if !c.Valid {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(c.String), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FloatCell formats v with the shortest representation that round-trips.
func FloatCell(v float64) null.String {
	return null.StringFrom(FormatFloat(v))
}

// FormatFloat formats v without trailing zeros.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
