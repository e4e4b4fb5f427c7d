package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func cells(values ...string) []null.String {
	out := make([]null.String, len(values))
	for i, v := range values {
		out[i] = CellFromString(v)
	}
	return out
}

func TestTable_MoveToFront(t *testing.T) {
	tests := []struct {
		name     string
		columns  []string
		move     []string
		expected []string
	}{
		{
			name:     "trailing metadata moved to front in given order",
			columns:  []string{"Location", "Sample", "IgG", "Well", "Study_sample", "Subclass"},
			move:     []string{"Well", "Study_sample", "Subclass"},
			expected: []string{"Well", "Study_sample", "Subclass", "Location", "Sample", "IgG"},
		},
		{
			name:     "missing names skipped",
			columns:  []string{"Sample", "Well", "IgG"},
			move:     []string{"Well", "Study_sample", "Subclass"},
			expected: []string{"Well", "Sample", "IgG"},
		},
		{
			name:     "already in front",
			columns:  []string{"Well", "Sample"},
			move:     []string{"Well"},
			expected: []string{"Well", "Sample"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := NewTable(tt.columns)
			row := make([]string, len(tt.columns))
			copy(row, tt.columns)
			tbl.AppendRow(cells(row...))

			tbl.MoveToFront(tt.move...)

			assert.Equal(t, tt.expected, tbl.Columns)
			// each cell was seeded with its own column name
			for i, c := range tbl.Columns {
				assert.Equal(t, c, tbl.Rows[0][i].String)
			}
		})
	}
}

func TestTable_SetColumn(t *testing.T) {
	tbl := NewTable([]string{"Sample"})
	tbl.AppendRow(cells("1"))
	tbl.AppendRow(cells("2"))

	tbl.SetColumn("Well", cells("A1"))
	require.Equal(t, []string{"Sample", "Well"}, tbl.Columns)
	assert.Equal(t, "A1", tbl.Value(0, "Well").String)
	assert.False(t, tbl.Value(1, "Well").Valid)

	tbl.SetColumn("Sample", cells("x", "y"))
	assert.Equal(t, "y", tbl.Value(1, "Sample").String)
}

func TestTable_AppendRowKeepsShape(t *testing.T) {
	tbl := NewTable([]string{"a", "b", "c"})
	tbl.AppendRow(cells("1"))
	tbl.AppendRow(cells("1", "2", "3", "4"))

	for _, row := range tbl.Rows {
		assert.Len(t, row, 3)
	}
	assert.False(t, tbl.Value(0, "c").Valid)
	assert.False(t, tbl.Value(0, "unknown").Valid)
}

func TestTable_CloneIsDeep(t *testing.T) {
	tbl := NewTable([]string{"a"})
	tbl.Plate = "P1"
	tbl.AppendRow(cells("1"))

	c := tbl.Clone()
	c.Rows[0][0] = null.StringFrom("changed")
	c.Columns[0] = "z"

	assert.Equal(t, "1", tbl.Rows[0][0].String)
	assert.Equal(t, "a", tbl.Columns[0])
	assert.Equal(t, "P1", c.Plate)
}

func TestCellFloat(t *testing.T) {
	tests := []struct {
		in    null.String
		value float64
		ok    bool
	}{
		{null.StringFrom("42"), 42, true},
		{null.StringFrom(" 3.5 "), 3.5, true},
		{null.StringFrom("NaN-ish"), 0, false},
		{null.String{}, 0, false},
	}
	for _, tt := range tests {
		v, ok := CellFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in.String)
		assert.Equal(t, tt.value, v)
	}

	assert.Equal(t, "12.5", FloatCell(12.5).String)
	assert.Equal(t, "0", FormatFloat(0))
	assert.False(t, CellFromString("   ").Valid)
}

func TestKeyTable_Duplicates(t *testing.T) {
	kt, dups := NewKeyTable("P1", []KeyRow{
		{Well: "A1", StudySample: "S1"},
		{Well: "A2", StudySample: "S2"},
		{Well: "A1", StudySample: "S3"},
		{Well: "", StudySample: "blank"},
	})

	assert.Equal(t, []string{"A1"}, dups)
	assert.Equal(t, 2, kt.Len())
	row, ok := kt.Lookup("A1")
	require.True(t, ok)
	assert.Equal(t, "S1", row.StudySample)

	_, ok = kt.Lookup("H12")
	assert.False(t, ok)

	var nilTable *KeyTable
	_, ok = nilTable.Lookup("A1")
	assert.False(t, ok)
}
