package dataprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	apperrors "luminexcli/internal/errors"
	"luminexcli/pkg/contracts/domain"
)

func wellTable(wells ...string) *domain.Table {
	table := domain.NewTable([]string{"Sample", "BSA", "Total Events", "Well"})
	for i, w := range wells {
		well := null.StringFrom(w)
		if w == "" {
			well = null.String{}
		}
		table.AppendRow([]null.String{null.StringFrom("S" + string(rune('1'+i))), null.StringFrom("10"), null.StringFrom("100"), well})
	}
	return table
}

func TestParseKeyTable(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"comma", "Well,Study_sample,Subclass\nA1,P001,IgG1\nB1,P002,IgG2\n"},
		{"semicolon", "Well;Study_sample;Subclass\nA1;P001;IgG1\nB1;P002;IgG2\n"},
		{"tab", "Well\tStudy_sample\tSubclass\nA1\tP001\tIgG1\nB1\tP002\tIgG2\n"},
		{"bom and extra column", "\ufeffPlateRow,Well,Study_sample,Subclass\n1,A1,P001,IgG1\n2,B1,P002,IgG2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseKeyTable(strings.NewReader(tt.text), "plate1")
			require.NoError(t, err)
			assert.Equal(t, 2, key.Len())

			row, ok := key.Lookup("B1")
			require.True(t, ok)
			assert.Equal(t, "P002", row.StudySample)
			assert.Equal(t, "IgG2", row.Subclass)
		})
	}
}

func TestParseKeyTable_Errors(t *testing.T) {
	_, err := ParseKeyTable(strings.NewReader("Well,Study_sample\nA1,P001\nB1,P002\n"), "plate1")
	assert.ErrorIs(t, err, apperrors.ErrMissingColumn)

	_, err = ParseKeyTable(strings.NewReader("Well,Study_sample,Subclass\nA1,P001,IgG1\nA1,P009,IgG3\n"), "plate1")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateWell)

	var ae *apperrors.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, []string{"A1"}, ae.Context["wells"])
}

func TestLoadKeyTable_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plate9_key.csv")
	_, err := LoadKeyTable(path, "plate9")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrKeyNotFound)
}

func TestLoadKeyTable_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plate1_key.csv")
	require.NoError(t, os.WriteFile(path, []byte("Well,Study_sample,Subclass\nA1,P001,IgG1\n"), 0644))

	key, err := LoadKeyTable(path, "plate1")
	require.NoError(t, err)
	assert.Equal(t, "plate1", key.Plate)
	assert.Equal(t, 1, key.Len())
}

func TestMergeKeys(t *testing.T) {
	key, dups := domain.NewKeyTable("plate1", []domain.KeyRow{
		{Well: "A1", StudySample: "P001", Subclass: "IgG1"},
		{Well: "C1", StudySample: "P003", Subclass: ""},
	})
	require.Empty(t, dups)

	table := wellTable("A1", "B1", "", "C1")
	require.NoError(t, MergeKeys(table, key))

	assert.Equal(t, 4, table.Len(), "left join keeps every row")
	assert.Equal(t, []string{"Well", "Study_sample", "Subclass", "Sample", "BSA", "Total Events"}, table.Columns)

	assert.Equal(t, "P001", table.Value(0, "Study_sample").String)
	assert.Equal(t, "IgG1", table.Value(0, "Subclass").String)
	assert.False(t, table.Value(1, "Study_sample").Valid)
	assert.False(t, table.Value(2, "Study_sample").Valid)
	assert.Equal(t, "P003", table.Value(3, "Study_sample").String)
	assert.False(t, table.Value(3, "Subclass").Valid)
	assert.Equal(t, "S2", table.Value(1, "Sample").String)
}

func TestMergeKeys_RowCountPreserved(t *testing.T) {
	key, _ := domain.NewKeyTable("plate1", nil)
	for _, wells := range [][]string{{}, {"A1"}, {"A1", "A1", "B2"}, {"", ""}} {
		table := wellTable(wells...)
		require.NoError(t, MergeKeys(table, key))
		assert.Equal(t, len(wells), table.Len())
	}
}

func TestMergeKeys_NoWellColumn(t *testing.T) {
	key, _ := domain.NewKeyTable("plate1", nil)
	err := MergeKeys(domain.NewTable([]string{"Sample"}), key)
	assert.ErrorIs(t, err, apperrors.ErrMissingColumn)
}
