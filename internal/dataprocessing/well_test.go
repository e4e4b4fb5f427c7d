package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	apperrors "luminexcli/internal/errors"
	"luminexcli/pkg/contracts/domain"
)

func TestResolveWell(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"1(1,A1)", "A1"},
		{"12(1,H12)", "H12"},
		{"(C7)", "C7"},
		{"5(2,D3),(E4)", "D3"},
		{"1(1,I1)", ""},
		{"1(1,a1)", ""},
		{"1(1,A123)", ""},
		{"A1", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			got := ResolveWell(null.StringFrom(tt.location))
			if tt.want == "" {
				assert.False(t, got.Valid)
				return
			}
			assert.Equal(t, null.StringFrom(tt.want), got)
		})
	}

	assert.False(t, ResolveWell(null.String{}).Valid)
}

func TestResolveWells(t *testing.T) {
	table := domain.NewTable([]string{"Location", "Sample"})
	table.AppendRow([]null.String{null.StringFrom("1(1,A1)"), null.StringFrom("S1")})
	table.AppendRow([]null.String{null.StringFrom("garbage"), null.StringFrom("S2")})
	table.AppendRow([]null.String{{}, null.StringFrom("S3")})

	require.NoError(t, ResolveWells(table))
	assert.Equal(t, []string{"Location", "Sample", "Well"}, table.Columns)
	assert.Equal(t, "A1", table.Value(0, "Well").String)
	assert.False(t, table.Value(1, "Well").Valid)
	assert.False(t, table.Value(2, "Well").Valid)
}

func TestResolveWells_MissingLocation(t *testing.T) {
	table := domain.NewTable([]string{"Sample"})
	table.Plate = "plate1"

	err := ResolveWells(table)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMissingColumn)

	var ae *apperrors.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "plate1", ae.Context["plate"])
}
