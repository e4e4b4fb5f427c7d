package dataprocessing

import (
	"regexp"

	"gopkg.in/guregu/null.v3"

	apperrors "luminexcli/internal/errors"
	"luminexcli/pkg/contracts/domain"
)

// wellPattern matches a plate position such as "(C7)" or ",C7)" inside the
// instrument's Location text, e.g. "1(1,A1)".
var wellPattern = regexp.MustCompile(`[,(]([A-H]\d{1,2})\)`)

// ResolveWell extracts the well identifier from a Location value. The first
// match wins; text without a well token yields a missing value.
func ResolveWell(location null.String) null.String {
	if !location.Valid {
		return null.String{}
	}
	m := wellPattern.FindStringSubmatch(location.String)
	if m == nil {
		return null.String{}
	}
	return null.StringFrom(m[1])
}

// ResolveWells adds (or replaces) the Well column derived from Location.
// It returns MISSING_COLUMN when the table has no Location column.
func ResolveWells(t *domain.Table) error {
	idx := t.ColumnIndex(domain.ColumnLocation)
	if idx < 0 {
		return apperrors.NewMissingColumnError(domain.ColumnLocation).
			WithContext("plate", t.Plate)
	}

	wells := make([]null.String, t.Len())
	for i, row := range t.Rows {
		wells[i] = ResolveWell(row[idx])
	}
	t.SetColumn(domain.ColumnWell, wells)
	return nil
}
