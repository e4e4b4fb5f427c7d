package dataprocessing

import (
	"math"

	"gopkg.in/guregu/null.v3"

	apperrors "luminexcli/internal/errors"
	"luminexcli/pkg/contracts/domain"
)

// DefaultReferenceColumn is the blank bead channel used for background
// correction.
const DefaultReferenceColumn = "BSA"

// CorrectBackground subtracts the reference analyte from every other analyte
// row by row and clamps the result at zero. The reference column is left as
// is. A non-numeric value or reference yields a missing cell.
func CorrectBackground(t *domain.Table, reference string) error {
	analytes, err := AnalyteColumns(t)
	if err != nil {
		return err
	}

	refIdx := -1
	for _, a := range analytes {
		if a == reference {
			refIdx = t.ColumnIndex(a)
			break
		}
	}
	if refIdx < 0 {
		return apperrors.NewMissingReferenceColumnError(reference).WithContext("plate", t.Plate)
	}

	targets := make([]int, 0, len(analytes))
	for _, a := range analytes {
		if idx := t.ColumnIndex(a); idx != refIdx {
			targets = append(targets, idx)
		}
	}

	for _, row := range t.Rows {
		ref, refOK := domain.CellFloat(row[refIdx])
		for _, idx := range targets {
			v, ok := domain.CellFloat(row[idx])
			if !ok || !refOK {
				row[idx] = null.String{}
				continue
			}
			row[idx] = domain.FloatCell(math.Max(0, v-ref))
		}
	}
	return nil
}

// BuildProcessedTable returns the per-plate output: Plate when the table
// carries a plate name, the metadata columns that are present (Well,
// Study_sample, Subclass), then Sample and the analytes in source order.
func BuildProcessedTable(t *domain.Table) (*domain.Table, error) {
	analytes, err := AnalyteColumns(t)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	order := []string{domain.ColumnWell, domain.ColumnStudySample, domain.ColumnSubclass, domain.ColumnSample}
	if t.Plate != "" {
		plate := make([]null.String, out.Len())
		for i := range plate {
			plate[i] = null.StringFrom(t.Plate)
		}
		out.SetColumn(domain.ColumnPlate, plate)
		order = append([]string{domain.ColumnPlate}, order...)
	}
	order = append(order, analytes...)

	out.Reorder(order)
	return out, nil
}
