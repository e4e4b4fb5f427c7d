package beadqc

import (
	"log/slog"

	"luminexcli/internal/config"
	"luminexcli/internal/dataprocessing"
	"luminexcli/pkg/contracts/domain"
)

// Flagger classifies bead counts against the QC thresholds
type Flagger struct {
	thresholds config.Thresholds
	logger     *slog.Logger
}

// NewFlagger creates a flagger for an already validated threshold set
func NewFlagger(thresholds config.Thresholds, logger *slog.Logger) *Flagger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flagger{thresholds: thresholds, logger: logger}
}

// Classify returns the severity of a single observation. ok is false when the
// count meets the warning threshold.
func (f *Flagger) Classify(count float64) (domain.Severity, bool) {
	switch {
	case count < f.thresholds.Fail():
		return domain.SeverityFail, true
	case count < f.thresholds.Warning():
		return domain.SeverityWarning, true
	default:
		return "", false
	}
}

// Flag returns one record per analyte cell below the warning threshold, in
// row order and then analyte column order. Missing and non-numeric cells are
// never flagged. The table is not modified.
func (f *Flagger) Flag(t *domain.Table) ([]domain.Flag, error) {
	analytes, err := dataprocessing.AnalyteColumns(t)
	if err != nil {
		return nil, err
	}

	idx := make([]int, len(analytes))
	for i, a := range analytes {
		idx[i] = t.ColumnIndex(a)
	}

	var flags []domain.Flag
	for i := range t.Rows {
		sample := t.Value(i, domain.ColumnSample)
		studySample := t.Value(i, domain.ColumnStudySample)
		label := domain.StudySamplePlaceholder
		if studySample.Valid {
			label = studySample.String
		}

		for j, col := range idx {
			count, ok := domain.CellFloat(t.Rows[i][col])
			if !ok {
				continue
			}
			severity, flagged := f.Classify(count)
			if !flagged {
				continue
			}
			flags = append(flags, domain.Flag{
				Plate:       t.Plate,
				Sample:      sample.String,
				StudySample: label,
				Antigen:     analytes[j],
				BeadCount:   domain.BeadCount(count),
				Severity:    severity,
			})
		}
	}

	f.logger.Debug("Flagged bead counts",
		slog.String("plate", t.Plate),
		slog.Int("flags", len(flags)))

	return flags, nil
}

// CountBySeverity tallies flags per severity label.
func CountBySeverity(flags []domain.Flag) map[string]int {
	counts := make(map[string]int)
	for _, fl := range flags {
		counts[string(fl.Severity)]++
	}
	return counts
}
