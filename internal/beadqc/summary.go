package beadqc

import (
	"github.com/montanaflynn/stats"

	"luminexcli/internal/dataprocessing"
	"luminexcli/pkg/contracts/domain"
)

// Summarize computes bead-count statistics over every analyte cell of the
// Count table. A plate with no numeric counts yields a zero summary.
func Summarize(t *domain.Table) (domain.BeadSummary, error) {
	analytes, err := dataprocessing.AnalyteColumns(t)
	if err != nil {
		return domain.BeadSummary{}, err
	}

	var data stats.Float64Data
	for _, a := range analytes {
		col := t.ColumnIndex(a)
		for _, row := range t.Rows {
			if v, ok := domain.CellFloat(row[col]); ok {
				data = append(data, v)
			}
		}
	}
	if data.Len() == 0 {
		return domain.BeadSummary{}, nil
	}

	summary := domain.BeadSummary{Observations: data.Len()}
	if summary.Min, err = data.Min(); err != nil {
		return domain.BeadSummary{}, err
	}
	if summary.Median, err = data.Median(); err != nil {
		return domain.BeadSummary{}, err
	}
	if summary.Mean, err = data.Mean(); err != nil {
		return domain.BeadSummary{}, err
	}
	return summary, nil
}
