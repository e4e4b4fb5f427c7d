package dataprocessing

import (
	"log/slog"
	"strings"

	"gopkg.in/guregu/null.v3"

	apperrors "luminexcli/internal/errors"
	"luminexcli/pkg/contracts/domain"
)

// Aggregator concatenates processed plates into the study-wide dataset
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Aggregate stacks tables in the order given. The result has Plate first,
// then Well when any plate has it, then the union of all other columns in
// first-seen order. Columns a plate lacks are missing for its rows. Rows that
// are empty in every column except Plate are dropped.
//
// An empty input returns NOT_FOUND and no table.
func (a *Aggregator) Aggregate(tables []*domain.Table) (*domain.Table, error) {
	if len(tables) == 0 {
		return nil, apperrors.NewNotFoundError("processed plates")
	}

	columns := unionColumns(tables)
	out := domain.NewTable(columns)

	dropped := 0
	for _, t := range tables {
		src := make([]int, len(columns))
		for j, name := range columns {
			src[j] = t.ColumnIndex(name)
		}

		for _, row := range t.Rows {
			next := make([]null.String, len(columns))
			next[0] = null.StringFrom(t.Plate)
			vacuous := true
			for j := 1; j < len(columns); j++ {
				if src[j] < 0 {
					continue
				}
				cell := row[src[j]]
				next[j] = cell
				if cell.Valid && strings.TrimSpace(cell.String) != "" {
					vacuous = false
				}
			}
			if vacuous {
				dropped++
				continue
			}
			out.Rows = append(out.Rows, next)
		}
	}

	a.logger.Info("Aggregated plates",
		slog.Int("plates", len(tables)),
		slog.Int("rows", out.Len()),
		slog.Int("columns", len(columns)),
		slog.Int("dropped_rows", dropped))

	return out, nil
}

func unionColumns(tables []*domain.Table) []string {
	columns := []string{domain.ColumnPlate}
	seen := map[string]bool{domain.ColumnPlate: true}

	for _, t := range tables {
		if t.HasColumn(domain.ColumnWell) {
			columns = append(columns, domain.ColumnWell)
			seen[domain.ColumnWell] = true
			break
		}
	}
	for _, t := range tables {
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}
	return columns
}
