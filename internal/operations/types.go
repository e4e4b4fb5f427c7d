package operations

import (
	"time"

	"luminexcli/pkg/contracts/domain"
)

// Stage identifiers used in logs and progress reports
const (
	StageIDLayouts   = "layouts"
	StageIDPlates    = "plates"
	StageIDFlags     = "flags"
	StageIDAggregate = "aggregate"
)

// Skip reasons that are not AppError types
const (
	ReasonCanceled = "CANCELED"
	ReasonUnknown  = "UNKNOWN"
)

// RunSummary reports what one pipeline run produced
type RunSummary struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`

	Plates    []domain.PlateResult `json:"plates"`
	Processed int                  `json:"processed"`
	Skipped   int                  `json:"skipped"`

	LayoutsConverted int            `json:"layouts_converted"`
	FlagCounts       map[string]int `json:"flag_counts"`

	// Output paths; MergedPath is empty when no plate was processed.
	FlagsPath  string `json:"flags_path"`
	MergedPath string `json:"merged_path,omitempty"`
}

// Flags returns every flag of the run in plate order
func (s *RunSummary) Flags() []domain.Flag {
	var out []domain.Flag
	for _, p := range s.Plates {
		out = append(out, p.Flags...)
	}
	return out
}

// ProcessedTables returns the processed plate tables in plate order
func (s *RunSummary) ProcessedTables() []*domain.Table {
	var out []*domain.Table
	for _, p := range s.Plates {
		if p.OK() && p.Processed != nil {
			out = append(out, p.Processed)
		}
	}
	return out
}
