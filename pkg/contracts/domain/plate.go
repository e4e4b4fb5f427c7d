package domain

import "time"

// PlateStatus is the outcome of processing one plate
type PlateStatus string

const (
	PlateProcessed PlateStatus = "processed"
	PlateSkipped   PlateStatus = "skipped"
)

// PlateResult is what one raw export contributed to a run.
type PlateResult struct {
	Plate  string      `json:"plate"`
	File   string      `json:"file"`
	Status PlateStatus `json:"status"`

	// Reason is the error type that skipped the plate.
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`

	// Enriched reports whether key metadata was merged.
	Enriched bool          `json:"enriched"`
	Flags    []Flag        `json:"flags,omitempty"`
	Beads    BeadSummary   `json:"beads"`
	Duration time.Duration `json:"duration"`

	Processed *Table `json:"-"`
}

// OK reports whether the plate produced a processed table.
func (r PlateResult) OK() bool {
	return r.Status == PlateProcessed
}
