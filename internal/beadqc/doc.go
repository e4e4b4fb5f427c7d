// Package beadqc checks bead counts against the QC thresholds.
//
// Flagger emits a domain.Flag for every (well, analyte) count below the
// warning threshold; HeatmapRenderer draws the same table coloured by the
// same bands. Both take a config.Thresholds, so the flags and the picture
// always agree.
package beadqc
