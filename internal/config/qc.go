package config

import (
	"fmt"
	"math"

	apperrors "luminexcli/internal/errors"
)

// DefaultHeatmapMax is the upper colour boundary used when none is configured.
const DefaultHeatmapMax = 200

// Thresholds is the immutable QC configuration shared by the flagger and the
// heatmap renderer. The zero value is not valid; use NewThresholds.
type Thresholds struct {
	warning float64
	fail    float64
	upper   float64
}

// NewThresholds validates fail < warning and returns the threshold set. upper
// is the top of the heatmap scale; zero selects DefaultHeatmapMax.
func NewThresholds(warning, fail, upper float64) (Thresholds, error) {
	for name, v := range map[string]float64{"warning": warning, "fail": fail, "upper": upper} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Thresholds{}, apperrors.NewConfigError(fmt.Sprintf("%s threshold must be finite", name), nil)
		}
	}
	if fail < 0 {
		return Thresholds{}, apperrors.NewConfigError(fmt.Sprintf("fail threshold %v must not be negative", fail), nil)
	}
	if fail >= warning {
		return Thresholds{}, apperrors.NewConfigError(
			fmt.Sprintf("fail threshold %v must be below warning threshold %v", fail, warning), nil).
			WithContext("fail_threshold", fail).
			WithContext("warning_threshold", warning)
	}
	if upper == 0 {
		upper = DefaultHeatmapMax
	}
	if upper < warning {
		return Thresholds{}, apperrors.NewConfigError(
			fmt.Sprintf("heatmap upper bound %v must not be below warning threshold %v", upper, warning), nil)
	}
	return Thresholds{warning: warning, fail: fail, upper: upper}, nil
}

// Thresholds converts the QC section into a validated threshold set.
func (q QCConfig) Thresholds() (Thresholds, error) {
	return NewThresholds(q.WarningThreshold, q.FailThreshold, q.HeatmapMax)
}

// Warning is the count below which an observation is a warning.
func (t Thresholds) Warning() float64 { return t.warning }

// Fail is the count below which an observation fails.
func (t Thresholds) Fail() float64 { return t.fail }

// Upper is the top of the heatmap colour scale.
func (t Thresholds) Upper() float64 { return t.upper }

// Bounds returns the colour-band boundaries [0, fail, warning, upper].
func (t Thresholds) Bounds() []float64 {
	return []float64{0, t.fail, t.warning, t.upper}
}
