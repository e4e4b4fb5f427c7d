package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	base := t.TempDir()
	paths, err := NewPaths(base)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(paths.BaseDir))
	assert.Equal(t, filepath.Join(base, "data", "raw"), paths.RawDir)
	assert.Equal(t, filepath.Join(base, "data", "extraction", "bead_count"), paths.BeadCountDir)
	assert.Equal(t, filepath.Join(base, "data", "extraction", "median_mfi"), paths.MedianMFIDir)
	assert.Equal(t, filepath.Join(base, "data", "plate_layout", "input_layouts"), paths.LayoutInputDir)
	assert.Equal(t, filepath.Join(base, "data", "plate_layout", "keys"), paths.KeysDir)
	assert.Equal(t, filepath.Join(base, "data", "qc", "bead_count_heatmaps"), paths.HeatmapDir)
	assert.Equal(t, filepath.Join(base, "data", "qc", "flagged_wells.csv"), paths.FlaggedWells)
	assert.Equal(t, filepath.Join(base, "data", "clean"), paths.CleanDir)
	assert.Equal(t, filepath.Join(base, "logs"), paths.LogsDir)
}

func TestPathHelpers(t *testing.T) {
	base := filepath.Join(t.TempDir(), "study")
	paths, err := NewPaths(base)
	require.NoError(t, err)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"bead count", paths.BeadCountPath("run1"), filepath.Join(paths.BeadCountDir, "run1_bead_count.csv")},
		{"median mfi", paths.MedianMFIPath("run1"), filepath.Join(paths.MedianMFIDir, "run1_median_mfi.csv")},
		{"key", paths.KeyPath("plate1"), filepath.Join(paths.KeysDir, "plate1_key.csv")},
		{"processed", paths.ProcessedPath("plate1"), filepath.Join(paths.CleanDir, "plate1_processed.csv")},
		{"heatmap", paths.HeatmapPath("plate1"), filepath.Join(paths.HeatmapDir, "plate1_heatmap.png")},
		{"merged", paths.MergedPath(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)), filepath.Join(paths.DataDir, "study_merged_2024-01-15.csv")},
		{"log", paths.GetLogPath("luminex.log"), filepath.Join(paths.LogsDir, "luminex.log")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	paths, err := NewPaths(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.BeadCountDir, paths.MedianMFIDir, paths.KeysDir, paths.CleanDir, paths.HeatmapDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
	assert.False(t, FileExists(paths.RawDir), "inputs are not created")
}
