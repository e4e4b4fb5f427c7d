package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luminexcli/internal/config"
	apperrors "luminexcli/internal/errors"
	"luminexcli/internal/infrastructure"
)

func TestLoadConfig_FlagsOverride(t *testing.T) {
	base := t.TempDir()
	opts, err := parseFlags([]string{"-base", base, "-warning", "60", "-fail", "30", "-workers", "3", "-heatmaps=false", "-reference", "Blank"}, io.Discard)
	require.NoError(t, err)

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, base, cfg.Paths.BaseDir)
	assert.Equal(t, 60.0, cfg.QC.WarningThreshold)
	assert.Equal(t, 30.0, cfg.QC.FailThreshold)
	assert.Equal(t, 3, cfg.Pipeline.Workers)
	assert.False(t, cfg.Pipeline.Heatmaps)
	assert.Equal(t, "Blank", cfg.QC.ReferenceColumn)
}

func TestLoadConfig_UnsetFlagsKeepDefaults(t *testing.T) {
	opts, err := parseFlags(nil, io.Discard)
	require.NoError(t, err)

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.QC.WarningThreshold)
	assert.Equal(t, 40.0, cfg.QC.FailThreshold)
	assert.True(t, cfg.Pipeline.Heatmaps)
}

func TestLoadConfig_BaseFolderYAML(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, configFileName), []byte("qc:\n  warning_threshold: 80\n  fail_threshold: 20\n"), 0644))

	opts, err := parseFlags([]string{"-base", base, "-fail", "25"}, io.Discard)
	require.NoError(t, err)

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.QC.WarningThreshold)
	assert.Equal(t, 25.0, cfg.QC.FailThreshold, "flags win over the file")
}

func TestLoadConfig_InvalidThresholds(t *testing.T) {
	opts, err := parseFlags([]string{"-warning", "40", "-fail", "50"}, io.Discard)
	require.NoError(t, err)

	_, err = loadConfig(opts)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
}

func TestLoadConfig_FlagsRepairInvalidEnvironment(t *testing.T) {
	t.Setenv("LUMINEX_QC_WARNING_THRESHOLD", "30")
	t.Setenv("LUMINEX_QC_FAIL_THRESHOLD", "40")

	opts, err := parseFlags([]string{"-warning", "55"}, io.Discard)
	require.NoError(t, err)

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 55.0, cfg.QC.WarningThreshold)
	assert.Equal(t, 40.0, cfg.QC.FailThreshold)
}

func TestLoadConfig_FileLoggingDefaultsUnderBase(t *testing.T) {
	base := t.TempDir()
	t.Setenv("LUMINEX_LOGGING_OUTPUT", "file")

	opts, err := parseFlags([]string{"-base", base}, io.Discard)
	require.NoError(t, err)

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	paths, err := config.NewPaths(base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.LogsDir, logFileName), cfg.Logging.FilePath)
}

func TestParseFlags_Version(t *testing.T) {
	opts, err := parseFlags([]string{"-version"}, io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.version)
	assert.True(t, opts.set["version"])
}

func TestParseFlags_Unknown(t *testing.T) {
	_, err := parseFlags([]string{"-nope"}, io.Discard)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	base := filepath.Join(t.TempDir(), "study")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "data", "raw"), 0755))
	export := "DataType:,Median\nLocation,Sample,BSA,Flu,Total Events\n\"1(1,A1)\",S1,10,30,100\n\nDataType:,Count\nLocation,Sample,BSA,Flu,Total Events\n\"1(1,A1)\",S1,60,45,100\n"
	require.NoError(t, os.WriteFile(filepath.Join(base, "data", "raw", "plate1.csv"), []byte(export), 0644))

	cfg := config.Default()
	cfg.Paths.BaseDir = base
	cfg.Pipeline.Heatmaps = false
	cfg.Telemetry.MetricExporter = "prometheus"

	var buf bytes.Buffer
	code := run(context.Background(), cfg, infrastructure.NewLogger(cfg.Logging, &buf))
	assert.Equal(t, exitOK, code, buf.String())
	assert.Contains(t, buf.String(), "Run summary")

	paths, err := config.NewPaths(base)
	require.NoError(t, err)
	assert.FileExists(t, paths.ProcessedPath("plate1"))
	assert.FileExists(t, paths.FlaggedWells)

	metrics, err := os.ReadFile(paths.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "plates_processed")
}

func TestRun_MissingRawFolder(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()

	var buf bytes.Buffer
	code := run(context.Background(), cfg, infrastructure.NewLogger(cfg.Logging, &buf))
	assert.Equal(t, exitRunFailed, code)
	assert.Contains(t, buf.String(), "Pipeline run failed")
}
