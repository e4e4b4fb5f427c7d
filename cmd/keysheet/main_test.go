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
	"github.com/xuri/excelize/v2"

	"luminexcli/internal/config"
	"luminexcli/internal/infrastructure"
)

func writeWorkbook(t *testing.T, path string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), "Key")
	require.NoError(t, f.SetSheetRow("Key", "A1", &[]interface{}{"Well", "Study_sample", "Subclass"}))
	require.NoError(t, f.SetSheetRow("Key", "A2", &[]interface{}{"A1", "S-001", "Case"}))
	require.NoError(t, f.SaveAs(path))
}

func TestRun_SingleWorkbook(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plate1_layout.xlsx")
	writeWorkbook(t, src)

	cfg := config.Default()
	var buf bytes.Buffer
	code := run(context.Background(), cfg, []string{src}, io.Discard, infrastructure.NewLogger(cfg.Logging, &buf))
	require.Equal(t, 0, code, buf.String())

	data, err := os.ReadFile(filepath.Join(dir, "plate1_key.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Well,Study_sample,Subclass\nA1,S-001,Case\n", string(data))
}

func TestRun_StudyFolder(t *testing.T) {
	base := t.TempDir()
	paths, err := config.NewPaths(base)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(paths.LayoutInputDir, 0755))
	writeWorkbook(t, filepath.Join(paths.LayoutInputDir, "plate2_layout.xlsx"))

	cfg := config.Default()
	var buf bytes.Buffer
	code := run(context.Background(), cfg, []string{"-base", base}, io.Discard, infrastructure.NewLogger(cfg.Logging, &buf))
	require.Equal(t, 0, code, buf.String())
	assert.FileExists(t, paths.KeyPath("plate2"))
	assert.Contains(t, buf.String(), "Converted 1 layout workbooks")
}

func TestRun_BadWorkbook(t *testing.T) {
	src := filepath.Join(t.TempDir(), "plate1_layout.csv")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	cfg := config.Default()
	code := run(context.Background(), cfg, []string{src}, io.Discard, infrastructure.NewLogger(cfg.Logging, io.Discard))
	assert.Equal(t, 1, code)
}
