// Command keysheet converts plate layout workbooks into key CSVs.
//
//	keysheet -base ./study            convert every workbook in data/plate_layout/input_layouts
//	keysheet -out plate1_key.csv plate1_layout.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"luminexcli/internal/config"
	"luminexcli/internal/dataprocessing"
	"luminexcli/internal/exporter"
	"luminexcli/internal/files"
	"luminexcli/internal/infrastructure"
	"luminexcli/internal/operations"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(2)
	}

	code := run(context.Background(), cfg, os.Args[1:], os.Stderr, logger)
	if err := infrastructure.CloseLogFile(); err != nil {
		slog.Error("Failed to close log file", slog.String("error", err.Error()))
	}
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, args []string, stderr io.Writer, logger *slog.Logger) int {
	fs := flag.NewFlagSet("keysheet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	base := fs.String("base", cfg.Paths.BaseDir, "study folder whose layout workbooks are converted")
	out := fs.String("out", "", "output CSV when converting a single workbook")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() > 0 {
		return convertOne(fs.Arg(0), *out, cfg, logger)
	}

	paths, err := config.NewPaths(*base)
	if err != nil {
		logger.Error("Failed to resolve paths", slog.String("error", err.Error()))
		return 2
	}

	runner, err := operations.NewRunner(cfg, paths, logger, operations.Options{})
	if err != nil {
		logger.Error("Invalid configuration", slog.String("error", err.Error()))
		return 2
	}

	n := runner.ConvertLayouts(ctx)
	logger.Info(fmt.Sprintf("Converted %d layout workbooks", n), slog.String("keys", paths.KeysDir))
	return 0
}

// convertOne converts src and writes next to it unless dst is given.
func convertOne(src, dst string, cfg *config.Config, logger *slog.Logger) int {
	if dst == "" {
		dst = filepath.Join(filepath.Dir(src), files.PlateFromLayout(filepath.Base(src))+"_key.csv")
	}

	writer := exporter.NewCSVWriter(files.NewManager(logger), logger, exporter.WriteOptions{BOMPrefix: cfg.Pipeline.BOMPrefix})
	converter := dataprocessing.NewKeySheetConverter(writer, logger)
	if err := converter.Convert(src, dst); err != nil {
		logger.Error("Layout conversion failed",
			slog.String("file", src),
			slog.String("error", err.Error()))
		return 1
	}

	logger.Info("Layout converted", slog.String("file", src), slog.String("key", dst))
	return 0
}
