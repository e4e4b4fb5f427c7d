package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"luminexcli/internal/config"
	apperrors "luminexcli/internal/errors"
	"luminexcli/internal/infrastructure"
	"luminexcli/internal/operations"
	"luminexcli/pkg/contracts"
)

// Exit codes
const (
	exitOK            = 0
	exitRunFailed     = 1
	exitInvalidConfig = 2
)

// configFileName is looked up in the base folder when no file is named.
const configFileName = "luminex.yaml"

// logFileName is used under <base>/logs when file logging has no path.
const logFileName = "luminex.log"

// cliOptions holds the parsed command line. Only flags the user set
// override the loaded configuration.
type cliOptions struct {
	base       string
	configFile string
	warning    float64
	fail       float64
	workers    int
	heatmaps   bool
	reference  string
	version    bool
	set        map[string]bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(exitInvalidConfig)
	}
	if opts.version {
		fmt.Println(contracts.GetFullVersionString())
		os.Exit(exitOK)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(exitInvalidConfig)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(exitInvalidConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, logger)
	stop()

	if err := infrastructure.CloseLogFile(); err != nil {
		slog.Error("Failed to close log file", slog.String("error", err.Error()))
	}
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &cliOptions{set: map[string]bool{}}
	fs.StringVar(&opts.base, "base", "", "study folder containing data/raw (defaults to the configured base_dir)")
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file (defaults to $LUMINEX_CONFIG_FILE, then <base>/"+configFileName+")")
	fs.Float64Var(&opts.warning, "warning", 0, "bead count below which a well is flagged Warning")
	fs.Float64Var(&opts.fail, "fail", 0, "bead count below which a well is flagged Failed")
	fs.IntVar(&opts.workers, "workers", 0, "plates processed concurrently")
	fs.BoolVar(&opts.heatmaps, "heatmaps", true, "render a bead-count heatmap per plate")
	fs.StringVar(&opts.reference, "reference", "", "background reference analyte subtracted from the others")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// loadConfig layers defaults, the YAML file, the environment and the flags,
// then validates the result once.
func loadConfig(opts *cliOptions) (*config.Config, error) {
	configFile := opts.configFile
	if configFile == "" && os.Getenv(config.EnvPrefix+"_CONFIG_FILE") == "" && opts.base != "" {
		candidate := filepath.Join(opts.base, configFileName)
		if config.FileExists(candidate) {
			configFile = candidate
		}
	}

	cfg, err := config.Read(configFile)
	if err != nil {
		return nil, err
	}

	if opts.set["base"] {
		cfg.Paths.BaseDir = opts.base
	}
	if opts.set["warning"] {
		cfg.QC.WarningThreshold = opts.warning
	}
	if opts.set["fail"] {
		cfg.QC.FailThreshold = opts.fail
	}
	if opts.set["workers"] {
		cfg.Pipeline.Workers = opts.workers
	}
	if opts.set["heatmaps"] {
		cfg.Pipeline.Heatmaps = opts.heatmaps
	}
	if opts.set["reference"] {
		cfg.QC.ReferenceColumn = opts.reference
	}

	if cfg.Logging.Output != "console" && cfg.Logging.FilePath == "" {
		paths, err := config.NewPaths(cfg.Paths.BaseDir)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to resolve log directory", err)
		}
		cfg.Logging.FilePath = paths.GetLogPath(logFileName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	ctx = infrastructure.ContextWithRunID(ctx)

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		return exitInvalidConfig
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	paths, err := config.NewPaths(cfg.Paths.BaseDir)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to resolve paths", slog.String("error", err.Error()))
		return exitInvalidConfig
	}

	runner, err := operations.NewRunner(cfg, paths, logger, operations.Options{Providers: providers})
	if err != nil {
		logger.ErrorContext(ctx, "Invalid configuration", slog.String("error", err.Error()))
		if apperrors.Is(err, apperrors.ErrInvalidConfiguration) {
			return exitInvalidConfig
		}
		return exitRunFailed
	}

	summary, err := runner.Run(ctx)
	if mErr := runner.WriteMetrics(); mErr != nil {
		logger.WarnContext(ctx, "Metrics not written", slog.String("error", mErr.Error()))
	}
	if err != nil {
		logger.ErrorContext(ctx, "Pipeline run failed", slog.String("error", err.Error()))
		return exitRunFailed
	}

	logger.InfoContext(ctx, "Run summary",
		slog.String("version", contracts.Version),
		slog.String("run_id", summary.RunID),
		slog.Int("processed", summary.Processed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("layouts_converted", summary.LayoutsConverted),
		slog.Any("flags", summary.FlagCounts),
		slog.String("flagged_wells", summary.FlagsPath),
		slog.String("merged", summary.MergedPath))

	for _, p := range summary.Plates {
		if !p.OK() {
			logger.WarnContext(ctx, fmt.Sprintf("Plate %s skipped", p.Plate),
				slog.String("file", p.File),
				slog.String("reason", p.Reason))
		}
	}
	return exitOK
}
