package operations

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"luminexcli/internal/beadqc"
	"luminexcli/internal/config"
	"luminexcli/internal/dataprocessing"
	apperrors "luminexcli/internal/errors"
	"luminexcli/internal/exporter"
	"luminexcli/internal/files"
	"luminexcli/internal/infrastructure"
	"luminexcli/pkg/contracts/domain"
)

// Options carries the optional collaborators of a Runner
type Options struct {
	// Providers enables tracing and metrics; nil disables both.
	Providers *infrastructure.OTelProviders
	// Now returns the run date used in the merged file name.
	Now func() time.Time
}

// Runner executes the pipeline over every raw export under the base folder
type Runner struct {
	cfg        *config.Config
	paths      *config.Paths
	thresholds config.Thresholds
	logger     *slog.Logger

	discovery  *files.Discovery
	files      *files.Manager
	writer     *exporter.CSVWriter
	extractor  *dataprocessing.SectionExtractor
	converter  *dataprocessing.KeySheetConverter
	aggregator *dataprocessing.Aggregator
	flagger    *beadqc.Flagger
	heatmaps   *beadqc.HeatmapRenderer

	providers *infrastructure.OTelProviders
	tracer    *RunTracer
	now       func() time.Time
}

// NewRunner validates the QC configuration and wires the pipeline. An
// invalid threshold set is returned as INVALID_CONFIGURATION before any file
// is touched.
func NewRunner(cfg *config.Config, paths *config.Paths, logger *slog.Logger, opts Options) (*Runner, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if paths == nil {
		p, err := config.NewPaths(cfg.Paths.BaseDir)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to resolve paths", err)
		}
		paths = p
	}

	thresholds, err := cfg.QC.Thresholds()
	if err != nil {
		return nil, err
	}

	tracer, err := NewRunTracer(opts.Providers)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger = infrastructure.WithComponent(logger, "runner")
	manager := files.NewManager(logger)
	writer := exporter.NewCSVWriter(manager, logger, exporter.WriteOptions{BOMPrefix: cfg.Pipeline.BOMPrefix})

	return &Runner{
		cfg:        cfg,
		paths:      paths,
		thresholds: thresholds,
		logger:     logger,
		discovery:  files.NewDiscovery(paths.BaseDir),
		files:      manager,
		writer:     writer,
		extractor:  dataprocessing.NewSectionExtractor(logger),
		converter:  dataprocessing.NewKeySheetConverter(writer, logger),
		aggregator: dataprocessing.NewAggregator(logger),
		flagger:    beadqc.NewFlagger(thresholds, logger),
		heatmaps:   beadqc.NewHeatmapRenderer(thresholds, manager, logger),
		providers:  opts.Providers,
		tracer:     tracer,
		now:        now,
	}, nil
}

// Run processes every raw export. Plate-level problems skip that plate and
// are reported in the summary; the returned error is reserved for failures
// that stop the whole run (missing raw folder, unwritable outputs,
// cancellation).
func (r *Runner) Run(ctx context.Context) (summary *RunSummary, err error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	started := time.Now()
	summary = &RunSummary{
		RunID:      infrastructure.GetTraceID(ctx),
		Started:    started,
		FlagCounts: map[string]int{},
		FlagsPath:  r.paths.FlaggedWells,
	}

	r.paths.LogPathResolution(r.logger)

	if err := r.paths.EnsureDirectories(); err != nil {
		return summary, apperrors.NewStorageError("failed to create output directories", err)
	}

	if r.cfg.Pipeline.ConvertLayouts {
		summary.LayoutsConverted = r.ConvertLayouts(ctx)
	}

	exports, err := r.discovery.FindRawExports(r.paths.RawDir)
	if err != nil {
		r.logger.ErrorContext(ctx, "Cannot list raw exports",
			slog.String("directory", r.paths.RawDir),
			slog.String("error", err.Error()))
		return summary, err
	}

	ctx, span := r.tracer.TraceRun(ctx, summary.RunID, len(exports))
	defer func() {
		summary.Duration = time.Since(started)
		r.tracer.FinishRun(ctx, span, summary, err)
	}()

	r.logger.InfoContext(ctx, "Starting pipeline run",
		slog.String("stage", StageIDPlates),
		slog.Int("exports", len(exports)),
		slog.Int("workers", r.workers()),
		slog.Float64("warning_threshold", r.thresholds.Warning()),
		slog.Float64("fail_threshold", r.thresholds.Fail()))

	summary.Plates, err = r.processPlates(ctx, exports)
	if err != nil {
		return summary, err
	}

	for _, p := range summary.Plates {
		if p.OK() {
			summary.Processed++
		} else {
			summary.Skipped++
		}
	}

	flags := summary.Flags()
	summary.FlagCounts = beadqc.CountBySeverity(flags)
	if err := r.writer.WriteFlags(r.paths.FlaggedWells, flags); err != nil {
		return summary, err
	}
	r.logger.InfoContext(ctx, "Flagged wells written",
		slog.String("stage", StageIDFlags),
		slog.Int("flags", len(flags)),
		slog.Any("by_severity", summary.FlagCounts))

	summary.MergedPath, err = r.aggregate(ctx, summary.ProcessedTables())
	if err != nil {
		return summary, err
	}

	r.logger.InfoContext(ctx, "Pipeline run finished",
		slog.Int("processed", summary.Processed),
		slog.Int("skipped", summary.Skipped),
		slog.Duration("duration", time.Since(started)))

	return summary, nil
}

// WriteMetrics stores the run metrics as a Prometheus textfile when the
// prometheus exporter is enabled.
func (r *Runner) WriteMetrics() error {
	if r.providers == nil {
		return nil
	}
	return r.providers.WriteMetrics(r.paths.MetricsFile)
}

func (r *Runner) workers() int {
	if r.cfg.Pipeline.Workers < 1 {
		return 1
	}
	return r.cfg.Pipeline.Workers
}

// processPlates runs the per-plate stage on a bounded pool. Results are
// stored by export index so the output order never depends on scheduling.
func (r *Runner) processPlates(ctx context.Context, exports []files.FileInfo) ([]domain.PlateResult, error) {
	results := make([]domain.PlateResult, len(exports))
	progress := NewProgressTracker(StageIDPlates, len(exports))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())

	for i := range exports {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			results[i] = r.processPlate(gctx, exports[i])

			done := progress.Increment()
			r.logger.DebugContext(gctx, "Plate finished",
				slog.String("plate", results[i].Plate),
				slog.String("status", string(results[i].Status)),
				slog.Int("done", done),
				slog.Int("total", len(exports)),
				slog.String("eta", progress.GetETA()))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("plate processing interrupted: %w", err)
	}

	r.logger.InfoContext(ctx, "All plates finished",
		slog.String("stage", StageIDPlates),
		slog.Int("plates", len(exports)),
		slog.String("elapsed", progress.GetElapsedTimeString()))
	return results, nil
}

// processPlate never fails the run; every error it meets becomes a skipped
// result carrying the error type.
func (r *Runner) processPlate(ctx context.Context, export files.FileInfo) domain.PlateResult {
	start := time.Now()
	plate := export.Stem()
	result := domain.PlateResult{Plate: plate, File: export.Name}

	ctx, span := r.tracer.TracePlate(ctx, plate, export.Name)
	logger := infrastructure.WithPlate(r.logger, plate).With(slog.String("file", export.Name))

	err := r.runPlate(ctx, logger, export, &result)

	result.Duration = time.Since(start)
	if err != nil {
		result.Status = domain.PlateSkipped
		result.Err = err
		result.Reason = skipReason(err)
		result.Flags = nil
		result.Processed = nil
		logAttrs := []any{slog.String("reason", result.Reason), slog.String("error", err.Error())}
		var ae *apperrors.AppError
		if apperrors.As(err, &ae) {
			for k, v := range ae.Context {
				if k != "plate" {
					logAttrs = append(logAttrs, slog.Any(k, v))
				}
			}
		}
		level := slog.LevelWarn
		if !apperrors.IsPlateLevel(err) {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "Skipping plate", logAttrs...)
	} else {
		result.Status = domain.PlateProcessed
		logger.InfoContext(ctx, "Plate processed",
			slog.Int("rows", result.Processed.Len()),
			slog.Int("flags", len(result.Flags)),
			slog.Bool("enriched", result.Enriched),
			slog.Duration("duration", result.Duration))
	}

	r.tracer.FinishPlate(ctx, span, result)
	return result
}

func (r *Runner) runPlate(ctx context.Context, logger *slog.Logger, export files.FileInfo, result *domain.PlateResult) error {
	data, err := r.files.ReadFile(export.Path)
	if err != nil {
		return err
	}
	lines, err := dataprocessing.ReadLines(bytes.NewReader(data))
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "Export sections", slog.Any("sections", r.extractor.Sections(lines)))

	count, err := r.extractor.Extract(lines, dataprocessing.SectionCount)
	if err != nil {
		return err
	}
	median, err := r.extractor.Extract(lines, dataprocessing.SectionMedian)
	if err != nil {
		return err
	}
	count.Plate = result.Plate
	median.Plate = result.Plate

	result.Enriched = r.enrich(ctx, logger, result.Plate, count, median)

	if err := r.writer.WriteTable(r.paths.BeadCountPath(export.Stem()), count); err != nil {
		return err
	}
	if err := r.writer.WriteTable(r.paths.MedianMFIPath(export.Stem()), median); err != nil {
		return err
	}

	flags, err := r.flagger.Flag(count)
	if err != nil {
		return err
	}
	result.Flags = flags

	if result.Beads, err = beadqc.Summarize(count); err != nil {
		return err
	}
	logger.DebugContext(ctx, "Bead count summary",
		slog.Int("observations", result.Beads.Observations),
		slog.Float64("min", result.Beads.Min),
		slog.Float64("median", result.Beads.Median))

	if r.cfg.Pipeline.Heatmaps {
		if err := r.heatmaps.Write(r.paths.HeatmapPath(result.Plate), count); err != nil {
			logger.WarnContext(ctx, "Heatmap not written", slog.String("error", err.Error()))
		}
	}

	corrected := median.Clone()
	if err := dataprocessing.CorrectBackground(corrected, r.cfg.QC.ReferenceColumn); err != nil {
		var ae *apperrors.AppError
		if apperrors.As(err, &ae) {
			ae.WithContext("data_type", dataprocessing.SectionMedian)
		}
		return err
	}

	processed, err := dataprocessing.BuildProcessedTable(corrected)
	if err != nil {
		return err
	}
	if err := r.writer.WriteTable(r.paths.ProcessedPath(result.Plate), processed); err != nil {
		return err
	}
	result.Processed = processed
	return nil
}

// enrich adds Well and, when the plate has a usable key, Study_sample and
// Subclass to both sections. Problems here only cost the enrichment.
func (r *Runner) enrich(ctx context.Context, logger *slog.Logger, plate string, tables ...*domain.Table) bool {
	withWells := make([]*domain.Table, 0, len(tables))
	for _, t := range tables {
		if err := dataprocessing.ResolveWells(t); err != nil {
			logger.WarnContext(ctx, "Proceeding without well enrichment",
				slog.String("column", domain.ColumnLocation),
				slog.String("error", err.Error()))
			continue
		}
		withWells = append(withWells, t)
	}
	if len(withWells) == 0 {
		return false
	}

	keyPath := r.paths.KeyPath(plate)
	key, err := dataprocessing.LoadKeyTable(keyPath, plate)
	switch {
	case apperrors.Is(err, apperrors.ErrKeyNotFound):
		logger.WarnContext(ctx, "No key table for plate, proceeding unenriched", slog.String("path", keyPath))
		return false
	case err != nil:
		logger.ErrorContext(ctx, "Key table rejected, proceeding unenriched",
			slog.String("path", keyPath),
			slog.String("error", err.Error()))
		return false
	}

	for _, t := range withWells {
		if err := dataprocessing.MergeKeys(t, key); err != nil {
			logger.WarnContext(ctx, "Key merge failed", slog.String("error", err.Error()))
			return false
		}
	}
	return len(withWells) == len(tables)
}

func (r *Runner) aggregate(ctx context.Context, tables []*domain.Table) (string, error) {
	merged, err := r.aggregator.Aggregate(tables)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		r.logger.ErrorContext(ctx, "No plates were processed; merged dataset not written",
			slog.String("stage", StageIDAggregate))
		return "", nil
	}
	if err != nil {
		return "", err
	}

	path := r.paths.MergedPath(r.now())
	if err := r.writer.WriteTable(path, merged); err != nil {
		return "", err
	}
	return path, nil
}

// ConvertLayouts converts every layout workbook's Key sheet into the plate's
// key CSV and returns how many were written. A missing layout folder or a
// bad workbook is logged and skipped.
func (r *Runner) ConvertLayouts(ctx context.Context) int {
	workbooks, err := r.discovery.FindLayoutWorkbooks(r.paths.LayoutInputDir)
	if err != nil {
		r.logger.InfoContext(ctx, "No layout workbooks to convert",
			slog.String("stage", StageIDLayouts),
			slog.String("directory", r.paths.LayoutInputDir),
			slog.String("error", err.Error()))
		return 0
	}

	converted := 0
	for _, wb := range workbooks {
		if ctx.Err() != nil {
			break
		}
		plate := files.PlateFromLayout(wb.Name)
		if err := r.converter.Convert(wb.Path, r.paths.KeyPath(plate)); err != nil {
			r.logger.WarnContext(ctx, "Skipping layout workbook",
				slog.String("stage", StageIDLayouts),
				slog.String("file", wb.Name),
				slog.String("plate", plate),
				slog.String("error", err.Error()))
			continue
		}
		converted++
	}

	r.logger.InfoContext(ctx, "Layout workbooks converted",
		slog.String("stage", StageIDLayouts),
		slog.Int("converted", converted),
		slog.Int("found", len(workbooks)))
	return converted
}

func skipReason(err error) string {
	if t, ok := apperrors.TypeOf(err); ok {
		return string(t)
	}
	if apperrors.Is(err, context.Canceled) || apperrors.Is(err, context.DeadlineExceeded) {
		return ReasonCanceled
	}
	return ReasonUnknown
}
