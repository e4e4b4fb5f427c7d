package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the pipeline
type Paths struct {
	BaseDir string
	DataDir string
	LogsDir string

	// Inputs
	RawDir         string
	LayoutInputDir string

	// Intermediate and per-plate outputs
	BeadCountDir string
	MedianMFIDir string
	KeysDir      string
	CleanDir     string

	// QC outputs
	QCDir        string
	HeatmapDir   string
	FlaggedWells string
	MetricsFile  string
}

// NewPaths lays out the data tree under base. base is made absolute so logs
// report where files actually went.
func NewPaths(base string) (*Paths, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %q: %w", base, err)
	}

	// Directory structure:
	// <base>/
	//   ├── data/
	//   │   ├── raw/                       (instrument exports)
	//   │   ├── extraction/bead_count/
	//   │   ├── extraction/median_mfi/
	//   │   ├── plate_layout/input_layouts/
	//   │   ├── plate_layout/keys/
	//   │   ├── qc/bead_count_heatmaps/
	//   │   └── clean/                     (processed plates)
	//   └── logs/
	dataDir := filepath.Join(abs, "data")
	qcDir := filepath.Join(dataDir, "qc")

	return &Paths{
		BaseDir: abs,
		DataDir: dataDir,
		LogsDir: filepath.Join(abs, "logs"),

		RawDir:         filepath.Join(dataDir, "raw"),
		LayoutInputDir: filepath.Join(dataDir, "plate_layout", "input_layouts"),

		BeadCountDir: filepath.Join(dataDir, "extraction", "bead_count"),
		MedianMFIDir: filepath.Join(dataDir, "extraction", "median_mfi"),
		KeysDir:      filepath.Join(dataDir, "plate_layout", "keys"),
		CleanDir:     filepath.Join(dataDir, "clean"),

		QCDir:        qcDir,
		HeatmapDir:   filepath.Join(qcDir, "bead_count_heatmaps"),
		FlaggedWells: filepath.Join(qcDir, "flagged_wells.csv"),
		MetricsFile:  filepath.Join(qcDir, "metrics.prom"),
	}, nil
}

// EnsureDirectories creates all output directories if they don't exist.
// Input directories are left alone; a missing raw directory is reported by
// discovery instead.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.LogsDir,
		p.BeadCountDir,
		p.MedianMFIDir,
		p.KeysDir,
		p.CleanDir,
		p.QCDir,
		p.HeatmapDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// BeadCountPath returns the extracted Count section for an export stem.
func (p *Paths) BeadCountPath(stem string) string {
	return filepath.Join(p.BeadCountDir, stem+"_bead_count.csv")
}

// MedianMFIPath returns the extracted Median section for an export stem.
func (p *Paths) MedianMFIPath(stem string) string {
	return filepath.Join(p.MedianMFIDir, stem+"_median_mfi.csv")
}

// KeyPath returns the key table location for a plate (e.g., plate1_key.csv)
func (p *Paths) KeyPath(plate string) string {
	return filepath.Join(p.KeysDir, plate+"_key.csv")
}

// ProcessedPath returns the cleaned table for a plate (e.g., plate1_processed.csv)
func (p *Paths) ProcessedPath(plate string) string {
	return filepath.Join(p.CleanDir, plate+"_processed.csv")
}

// HeatmapPath returns the bead-count heatmap image for a plate.
func (p *Paths) HeatmapPath(plate string) string {
	return filepath.Join(p.HeatmapDir, plate+"_heatmap.png")
}

// MergedPath returns the aggregated output named after the base directory
// and the run date, e.g. study_merged_2024-01-15.csv.
func (p *Paths) MergedPath(date time.Time) string {
	filename := fmt.Sprintf("%s_merged_%s.csv", filepath.Base(p.BaseDir), date.Format("2006-01-02"))
	return filepath.Join(p.DataDir, filename)
}

// GetLogPath returns the path for a log file under the logs directory
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution logs the resolved layout for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("inputs",
			slog.String("base", p.BaseDir),
			slog.String("raw", p.RawDir),
			slog.String("layouts", p.LayoutInputDir),
			slog.Bool("raw_exists", FileExists(p.RawDir)),
		),
		slog.Group("outputs",
			slog.String("bead_count", p.BeadCountDir),
			slog.String("median_mfi", p.MedianMFIDir),
			slog.String("keys", p.KeysDir),
			slog.String("clean", p.CleanDir),
			slog.String("heatmaps", p.HeatmapDir),
			slog.String("flagged_wells", p.FlaggedWells),
		))
}
