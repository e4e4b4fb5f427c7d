package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "luminexcli/internal/errors"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "LUMINEX"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	QC        QCConfig        `yaml:"qc" envconfig:"QC"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR" validate:"required"`
}

// QCConfig holds the bead-count thresholds and background reference.
type QCConfig struct {
	WarningThreshold float64 `yaml:"warning_threshold" envconfig:"WARNING_THRESHOLD" validate:"gt=0"`
	FailThreshold    float64 `yaml:"fail_threshold" envconfig:"FAIL_THRESHOLD" validate:"gte=0"`
	HeatmapMax       float64 `yaml:"heatmap_max" envconfig:"HEATMAP_MAX" validate:"gte=0"`
	ReferenceColumn  string  `yaml:"reference_column" envconfig:"REFERENCE_COLUMN" validate:"required"`
}

// PipelineConfig controls how plates are scheduled and which side outputs
// are produced.
type PipelineConfig struct {
	Workers        int  `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
	Heatmaps       bool `yaml:"heatmaps" envconfig:"HEATMAPS"`
	ConvertLayouts bool `yaml:"convert_layouts" envconfig:"CONVERT_LAYOUTS"`
	BOMPrefix      bool `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "console",
		},
		Paths: PathsConfig{
			BaseDir: ".",
		},
		QC: QCConfig{
			WarningThreshold: 50,
			FailThreshold:    40,
			HeatmapMax:       200,
			ReferenceColumn:  "BSA",
		},
		Pipeline: PipelineConfig{
			Workers:        1,
			Heatmaps:       true,
			ConvertLayouts: true,
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence, and validates it. An empty
// configFile falls back to LUMINEX_CONFIG_FILE.
func Load(configFile string) (*Config, error) {
	cfg, err := Read(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read layers the same sources as Load without validating. Callers that
// apply further overrides, such as command-line flags, call Validate once
// they are done.
func Read(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG_FILE")
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Unset variables leave file and default values alone.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg. Keys absent from the file keep
// their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints and the threshold ordering. Any failure
// is an INVALID_CONFIGURATION error.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return apperrors.NewConfigError(describeValidation(err), err)
	}

	if _, err := c.QC.Thresholds(); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return apperrors.NewConfigError("logging file_path is required when output is file or both", nil)
	}

	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "config validation failed"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return "config validation failed: " + strings.Join(parts, ", ")
}
