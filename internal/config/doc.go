// Package config provides centralized configuration management for the
// Luminex extraction pipeline. It handles loading configuration from multiple
// sources, validation, and the layout of every file the pipeline reads or
// writes.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file (LUMINEX_CONFIG_FILE or an explicit path)
//	3. Default values (lowest priority)
//
// Command-line flags are applied by the commands after Load returns.
//
// # Environment Variables
//
// All environment variables follow the pattern LUMINEX_<SECTION>_<FIELD>:
//
//	LUMINEX_PATHS_BASE_DIR=/data/study
//	LUMINEX_QC_WARNING_THRESHOLD=50
//	LUMINEX_QC_FAIL_THRESHOLD=40
//	LUMINEX_QC_REFERENCE_COLUMN=BSA
//	LUMINEX_PIPELINE_WORKERS=4
//	LUMINEX_TELEMETRY_METRIC_EXPORTER=prometheus
//
// # QC Thresholds
//
// Thresholds is an immutable value built once from the QC section and passed
// to both the flagger and the heatmap renderer. A fail threshold that is not
// strictly below the warning threshold is rejected with an
// INVALID_CONFIGURATION error.
//
// # Path Management
//
// Paths derives every input and output location from a single base
// directory:
//
//	paths, _ := config.NewPaths(cfg.Paths.BaseDir)
//	keyFile := paths.KeyPath("plate1")
//	merged := paths.MergedPath(time.Now())
package config
