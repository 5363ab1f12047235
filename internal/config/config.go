// Package config defines run configuration structures and loading helpers.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains the full configuration for one curation run.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// APIURL is the base URL of the NOMAD v1 API.
	APIURL string `koanf:"api_url"`

	// Owner selects entry visibility: "visible" (logged-in view) or "public".
	Owner string `koanf:"owner"`

	// ProgramName filters entries by simulation program. Empty disables the filter.
	ProgramName string `koanf:"program_name"`

	// PageSize sets entries per fetch page.
	PageSize int `koanf:"page_size"`

	// TargetSizes lists the sample sizes to draw, in order.
	TargetSizes []int `koanf:"target_sizes"`

	// Seed drives all random draws. Any integer, including zero, is valid.
	Seed int64 `koanf:"seed"`

	// OutputDir receives the JSON and CSV manifests.
	OutputDir string `koanf:"output_dir"`

	// SampleWorkers bounds how many target sizes are sampled concurrently.
	SampleWorkers int `koanf:"sample_workers"`

	// FetchRetryInitialMS and FetchRetryMaxElapsedMS bound the per-page retry backoff.
	FetchRetryInitialMS    int `koanf:"fetch_retry_initial_ms"`
	FetchRetryMaxElapsedMS int `koanf:"fetch_retry_max_elapsed_ms"`
}

// New creates a Config with defaults matching the reference NOMAD setup.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		APIURL:                 "https://nomad-lab.eu/prod/v1/api/v1",
		Owner:                  "visible",
		ProgramName:            "ORCA",
		PageSize:               1000,
		TargetSizes:            []int{500, 2000},
		Seed:                   123456,
		OutputDir:              ".",
		SampleWorkers:          runtime.NumCPU(),
		FetchRetryInitialMS:    500,
		FetchRetryMaxElapsedMS: 30_000,
	}
}
