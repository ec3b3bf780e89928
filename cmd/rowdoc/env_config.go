package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-rowdoc/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // ROWDOC_CONFIG: config file name or path
	Input      string        // ROWDOC_INPUT: tabular input file
	Delimiter  string        // ROWDOC_DELIMITER: CSV delimiter
	Sheet      string        // ROWDOC_SHEET: XLSX sheet name
	OutputDir  string        // ROWDOC_OUTPUT_DIR: output directory
	Format     string        // ROWDOC_FORMAT: docx, html, pdf
	IDColumn   string        // ROWDOC_ID_COLUMN: identifier column
	Title      string        // ROWDOC_TITLE: document heading
	Style      string        // ROWDOC_STYLE: CSS style name or path
	Timeout    time.Duration // ROWDOC_TIMEOUT: pdf print timeout
	Workers    int           // ROWDOC_WORKERS: parallel workers
	LogLevel   string        // ROWDOC_LOG_LEVEL: debug, info, warn, error
	LogFormat  string        // ROWDOC_LOG_FORMAT: text, json
}

// knownEnvVars lists valid ROWDOC_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"ROWDOC_CONFIG":     true,
	"ROWDOC_INPUT":      true,
	"ROWDOC_DELIMITER":  true,
	"ROWDOC_SHEET":      true,
	"ROWDOC_OUTPUT_DIR": true,
	"ROWDOC_FORMAT":     true,
	"ROWDOC_ID_COLUMN":  true,
	"ROWDOC_TITLE":      true,
	"ROWDOC_STYLE":      true,
	"ROWDOC_TIMEOUT":    true,
	"ROWDOC_WORKERS":    true,
	"ROWDOC_LOG_LEVEL":  true,
	"ROWDOC_LOG_FORMAT": true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable timeout and worker values are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("ROWDOC_CONFIG"),
		Input:      os.Getenv("ROWDOC_INPUT"),
		Delimiter:  os.Getenv("ROWDOC_DELIMITER"),
		Sheet:      os.Getenv("ROWDOC_SHEET"),
		OutputDir:  os.Getenv("ROWDOC_OUTPUT_DIR"),
		Format:     os.Getenv("ROWDOC_FORMAT"),
		IDColumn:   os.Getenv("ROWDOC_ID_COLUMN"),
		Title:      os.Getenv("ROWDOC_TITLE"),
		Style:      os.Getenv("ROWDOC_STYLE"),
		LogLevel:   os.Getenv("ROWDOC_LOG_LEVEL"),
		LogFormat:  os.Getenv("ROWDOC_LOG_FORMAT"),
	}

	if timeout := os.Getenv("ROWDOC_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("ROWDOC_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized ROWDOC_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "ROWDOC_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overlays set environment values on cfg.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Input != "" {
		cfg.Input.Path = env.Input
	}
	if env.Delimiter != "" {
		cfg.Input.Delimiter = env.Delimiter
	}
	if env.Sheet != "" {
		cfg.Input.Sheet = env.Sheet
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Format != "" {
		cfg.Output.Format = env.Format
	}
	if env.IDColumn != "" {
		cfg.Document.IDColumn = env.IDColumn
	}
	if env.Title != "" {
		cfg.Document.Title = env.Title
	}
	if env.Style != "" {
		cfg.Style = env.Style
	}
	if env.Timeout > 0 {
		cfg.Timeout = env.Timeout.String()
	}
	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
}

// loadConfig resolves the config file (flag, then ROWDOC_CONFIG) and
// overlays environment values. A run without a config file starts from
// config.DefaultConfig.
func loadConfig(flagConfig string, env *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}
