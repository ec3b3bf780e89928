package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-rowdoc/internal/fileutil"
	"github.com/alnah/go-rowdoc/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength      = 4096
	MaxTitleLength     = 200
	MaxColumnLength    = 256 // header names such as "block/payment_phone.text1"
	MaxDelimiterLength = 4   // one UTF-8 character or `\t`
	MaxColumns         = 512
	MaxImageInches     = 22
	MaxWorkers         = 64
)

// Defaults mirror the library defaults for a row document.
const (
	DefaultOutputDir        = "results"
	DefaultFormat           = "docx"
	DefaultImageWidth       = 4.0
	DefaultImageHeight      = 3.0
	DefaultTableImageWidth  = 2.0
	DefaultTableImageHeight = 2.0
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// Config holds all configuration for a conversion run.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Document DocumentConfig `yaml:"document"`
	Columns  []ColumnConfig `yaml:"columns"`
	Log      LogConfig      `yaml:"log"`
	Style    string         `yaml:"style"`   // html/pdf stylesheet: name, path or CSS
	Workers  int            `yaml:"workers"` // 0 = auto
	Timeout  string         `yaml:"timeout"` // pdf print timeout, e.g. "30s"
}

// InputConfig defines the tabular source.
type InputConfig struct {
	Path      string `yaml:"path"`      // .csv or .xlsx
	Delimiter string `yaml:"delimiter"` // CSV only, empty = tab for .tsv, comma otherwise
	Sheet     string `yaml:"sheet"`     // XLSX only, empty = first sheet
}

// OutputConfig defines where and how documents are written.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Format      string `yaml:"format"` // "docx", "html", "pdf"
	NoSummary   bool   `yaml:"noSummary"`
	SummaryOnly bool   `yaml:"summaryOnly"`
}

// DocumentConfig defines document-level settings. Sizes are in inches.
type DocumentConfig struct {
	IDColumn         string  `yaml:"idColumn"`
	Title            string  `yaml:"title"`
	ImageWidth       float64 `yaml:"imageWidth"`
	ImageHeight      float64 `yaml:"imageHeight"`
	TableImageWidth  float64 `yaml:"tableImageWidth"`
	TableImageHeight float64 `yaml:"tableImageHeight"`
}

// ColumnConfig describes one rendered column.
type ColumnConfig struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"displayName"` // empty = name
	Type        string `yaml:"type"`        // "string" (default) or "image"
}

// LogConfig defines the log handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Validate checks field lengths and enumerated values.
// Called automatically by LoadConfig, but available for callers
// who construct Config manually or merge overrides into it.
func (c *Config) Validate() error {
	if err := validateFieldLength("input.path", c.Input.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("input.delimiter", c.Input.Delimiter, MaxDelimiterLength); err != nil {
		return err
	}
	if err := validateFieldLength("input.sheet", c.Input.Sheet, MaxColumnLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.dir", c.Output.Dir, MaxPathLength); err != nil {
		return err
	}
	switch strings.ToLower(c.Output.Format) {
	case "", "docx", "html", "pdf":
	default:
		return fmt.Errorf("%w: output.format %q (must be docx, html, or pdf)", ErrInvalidValue, c.Output.Format)
	}
	if c.Output.NoSummary && c.Output.SummaryOnly {
		return fmt.Errorf("%w: output.noSummary and output.summaryOnly are mutually exclusive", ErrInvalidValue)
	}

	if err := validateFieldLength("document.idColumn", c.Document.IDColumn, MaxColumnLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.title", c.Document.Title, MaxTitleLength); err != nil {
		return err
	}
	sizes := []struct {
		name  string
		value float64
	}{
		{"document.imageWidth", c.Document.ImageWidth},
		{"document.imageHeight", c.Document.ImageHeight},
		{"document.tableImageWidth", c.Document.TableImageWidth},
		{"document.tableImageHeight", c.Document.TableImageHeight},
	}
	for _, s := range sizes {
		if s.value < 0 || s.value > MaxImageInches {
			return fmt.Errorf("%w: %s must be between 0 and %d inches, got %.2f", ErrInvalidValue, s.name, MaxImageInches, s.value)
		}
	}

	if len(c.Columns) > MaxColumns {
		return fmt.Errorf("%w: %d columns (max %d)", ErrInvalidValue, len(c.Columns), MaxColumns)
	}
	for i, col := range c.Columns {
		if col.Name == "" {
			return fmt.Errorf("%w: columns[%d].name is required", ErrInvalidValue, i)
		}
		if err := validateFieldLength(fmt.Sprintf("columns[%d].name", i), col.Name, MaxColumnLength); err != nil {
			return err
		}
		if err := validateFieldLength(fmt.Sprintf("columns[%d].displayName", i), col.DisplayName, MaxColumnLength); err != nil {
			return err
		}
		switch strings.ToLower(col.Type) {
		case "", "string", "image":
		default:
			return fmt.Errorf("%w: columns[%d].type %q (must be string or image)", ErrInvalidValue, i, col.Type)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidValue, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (must be text or json)", ErrInvalidValue, c.Log.Format)
	}

	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Workers)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}

	return nil
}

// TimeoutDuration parses Timeout. Zero means the library default.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout %q: %v", ErrInvalidValue, c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidValue, d)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
// LoadConfig decodes over these values, so omitted keys keep them.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Dir: DefaultOutputDir, Format: DefaultFormat},
		Document: DocumentConfig{
			ImageWidth:       DefaultImageWidth,
			ImageHeight:      DefaultImageHeight,
			TableImageWidth:  DefaultTableImageWidth,
			TableImageHeight: DefaultTableImageHeight,
		},
		Log: LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths returns the candidate files for a config name, in lookup order:
// ./name.yaml, ./name.yml, then the same names under the user config dir.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-rowdoc", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
