package rowdoc

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ColumnType selects how a field's raw value is rendered.
type ColumnType string

// Column type constants.
const (
	ColumnString ColumnType = "string"
	ColumnImage  ColumnType = "image"
)

// ParseColumnType converts a config value to a ColumnType (case-insensitive).
// An empty value means ColumnString.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ColumnString):
		return ColumnString, nil
	case string(ColumnImage):
		return ColumnImage, nil
	default:
		return "", fmt.Errorf("%w: %q (must be string or image)", ErrInvalidColumnType, s)
	}
}

// String implements fmt.Stringer.
func (t ColumnType) String() string {
	return string(t)
}

// Column describes one field of a Record and how to render it.
type Column struct {
	Name        string     // key into Record
	DisplayName string     // human label; empty means Name
	Type        ColumnType // rendering branch
}

// Label returns the display name, falling back to the field name.
func (c Column) Label() string {
	if c.DisplayName == "" {
		return c.Name
	}
	return c.DisplayName
}

// Validate checks that the column has a name and a known type.
func (c Column) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidColumn)
	}
	switch c.Type {
	case ColumnString, ColumnImage:
		return nil
	default:
		return fmt.Errorf("%w: %q for column %q", ErrInvalidColumnType, c.Type, c.Name)
	}
}

// validateColumns checks every column and requires at least one.
func validateColumns(cols []Column) error {
	if len(cols) == 0 {
		return ErrNoColumns
	}
	for _, c := range cols {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Record is one input row: an ordered mapping from field name to raw value.
// The zero value is an empty record. Records are never mutated by renderers.
type Record struct {
	names  []string
	values map[string]string
}

// NewRecord builds a Record from a header and a row of values.
// Missing trailing values become empty strings; extra values are ignored.
// When the header repeats a name, the first occurrence wins.
func NewRecord(header, values []string) Record {
	r := Record{
		names:  make([]string, 0, len(header)),
		values: make(map[string]string, len(header)),
	}
	for i, name := range header {
		if _, dup := r.values[name]; dup {
			continue
		}
		v := ""
		if i < len(values) {
			v = values[i]
		}
		r.names = append(r.names, name)
		r.values[name] = v
	}
	return r
}

// RecordFromMap builds a Record from a map, ordered by the given names.
// Names absent from m are skipped.
func RecordFromMap(names []string, m map[string]string) Record {
	r := Record{
		names:  make([]string, 0, len(names)),
		values: make(map[string]string, len(names)),
	}
	for _, name := range names {
		v, ok := m[name]
		if !ok {
			continue
		}
		if _, dup := r.values[name]; dup {
			continue
		}
		r.names = append(r.names, name)
		r.values[name] = v
	}
	return r
}

// Lookup returns the raw value of a field.
func (r Record) Lookup(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Field returns the raw value of a field or ErrMissingField.
func (r Record) Field(name string) (string, error) {
	v, ok := r.values[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingField, name)
	}
	return v, nil
}

// Names returns the field names in source order.
func (r Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.names)
}

// Image size defaults in inches.
const (
	DefaultImageWidth       = 4.0
	DefaultImageHeight      = 3.0
	DefaultTableImageWidth  = 2.0
	DefaultTableImageHeight = 2.0

	// MaxImageDimension caps any configured picture side.
	MaxImageDimension = 22.0
)

// SummaryBaseName is the file name (without extension) of the table document.
const SummaryBaseName = "summary"

// Settings holds document-level settings shared by both renderers.
// Sizes are in inches. Row documents use ImageWidth x ImageHeight; the
// summary table uses TableImageWidth x TableImageHeight.
type Settings struct {
	IDColumn         string
	Title            string
	ImageWidth       float64
	ImageHeight      float64
	TableImageWidth  float64
	TableImageHeight float64
}

// DefaultSettings returns settings with default image sizes.
func DefaultSettings(idColumn, title string) Settings {
	return Settings{
		IDColumn:         idColumn,
		Title:            title,
		ImageWidth:       DefaultImageWidth,
		ImageHeight:      DefaultImageHeight,
		TableImageWidth:  DefaultTableImageWidth,
		TableImageHeight: DefaultTableImageHeight,
	}
}

// Validate checks that the id column is set and all sizes are positive.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.IDColumn) == "" {
		return fmt.Errorf("%w: id column is required", ErrInvalidSettings)
	}
	sizes := []struct {
		name  string
		value float64
	}{
		{"image width", s.ImageWidth},
		{"image height", s.ImageHeight},
		{"table image width", s.TableImageWidth},
		{"table image height", s.TableImageHeight},
	}
	for _, sz := range sizes {
		if sz.value <= 0 || sz.value > MaxImageDimension {
			return fmt.Errorf("%w: %s %.2f (must be > 0 and <= %.0f)", ErrInvalidSettings, sz.name, sz.value, MaxImageDimension)
		}
	}
	return nil
}

// Size is a picture size in inches.
type Size struct {
	Width  float64
	Height float64
}

func (s Settings) rowImageSize() Size {
	return Size{Width: s.ImageWidth, Height: s.ImageHeight}
}

func (s Settings) tableImageSize() Size {
	return Size{Width: s.TableImageWidth, Height: s.TableImageHeight}
}

// Format identifies the output document format.
type Format string

// Output format constants.
const (
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat converts a config or flag value to a Format (case-insensitive).
// An empty value means FormatDOCX.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatDOCX, nil
	case FormatDOCX, FormatHTML, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (must be docx, html, or pdf)", ErrInvalidFormat, s)
	}
}

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string {
	return string(f)
}

// Option configures a Renderer.
type Option func(*Renderer)

// rendererConfig holds internal configuration for Renderer.
type rendererConfig struct {
	format        Format
	timeout       time.Duration
	styleInput    string
	resolvedStyle string
	logger        *slog.Logger
}

// defaultTimeout bounds PDF printing when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithFormat selects the output document format.
// Panics on an unknown format (programmer error).
func WithFormat(f Format) Option {
	if _, err := ParseFormat(string(f)); err != nil {
		panic("rowdoc: " + err.Error())
	}
	return func(r *Renderer) {
		r.cfg.format = f
	}
}

// WithTimeout sets the PDF generation timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("rowdoc: WithTimeout duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.timeout = d
	}
}

// WithStyle sets the CSS used by the html and pdf formats.
// Accepts a built-in style name ("default", "compact"), a file path, or raw CSS.
func WithStyle(style string) Option {
	return func(r *Renderer) {
		r.cfg.styleInput = style
	}
}

// WithLogger sets the logger used for recovered field errors.
// A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.cfg.logger = l
		}
	}
}
