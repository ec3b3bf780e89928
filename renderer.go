package rowdoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alnah/go-rowdoc/internal/assets"
	"github.com/alnah/go-rowdoc/internal/fileutil"
	"github.com/alnah/go-rowdoc/internal/logging"
	"github.com/alnah/go-rowdoc/internal/pipeline"
)

// outputPerm is the mode of written documents.
const outputPerm = 0o644

// Renderer turns records into documents of one output format.
//
// A Renderer is safe for concurrent use: every call builds its own document
// and decodes its own images. PDF renderers share one headless browser,
// started on first use; call Close to stop it.
type Renderer struct {
	cfg           rendererConfig
	htmlConverter pipeline.HTMLConverter
	cssInjector   pipeline.CSSInjector
	pdfConverter  pdfConverter
}

// NewRenderer creates a Renderer. The default format is docx.
// Returns an error if the style option cannot be resolved.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		cfg: rendererConfig{
			format:  FormatDOCX,
			timeout: defaultTimeout,
			logger:  slog.Default(),
		},
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.cfg.format == FormatDOCX {
		return r, nil
	}

	css, err := resolveStyle(r.cfg.styleInput)
	if err != nil {
		return nil, err
	}
	r.cfg.resolvedStyle = css
	r.htmlConverter = pipeline.NewGoldmarkConverter()
	r.cssInjector = &pipeline.CSSInjection{}
	if r.cfg.format == FormatPDF {
		r.pdfConverter = newRodConverter(r.cfg.timeout)
	}
	return r, nil
}

// Format returns the output format.
func (r *Renderer) Format() Format {
	return r.cfg.format
}

// Close releases browser resources held by a pdf renderer.
func (r *Renderer) Close() error {
	if r.pdfConverter != nil {
		return r.pdfConverter.Close()
	}
	return nil
}

// resolveStyle returns CSS for a style name, file path or literal CSS.
// An empty style selects the embedded default.
func resolveStyle(style string) (string, error) {
	switch {
	case style == "":
		style = assets.DefaultStyleName
	case fileutil.IsCSS(style):
		return style, nil
	case fileutil.IsFilePath(style):
		data, err := os.ReadFile(style) // #nosec G304 -- style path is user-provided
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStyleNotFound, err)
		}
		return string(data), nil
	}

	css, err := assets.LoadStyle(style)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrStyleNotFound, style, err)
	}
	return css, nil
}

func (r *Renderer) newBuilder() (documentBuilder, error) {
	if r.cfg.format == FormatDOCX {
		b, err := newDOCXBuilder()
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return newMarkdownBuilder(r), nil
}

// RenderRow writes one document for rec into outDir and returns its path.
//
// The document holds s.Title as its heading, then one entry per column in
// order: "<display name>: <value>" for string columns and a picture of
// s.ImageWidth x s.ImageHeight inches for image columns. An image value
// that cannot be decoded or embedded is logged and written as text instead.
// The file is named after the record's identifier and overwrites any
// existing document of that name.
func (r *Renderer) RenderRow(ctx context.Context, rec Record, cols []Column, s Settings, outDir string) (string, error) {
	if err := r.validate(ctx, cols, s, outDir); err != nil {
		return "", err
	}

	id, err := rec.Field(s.IDColumn)
	if err != nil {
		return "", err
	}
	if err := fileutil.ValidateBaseName(id); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}

	logger := logging.WithFields(ctx, r.cfg.logger, "record", id)
	b, err := r.newBuilder()
	if err != nil {
		return "", err
	}
	b.AddHeading(s.Title)

	for _, col := range cols {
		value, err := rec.Field(col.Name)
		if err != nil {
			return "", err
		}
		text := col.Label() + ": " + value

		if col.Type == ColumnImage {
			if err := addImage(b, value, s.rowImageSize()); err != nil {
				logFallback(ctx, logger, col, err)
			} else {
				continue
			}
		}
		b.AddParagraph(text)
	}

	return r.save(ctx, b, outDir, id)
}

// RenderTable writes the summary document for recs into outDir and returns
// its path.
//
// The document holds s.Title as its heading and one grid table: a header
// row of display names, then one row per record in order. String cells hold
// the bare value; image cells hold a picture of s.TableImageWidth x
// s.TableImageHeight inches, or the raw value when it cannot be rendered.
func (r *Renderer) RenderTable(ctx context.Context, recs []Record, cols []Column, s Settings, outDir string) (string, error) {
	if err := r.validate(ctx, cols, s, outDir); err != nil {
		return "", err
	}

	b, err := r.newBuilder()
	if err != nil {
		return "", err
	}
	b.AddHeading(s.Title)

	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.Label()
	}
	table, err := b.AddTable(header)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDocumentBuild, err)
	}

	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		id, _ := rec.Lookup(s.IDColumn)
		logger := logging.WithFields(ctx, r.cfg.logger, "record", id)
		row := table.AddRow()

		for i, col := range cols {
			value, err := rec.Field(col.Name)
			if err != nil {
				return "", err
			}

			if col.Type == ColumnImage {
				img, decErr := DecodeImage(value)
				if decErr == nil {
					decErr = row.AddPicture(i, img, s.tableImageSize())
				}
				if decErr == nil {
					continue
				}
				logFallback(ctx, logger, col, decErr)
			}
			if err := row.SetText(i, value); err != nil {
				return "", fmt.Errorf("%w: %w", ErrDocumentBuild, err)
			}
		}
	}

	return r.save(ctx, b, outDir, SummaryBaseName)
}

func (r *Renderer) validate(ctx context.Context, cols []Column, s Settings, outDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if outDir == "" {
		return ErrEmptyOutputDir
	}
	if err := validateColumns(cols); err != nil {
		return err
	}
	return s.Validate()
}

// addImage decodes value and appends it as a picture.
func addImage(b documentBuilder, value string, size Size) error {
	img, err := DecodeImage(value)
	if err != nil {
		return err
	}
	return b.AddPicture(img, size)
}

// logFallback records an image value rendered as text.
func logFallback(ctx context.Context, logger *slog.Logger, col Column, err error) {
	reason := "embed"
	var imgErr *ImageError
	if errors.As(err, &imgErr) {
		reason = string(imgErr.Reason)
	}
	logger.WarnContext(ctx, "image value rendered as text",
		"column", col.Name,
		"reason", reason,
		"error", err,
	)
}

// save renders the document and writes it to outDir/<base>.<ext>.
func (r *Renderer) save(ctx context.Context, b documentBuilder, outDir, base string) (string, error) {
	data, err := b.Render(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrDocumentBuild, err)
	}

	path := filepath.Join(outDir, base+"."+r.cfg.format.Extension())
	if err := fileutil.WriteFileAtomic(path, data, outputPerm); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteDocument, err)
	}
	return path, nil
}
