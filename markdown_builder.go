package rowdoc

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-rowdoc/internal/pipeline"
)

// errCellIndex reports a cell index outside the table.
var errCellIndex = errors.New("cell index out of range")

// Compile-time interface checks
var (
	_ documentBuilder = (*markdownBuilder)(nil)
	_ tableBuilder    = (*markdownTable)(nil)
	_ rowBuilder      = (*markdownRow)(nil)
)

// markdownBuilder collects a document as Markdown and renders it to HTML
// (and optionally PDF) at the end. Pictures become data URIs; their size is
// applied by a generated stylesheet, one rule for paragraph pictures and
// one for table pictures.
type markdownBuilder struct {
	r *Renderer

	title  string
	blocks []func(w *pipeline.MarkdownWriter)

	paragraphPicture *Size
	cellPicture      *Size
}

func newMarkdownBuilder(r *Renderer) *markdownBuilder {
	return &markdownBuilder{r: r}
}

// AddHeading adds a level-1 heading. The first heading also names the page.
func (b *markdownBuilder) AddHeading(text string) {
	if b.title == "" {
		b.title = text
	}
	b.blocks = append(b.blocks, func(w *pipeline.MarkdownWriter) {
		w.Heading(text, 1)
	})
}

func (b *markdownBuilder) AddParagraph(text string) {
	b.blocks = append(b.blocks, func(w *pipeline.MarkdownWriter) {
		w.Paragraph(text)
	})
}

func (b *markdownBuilder) AddPicture(img *Image, size Size) error {
	if err := checkPicture(img, size); err != nil {
		return err
	}
	b.paragraphPicture = &size
	uri := img.DataURI()
	b.blocks = append(b.blocks, func(w *pipeline.MarkdownWriter) {
		w.Image("", uri)
	})
	return nil
}

func (b *markdownBuilder) AddTable(header []string) (tableBuilder, error) {
	if len(header) == 0 {
		return nil, ErrNoColumns
	}
	t := &markdownTable{b: b, header: header}
	b.blocks = append(b.blocks, func(w *pipeline.MarkdownWriter) {
		w.Table(t.header, t.rows)
	})
	return t, nil
}

// Markdown returns the document source.
func (b *markdownBuilder) Markdown() string {
	w := pipeline.NewMarkdownWriter()
	for _, write := range b.blocks {
		write(w)
	}
	return w.String()
}

// Render converts the Markdown to a styled HTML page; for FormatPDF the page
// is then printed by the renderer's PDF converter.
func (b *markdownBuilder) Render(ctx context.Context) ([]byte, error) {
	htmlContent, err := b.r.htmlConverter.ToHTML(ctx, b.title, b.Markdown())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}

	css := b.r.cfg.resolvedStyle + buildPrintCSS() + buildPictureCSS(b.paragraphPicture, b.cellPicture)
	htmlContent = b.r.cssInjector.InjectCSS(ctx, htmlContent, css)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if b.r.cfg.format != FormatPDF {
		return []byte(htmlContent), nil
	}
	return b.r.pdfConverter.ToPDF(ctx, htmlContent)
}

// checkPicture rejects empty pictures and non-positive sizes.
func checkPicture(img *Image, size Size) error {
	if img == nil || len(img.PNG) == 0 {
		return fmt.Errorf("%w: picture data is empty", ErrDocumentBuild)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("%w: picture size must be positive", ErrDocumentBuild)
	}
	return nil
}

type markdownTable struct {
	b      *markdownBuilder
	header []string
	rows   [][]string
}

func (t *markdownTable) AddRow() rowBuilder {
	t.rows = append(t.rows, make([]string, len(t.header)))
	return &markdownRow{t: t, idx: len(t.rows) - 1}
}

type markdownRow struct {
	t   *markdownTable
	idx int
}

func (r *markdownRow) cell(i int) (*string, error) {
	row := r.t.rows[r.idx]
	if i < 0 || i >= len(row) {
		return nil, fmt.Errorf("%w: %d of %d", errCellIndex, i, len(row))
	}
	return &row[i], nil
}

func (r *markdownRow) SetText(i int, text string) error {
	c, err := r.cell(i)
	if err != nil {
		return err
	}
	*c = pipeline.CellText(text)
	return nil
}

func (r *markdownRow) AddPicture(i int, img *Image, size Size) error {
	c, err := r.cell(i)
	if err != nil {
		return err
	}
	if err := checkPicture(img, size); err != nil {
		return err
	}
	r.t.b.cellPicture = &size
	*c = pipeline.ImageMarkdown("", img.DataURI())
	return nil
}
