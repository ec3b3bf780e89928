package rowdoc

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/common/units"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/stypes"

	"github.com/alnah/go-rowdoc/internal/fileutil"
)

// documentBuilder assembles one output document. Both renderers drive it;
// each output format provides an implementation.
type documentBuilder interface {
	AddHeading(text string)
	AddParagraph(text string)
	AddPicture(img *Image, size Size) error
	AddTable(header []string) (tableBuilder, error)
	Render(ctx context.Context) ([]byte, error)
}

// tableBuilder appends body rows to a grid table.
type tableBuilder interface {
	AddRow() rowBuilder
}

// rowBuilder fills the cells of one table row by column index.
type rowBuilder interface {
	SetText(i int, text string) error
	AddPicture(i int, img *Image, size Size) error
}

// Compile-time interface checks
var (
	_ documentBuilder = (*docxBuilder)(nil)
	_ tableBuilder    = (*docxTable)(nil)
	_ rowBuilder      = (*docxRow)(nil)
)

// Text width of the godocx template page (Letter, 1.25in side margins),
// in twentieths of a point.
const docxTextWidth = 8640

// docxBuilder writes Office Open XML through godocx.
type docxBuilder struct {
	doc *docx.RootDoc
}

func newDOCXBuilder() (*docxBuilder, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentBuild, err)
	}
	return &docxBuilder{doc: doc}, nil
}

// AddHeading adds the document title (Title style).
func (b *docxBuilder) AddHeading(text string) {
	// Only levels above 9 are rejected.
	_, _ = b.doc.AddHeading(text, 0)
}

func (b *docxBuilder) AddParagraph(text string) {
	addLines(b.doc.AddEmptyParagraph(), text)
}

func (b *docxBuilder) AddPicture(img *Image, size Size) error {
	if err := checkPicture(img, size); err != nil {
		return err
	}
	return addPicture(b.doc.AddEmptyParagraph(), img, size)
}

// AddTable adds a Table Grid table whose first row holds header.
func (b *docxBuilder) AddTable(header []string) (tableBuilder, error) {
	if len(header) == 0 {
		return nil, ErrNoColumns
	}

	widths := make([]uint64, len(header))
	for i := range widths {
		widths[i] = docxTextWidth / uint64(len(header))
	}
	t := b.doc.AddTable()
	t.Style("TableGrid")
	t.Width(0, stypes.TableWidthAuto)
	t.Grid(widths...)

	table := &docxTable{t: t, cols: len(header), width: int(widths[0])}
	row := table.addRow()
	for i, text := range header {
		addLines(row.cells[i], text)
	}
	return table, nil
}

func (b *docxBuilder) Render(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// godocx registers the png extension once per picture.
	b.doc.ContentType.Default = uniqueDefaults(b.doc.ContentType.Default)

	var buf bytes.Buffer
	if err := b.doc.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// uniqueDefaults keeps the first content type registered per extension.
func uniqueDefaults(defs []docx.Default) []docx.Default {
	seen := make(map[string]bool, len(defs))
	out := defs[:0]
	for _, d := range defs {
		ext := strings.ToLower(d.Extension)
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, d)
	}
	return out
}

// addLines appends text to p; newlines become line breaks.
func addLines(p *docx.Paragraph, text string) {
	if text == "" {
		return
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		run := p.AddText(line)
		if i < len(lines)-1 {
			run.AddBreak(nil)
		}
	}
}

// addPicture stages img as a temporary PNG file, which godocx reads
// immediately, and appends it to p.
func addPicture(p *docx.Paragraph, img *Image, size Size) error {
	path, cleanup, err := fileutil.WriteTempFile(img.PNG, "png")
	if err != nil {
		return fmt.Errorf("%w: staging picture: %w", ErrDocumentBuild, err)
	}
	defer cleanup()

	if _, err := p.AddPicture(path, units.Inch(size.Width), units.Inch(size.Height)); err != nil {
		return fmt.Errorf("%w: %w", ErrDocumentBuild, err)
	}
	return nil
}

type docxTable struct {
	t     *docx.Table
	cols  int
	width int
}

func (t *docxTable) AddRow() rowBuilder {
	return t.addRow()
}

// addRow appends a row of cols cells, each holding one empty paragraph.
func (t *docxTable) addRow() *docxRow {
	row := t.t.AddRow()
	r := &docxRow{cells: make([]*docx.Paragraph, t.cols)}
	for i := range r.cells {
		r.cells[i] = row.AddCell().Width(t.width, stypes.TableWidthDxa).AddEmptyPara()
	}
	return r
}

type docxRow struct {
	cells []*docx.Paragraph
}

func (r *docxRow) cell(i int) (*docx.Paragraph, error) {
	if i < 0 || i >= len(r.cells) {
		return nil, fmt.Errorf("%w: %d of %d", errCellIndex, i, len(r.cells))
	}
	return r.cells[i], nil
}

func (r *docxRow) SetText(i int, text string) error {
	p, err := r.cell(i)
	if err != nil {
		return err
	}
	addLines(p, text)
	return nil
}

func (r *docxRow) AddPicture(i int, img *Image, size Size) error {
	p, err := r.cell(i)
	if err != nil {
		return err
	}
	if err := checkPicture(img, size); err != nil {
		return err
	}
	return addPicture(p, img, size)
}
