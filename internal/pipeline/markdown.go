package pipeline

import (
	"regexp"
	"strings"
)

var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Blank lines would split a value into several paragraphs
	blankLines = regexp.MustCompile(`\n[ \t]*\n+`)
)

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// EscapeText backslash-escapes every ASCII punctuation character so the text
// renders literally. CommonMark allows escaping any of them.
func EscapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 && isASCIIPunct(byte(r)) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isASCIIPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') ||
		(c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

// escapeBlock prepares multi-line text for a paragraph: line endings are
// normalized, blank lines collapsed and leading indentation dropped so a
// value can never become a code block.
func escapeBlock(s string) string {
	s = normalizeLineEndings(s)
	s = blankLines.ReplaceAllString(s, "\n")
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = EscapeText(strings.TrimLeft(line, " \t"))
	}
	return strings.Join(lines, "\n")
}

// escapeInline prepares text for a single-line context such as a table cell.
func escapeInline(s string) string {
	s = normalizeLineEndings(s)
	s = strings.Join(strings.Fields(s), " ")
	return EscapeText(s)
}

// MarkdownWriter accumulates a Markdown document. All text is escaped.
type MarkdownWriter struct {
	b strings.Builder
}

// NewMarkdownWriter returns an empty writer.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// Heading writes an ATX heading; level is clamped to 1-6.
func (w *MarkdownWriter) Heading(text string, level int) {
	level = min(max(level, 1), 6)
	w.b.WriteString(strings.Repeat("#", level))
	if t := escapeInline(text); t != "" {
		w.b.WriteString(" " + t)
	}
	w.b.WriteString("\n\n")
}

// Paragraph writes a paragraph. Single line breaks are kept.
func (w *MarkdownWriter) Paragraph(text string) {
	w.b.WriteString(escapeBlock(text))
	w.b.WriteString("\n\n")
}

// Image writes an image paragraph pointing at uri.
func (w *MarkdownWriter) Image(alt, uri string) {
	w.b.WriteString(ImageMarkdown(alt, uri))
	w.b.WriteString("\n\n")
}

// ImageMarkdown returns inline image syntax. The uri must not contain
// spaces or parentheses; data URIs with base64 payloads never do.
func ImageMarkdown(alt, uri string) string {
	return "![" + escapeInline(alt) + "](" + uri + ")"
}

// Table writes a GFM table. Cells are raw Markdown produced by CellText or
// ImageMarkdown; rows shorter than the header are padded.
func (w *MarkdownWriter) Table(header []string, rows [][]string) {
	if len(header) == 0 {
		return
	}
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = escapeInline(h)
	}
	w.tableRow(cells)

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	w.tableRow(sep)

	for _, row := range rows {
		padded := make([]string, len(header))
		copy(padded, row)
		w.tableRow(padded)
	}
	w.b.WriteString("\n")
}

func (w *MarkdownWriter) tableRow(cells []string) {
	w.b.WriteString("|")
	for _, c := range cells {
		w.b.WriteString(" " + c + " |")
	}
	w.b.WriteString("\n")
}

// CellText returns escaped single-line text for a table cell.
func CellText(s string) string {
	return escapeInline(s)
}

// String returns the Markdown document.
func (w *MarkdownWriter) String() string {
	return w.b.String()
}
