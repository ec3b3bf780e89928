package rowdoc

import (
	"fmt"
	"strconv"
	"strings"
)

// Orphan/widow defaults for printed paragraphs.
const (
	defaultOrphans = 2
	defaultWidows  = 2
)

// buildPrintCSS keeps headings with the content below them and stops table
// rows (and their pictures) from splitting across pages.
func buildPrintCSS() string {
	return fmt.Sprintf(`
/* Print: keep the title with the first field */
h1 {
  break-after: avoid;
  page-break-after: avoid;
}
/* Print: never split a table row */
tr, img {
  break-inside: avoid;
  page-break-inside: avoid;
}
p {
  orphans: %d;
  widows: %d;
}
`, defaultOrphans, defaultWidows)
}

// buildPictureCSS sizes paragraph pictures and table-cell pictures.
// A nil size emits no rule for that kind of picture.
func buildPictureCSS(paragraph, cell *Size) string {
	var buf strings.Builder
	if paragraph != nil {
		buf.WriteString(pictureRule("body > p > img", *paragraph))
	}
	if cell != nil {
		buf.WriteString(pictureRule("td img", *cell))
	}
	return buf.String()
}

func pictureRule(selector string, s Size) string {
	return fmt.Sprintf(`
%s {
  width: %sin;
  height: %sin;
  max-width: none;
}
`, selector, formatInches(s.Width), formatInches(s.Height))
}

// formatInches prints a size with no trailing zeros ("4", "2.5").
func formatInches(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
