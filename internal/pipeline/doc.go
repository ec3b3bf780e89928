// Package pipeline implements the Markdown-to-HTML stage of the html and pdf
// output formats.
//
// Documents are first written as Markdown (MarkdownWriter), converted to a
// standalone HTML5 page by goldmark (GoldmarkConverter), then styled
// (CSSInjection). Field values are always escaped, so record content can
// never produce markup of its own, and goldmark runs without WithUnsafe.
//
// PDF printing is handled by the root rowdoc package using headless Chrome
// (go-rod).
package pipeline
