package main

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	flag "github.com/spf13/pflag"

	rowdoc "github.com/alnah/go-rowdoc"
	"github.com/alnah/go-rowdoc/internal/source"
)

// Preview limits.
const (
	defaultPreviewLimit = 20
	maxCellRunes        = 40
)

// runPreviewCmd prints the input records as a terminal table. Configured
// image columns show the decoded picture size instead of the payload.
func runPreviewCmd(args []string, env *Environment) error {
	flags, positional, err := parsePreviewFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	if flags.limit < 0 {
		return fmt.Errorf("%w: --limit must be >= 0, got %d", ErrInvalidArgs, flags.limit)
	}

	cfg, err := loadConfig(flags.common.config, loadEnvConfig())
	if err != nil {
		return err
	}
	if flags.input.delimiter != "" {
		cfg.Input.Delimiter = flags.input.delimiter
	}
	if flags.input.sheet != "" {
		cfg.Input.Sheet = flags.input.sheet
	}
	if len(positional) > 0 {
		cfg.Input.Path = positional[0]
	}
	if cfg.Input.Path == "" {
		return ErrNoInput
	}

	delim, err := source.ParseDelimiter(cfg.Input.Delimiter)
	if err != nil {
		return err
	}
	tbl, err := source.Read(cfg.Input.Path, source.Options{Delimiter: delim, Sheet: cfg.Input.Sheet})
	if err != nil {
		return err
	}

	// Without configured columns every header field is shown as text.
	cols, err := buildColumns(cfg.Columns)
	if errors.Is(err, rowdoc.ErrNoColumns) {
		cols = make([]rowdoc.Column, len(tbl.Header))
		for i, h := range tbl.Header {
			cols[i] = rowdoc.Column{Name: h, Type: rowdoc.ColumnString}
		}
	} else if err != nil {
		return err
	}
	names := columnNames(cfg.Document.IDColumn, cols)
	if cfg.Document.IDColumn == "" {
		names = names[1:]
	}
	if err := tbl.CheckColumns(names...); err != nil {
		return &columnError{err: err, header: tbl.Header}
	}

	renderPreview(env, tbl.Records(), cols, flags.limit, flags.common.quiet)
	return nil
}

// renderPreview writes at most limit records (0 = all) to env.Stdout.
func renderPreview(env *Environment, recs []rowdoc.Record, cols []rowdoc.Column, limit int, quiet bool) {
	shown := recs
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	t := table.NewWriter()
	t.SetOutputMirror(env.Stdout)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(cols)+1)
	header = append(header, "#")
	for _, c := range cols {
		header = append(header, c.Label())
	}
	t.AppendHeader(header)

	for i, rec := range shown {
		row := make(table.Row, 0, len(cols)+1)
		row = append(row, i+1)
		for _, c := range cols {
			v, _ := rec.Lookup(c.Name)
			row = append(row, previewCell(c, v))
		}
		t.AppendRow(row)
	}
	t.Render()

	if !quiet && len(shown) < len(recs) {
		fmt.Fprintf(env.Stdout, "%d of %d records shown (use --limit 0 for all)\n", len(shown), len(recs))
	}
}

// previewCell summarizes one value for the terminal.
func previewCell(col rowdoc.Column, value string) string {
	if col.Type == rowdoc.ColumnImage {
		img, err := rowdoc.DecodeImage(value)
		if err != nil {
			var imgErr *rowdoc.ImageError
			if errors.As(err, &imgErr) {
				return "[invalid image: " + string(imgErr.Reason) + "]"
			}
			return "[invalid image]"
		}
		return fmt.Sprintf("[image %dx%d]", img.Width, img.Height)
	}
	return truncate(strings.Join(strings.Fields(value), " "), maxCellRunes)
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
