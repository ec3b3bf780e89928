package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// inputFlags select and parse the tabular source.
type inputFlags struct {
	delimiter string
	sheet     string
}

// documentFlags override the document section of the config.
type documentFlags struct {
	idColumn         string
	title            string
	columns          []string // name[:type[:display name]]
	imageWidth       float64
	imageHeight      float64
	tableImageWidth  float64
	tableImageHeight float64
}

// outputFlags control what is written and where.
type outputFlags struct {
	dir         string
	format      string
	style       string
	noSummary   bool
	summaryOnly bool
}

// logFlags configure structured logging on stderr.
type logFlags struct {
	level  string
	format string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common   commonFlags
	input    inputFlags
	document documentFlags
	output   outputFlags
	log      logFlags
	workers  int
	timeout  string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addInputFlags adds source parsing flags to a FlagSet.
func addInputFlags(fs *flag.FlagSet, f *inputFlags) {
	fs.StringVarP(&f.delimiter, "delimiter", "d", "", `CSV delimiter (one character or \t)`)
	fs.StringVar(&f.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
}

// addDocumentFlags adds document flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.idColumn, "id-column", "", "column whose value names each document")
	fs.StringVar(&f.title, "title", "", "heading of every document")
	fs.StringArrayVar(&f.columns, "column", nil, "column to render: name[:string|image[:display name]] (repeatable)")
	fs.Float64Var(&f.imageWidth, "image-width", 0, "row picture width in inches")
	fs.Float64Var(&f.imageHeight, "image-height", 0, "row picture height in inches")
	fs.Float64Var(&f.tableImageWidth, "table-image-width", 0, "summary picture width in inches")
	fs.Float64Var(&f.tableImageHeight, "table-image-height", 0, "summary picture height in inches")
}

// addOutputFlags adds output flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.dir, "output", "o", "", "output directory")
	fs.StringVarP(&f.format, "format", "f", "", "output format: docx, html, pdf")
	fs.StringVar(&f.style, "style", "", "CSS style name, file path or content (html/pdf)")
	fs.BoolVar(&f.noSummary, "no-summary", false, "skip the summary document")
	fs.BoolVar(&f.summaryOnly, "summary-only", false, "write only the summary document")
}

// addLogFlags adds logging flags to a FlagSet.
func addLogFlags(fs *flag.FlagSet, f *logFlags) {
	fs.StringVar(&f.level, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.format, "log-format", "", "log format: text, json")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	f := &convertFlags{}

	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF print timeout (e.g., 30s, 2m)")

	addCommonFlags(fs, &f.common)
	addInputFlags(fs, &f.input)
	addDocumentFlags(fs, &f.document)
	addOutputFlags(fs, &f.output)
	addLogFlags(fs, &f.log)

	fs.Usage = func() { printConvertUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

// previewFlags holds flags for the preview command.
type previewFlags struct {
	common commonFlags
	input  inputFlags
	limit  int
}

// parsePreviewFlags parses preview command flags and returns positional args.
func parsePreviewFlags(args []string) (*previewFlags, []string, error) {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	f := &previewFlags{}

	fs.IntVarP(&f.limit, "limit", "n", defaultPreviewLimit, "maximum rows to show (0 = all)")
	addCommonFlags(fs, &f.common)
	addInputFlags(fs, &f.input)

	fs.Usage = func() { printPreviewUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
