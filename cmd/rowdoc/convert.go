package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	rowdoc "github.com/alnah/go-rowdoc"
	"github.com/alnah/go-rowdoc/internal/config"
	"github.com/alnah/go-rowdoc/internal/logging"
	"github.com/alnah/go-rowdoc/internal/source"
)

// Sentinel errors for CLI operations.
var (
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidColumnSpec  = errors.New("invalid --column value")
	ErrInvalidArgs        = errors.New("invalid arguments")
)

// convertPlan is a fully resolved conversion run.
type convertPlan struct {
	cfg      *config.Config
	input    string
	records  []rowdoc.Record
	header   []string
	job      *renderJob
	opts     []rowdoc.Option
	logger   *slog.Logger
	poolSize int
}

// runConvertCmd parses flags, resolves the plan and renders it with a
// renderer pool.
func runConvertCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}

	warnUnknownEnvVars(env.Stderr)

	ctx = logging.WithRunID(ctx, logging.NewRunID())
	plan, err := prepareConvert(ctx, flags, positional, env)
	if err != nil {
		return err
	}

	pool := rowdoc.NewRendererPool(plan.poolSize, plan.opts...)
	defer func() {
		if err := pool.Close(); err != nil {
			plan.logger.Warn("closing renderers", "error", err)
		}
	}()

	return runConvert(ctx, plan, flags, &poolAdapter{pool: pool}, env)
}

// prepareConvert loads configuration, merges overrides, reads the input
// and checks it against the configured columns.
func prepareConvert(ctx context.Context, flags *convertFlags, positional []string, env *Environment) (*convertPlan, error) {
	if err := validateWorkers(flags.workers); err != nil {
		return nil, err
	}

	cfg, err := loadConfig(flags.common.config, loadEnvConfig())
	if err != nil {
		return nil, err
	}

	// Merge CLI flags into config (CLI wins)
	if err := mergeFlags(flags, cfg); err != nil {
		return nil, err
	}
	if len(positional) > 0 {
		cfg.Input.Path = positional[0]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The renderer adds the run id from ctx itself.
	base := logging.Setup(resolveLogLevel(cfg.Log.Level, flags.common), cfg.Log.Format, env.Stderr)
	logger := logging.FromContext(ctx, base)

	if cfg.Input.Path == "" {
		return nil, ErrNoInput
	}

	cols, err := buildColumns(cfg.Columns)
	if err != nil {
		return nil, err
	}
	settings := buildSettings(cfg.Document)
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	delim, err := source.ParseDelimiter(cfg.Input.Delimiter)
	if err != nil {
		return nil, err
	}
	tbl, err := source.Read(cfg.Input.Path, source.Options{Delimiter: delim, Sheet: cfg.Input.Sheet})
	if err != nil {
		return nil, err
	}
	if err := tbl.CheckColumns(columnNames(settings.IDColumn, cols)...); err != nil {
		return nil, &columnError{err: err, header: tbl.Header}
	}

	records := tbl.Records()
	poolSize := min(rowdoc.ResolvePoolSize(cfg.Workers), max(len(records), 1))
	if cfg.Output.SummaryOnly {
		poolSize = 1
	}
	warnDuplicateIDs(logger, records, settings.IDColumn)
	logger.Debug("input loaded", "path", cfg.Input.Path, "sheet", tbl.Sheet, "records", len(records), "columns", len(cols))

	if err := os.MkdirAll(cfg.Output.Dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateOutputDir, err)
	}

	opts, err := buildRendererOptions(cfg, base)
	if err != nil {
		return nil, err
	}

	return &convertPlan{
		cfg:     cfg,
		input:   cfg.Input.Path,
		records: records,
		header:  tbl.Header,
		job: &renderJob{
			columns:  cols,
			settings: settings,
			outDir:   cfg.Output.Dir,
		},
		opts:     opts,
		logger:   logger,
		poolSize: poolSize,
	}, nil
}

// runConvert renders the row documents and the summary of a resolved plan.
func runConvert(ctx context.Context, plan *convertPlan, flags *convertFlags, pool Pool, env *Environment) error {
	start := env.Now()

	var results []RenderResult
	if !plan.cfg.Output.SummaryOnly {
		results = renderBatch(ctx, pool, plan.records, plan.job)
	}
	if !plan.cfg.Output.NoSummary && ctx.Err() == nil {
		results = append(results, renderSummary(ctx, pool, plan.records, plan.job))
	}

	summary := printResults(results, flags.common.quiet, flags.common.verbose, env)
	plan.logger.Info("run finished",
		"input", plan.input,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration", env.Now().Sub(start).Round(time.Millisecond))

	if err := ctx.Err(); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed: %w", summary.Failed, firstError(results))
	}
	return nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) error {
	// Input flags
	if flags.input.delimiter != "" {
		cfg.Input.Delimiter = flags.input.delimiter
	}
	if flags.input.sheet != "" {
		cfg.Input.Sheet = flags.input.sheet
	}

	// Document flags
	if flags.document.idColumn != "" {
		cfg.Document.IDColumn = flags.document.idColumn
	}
	if flags.document.title != "" {
		cfg.Document.Title = flags.document.title
	}
	if flags.document.imageWidth > 0 {
		cfg.Document.ImageWidth = flags.document.imageWidth
	}
	if flags.document.imageHeight > 0 {
		cfg.Document.ImageHeight = flags.document.imageHeight
	}
	if flags.document.tableImageWidth > 0 {
		cfg.Document.TableImageWidth = flags.document.tableImageWidth
	}
	if flags.document.tableImageHeight > 0 {
		cfg.Document.TableImageHeight = flags.document.tableImageHeight
	}
	if len(flags.document.columns) > 0 {
		// Flag columns replace the configured list as a whole.
		cols := make([]config.ColumnConfig, 0, len(flags.document.columns))
		for _, spec := range flags.document.columns {
			col, err := parseColumnSpec(spec)
			if err != nil {
				return err
			}
			cols = append(cols, col)
		}
		cfg.Columns = cols
	}

	// Output flags
	if flags.output.dir != "" {
		cfg.Output.Dir = flags.output.dir
	}
	if flags.output.format != "" {
		cfg.Output.Format = flags.output.format
	}
	if flags.output.style != "" {
		cfg.Style = flags.output.style
	}
	if flags.output.noSummary {
		cfg.Output.NoSummary = true
	}
	if flags.output.summaryOnly {
		cfg.Output.SummaryOnly = true
	}

	// Log flags
	if flags.log.level != "" {
		cfg.Log.Level = flags.log.level
	}
	if flags.log.format != "" {
		cfg.Log.Format = flags.log.format
	}

	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	if flags.timeout != "" {
		cfg.Timeout = flags.timeout
	}
	return nil
}

// parseColumnSpec parses name[:type[:display name]].
// The display name may itself contain colons.
func parseColumnSpec(spec string) (config.ColumnConfig, error) {
	parts := strings.SplitN(spec, ":", 3)
	col := config.ColumnConfig{Name: strings.TrimSpace(parts[0])}
	if col.Name == "" {
		return col, fmt.Errorf("%w: %q (missing column name)", ErrInvalidColumnSpec, spec)
	}
	if len(parts) > 1 {
		col.Type = strings.TrimSpace(parts[1])
		if _, err := rowdoc.ParseColumnType(col.Type); err != nil {
			return col, fmt.Errorf("%w: %q: %w", ErrInvalidColumnSpec, spec, err)
		}
	}
	if len(parts) > 2 {
		col.DisplayName = parts[2]
	}
	return col, nil
}

// buildColumns converts configured columns to library columns.
func buildColumns(cfgCols []config.ColumnConfig) ([]rowdoc.Column, error) {
	if len(cfgCols) == 0 {
		return nil, rowdoc.ErrNoColumns
	}
	cols := make([]rowdoc.Column, len(cfgCols))
	for i, c := range cfgCols {
		typ, err := rowdoc.ParseColumnType(c.Type)
		if err != nil {
			return nil, err
		}
		cols[i] = rowdoc.Column{Name: c.Name, DisplayName: c.DisplayName, Type: typ}
	}
	return cols, nil
}

// buildSettings converts the document section to library settings.
// Zero sizes fall back to the library defaults.
func buildSettings(doc config.DocumentConfig) rowdoc.Settings {
	s := rowdoc.DefaultSettings(doc.IDColumn, doc.Title)
	if doc.ImageWidth > 0 {
		s.ImageWidth = doc.ImageWidth
	}
	if doc.ImageHeight > 0 {
		s.ImageHeight = doc.ImageHeight
	}
	if doc.TableImageWidth > 0 {
		s.TableImageWidth = doc.TableImageWidth
	}
	if doc.TableImageHeight > 0 {
		s.TableImageHeight = doc.TableImageHeight
	}
	return s
}

// buildRendererOptions translates config into renderer options.
func buildRendererOptions(cfg *config.Config, logger *slog.Logger) ([]rowdoc.Option, error) {
	format, err := rowdoc.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	opts := []rowdoc.Option{rowdoc.WithFormat(format), rowdoc.WithLogger(logger)}
	if cfg.Style != "" {
		opts = append(opts, rowdoc.WithStyle(cfg.Style))
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		opts = append(opts, rowdoc.WithTimeout(timeout))
	}
	return opts, nil
}

// columnNames lists the id column followed by every rendered column.
func columnNames(idColumn string, cols []rowdoc.Column) []string {
	names := make([]string, 0, len(cols)+1)
	names = append(names, idColumn)
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names
}

// warnDuplicateIDs logs identifiers shared by several records; later rows
// overwrite the documents of earlier ones.
func warnDuplicateIDs(logger *slog.Logger, recs []rowdoc.Record, idColumn string) {
	seen := make(map[string]int, len(recs))
	for _, rec := range recs {
		if id, ok := rec.Lookup(idColumn); ok && id != "" {
			seen[id]++
		}
	}
	for _, rec := range recs {
		id, _ := rec.Lookup(idColumn)
		if n := seen[id]; n > 1 {
			logger.Warn("duplicate identifier, documents will be overwritten", "record", id, "count", n)
			delete(seen, id)
		}
	}
}

// resolveLogLevel lets --verbose and --quiet adjust the configured level.
func resolveLogLevel(level string, common commonFlags) string {
	switch {
	case common.verbose:
		return "debug"
	case common.quiet:
		return "error"
	}
	return level
}

// validateWorkers checks that the worker count is within valid range.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > config.MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, config.MaxWorkers)
	}
	return nil
}

// columnError carries the input header so the CLI can list valid names.
type columnError struct {
	err    error
	header []string
}

func (e *columnError) Error() string { return e.err.Error() }
func (e *columnError) Unwrap() error { return e.err }
