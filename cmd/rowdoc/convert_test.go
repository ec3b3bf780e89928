package main

// Notes:
// - runConvertCmd: we run real docx conversions from temporary CSV files;
//   docx needs no browser. pdf conversion is covered by the library's
//   integration tests.
// - runConvert: summary toggles and failure aggregation use a fake pool.
// - mergeFlags/parseColumnSpec: we test precedence and the column syntax.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	rowdoc "github.com/alnah/go-rowdoc"
	"github.com/alnah/go-rowdoc/internal/config"
	"github.com/alnah/go-rowdoc/internal/source"
)

// signatureArgs returns convert arguments for signatureCSV.
func signatureArgs(input, outDir string, extra ...string) []string {
	args := []string{
		input,
		"--id-column", "num",
		"--title", "Subject Signature",
		"--column", "phone:string:Phone",
		"--column", "sign:image:Signature",
		"-o", outDir,
	}
	return append(args, extra...)
}

// ---------------------------------------------------------------------------
// TestRunConvertCmd - End-to-end docx conversion
// ---------------------------------------------------------------------------

func TestRunConvertCmd(t *testing.T) {
	t.Parallel()

	input := writeInput(t, "payment.csv", signatureCSV(t))
	outDir := filepath.Join(t.TempDir(), "results")
	env, stdout, stderr := testEnv(t)

	err := runConvertCmd(context.Background(), signatureArgs(input, outDir), env)
	if err != nil {
		t.Fatalf("runConvertCmd() error = %v\nstderr: %s", err, stderr.String())
	}

	for _, name := range []string{"7.docx", "8.docx", "9.docx", "summary.docx"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	for name, want := range map[string]int{"7.docx": 1, "8.docx": 0, "9.docx": 1} {
		if got := mediaParts(t, filepath.Join(outDir, name)); got != want {
			t.Errorf("%s media parts = %d, want %d", name, got, want)
		}
	}
	if !strings.Contains(stdout.String(), "4 succeeded, 0 failed") {
		t.Errorf("stdout = %q, want summary line", stdout.String())
	}
	logs := stderr.String()
	if !strings.Contains(logs, "image value rendered as text") || !strings.Contains(logs, "record=8") {
		t.Errorf("stderr should log the fallback of record 8:\n%s", logs)
	}
	if !strings.Contains(logs, "run_id=") {
		t.Errorf("log entries should carry a run id:\n%s", logs)
	}
}

func TestRunConvertCmd_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extra     []string
		wantFiles []string
		noFiles   []string
	}{
		{
			name:      "no summary",
			extra:     []string{"--no-summary"},
			wantFiles: []string{"7.docx", "9.docx"},
			noFiles:   []string{"summary.docx"},
		},
		{
			name:      "summary only",
			extra:     []string{"--summary-only"},
			wantFiles: []string{"summary.docx"},
			noFiles:   []string{"7.docx"},
		},
		{
			name:      "html format",
			extra:     []string{"-f", "html", "--style", "compact"},
			wantFiles: []string{"7.html", "summary.html"},
			noFiles:   []string{"7.docx"},
		},
		{
			name:      "workers and sizes",
			extra:     []string{"-w", "2", "--image-width", "3", "--table-image-height", "1"},
			wantFiles: []string{"7.docx", "8.docx", "summary.docx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := writeInput(t, "payment.csv", signatureCSV(t))
			outDir := t.TempDir()
			env, _, stderr := testEnv(t)

			if err := runConvertCmd(context.Background(), signatureArgs(input, outDir, tt.extra...), env); err != nil {
				t.Fatalf("runConvertCmd() error = %v\nstderr: %s", err, stderr.String())
			}
			for _, name := range tt.wantFiles {
				if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
					t.Errorf("missing %s", name)
				}
			}
			for _, name := range tt.noFiles {
				if _, err := os.Stat(filepath.Join(outDir, name)); err == nil {
					t.Errorf("%s should not be written", name)
				}
			}
		})
	}
}

func TestRunConvertCmd_ConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sig := pngBase64(t, 4, 3)
	input := writeInput(t, "payment.tsv", "num\tphone\tsign\n7\t050\t"+sig+"\n9\t052\tnot-base64!!\n")
	outDir := filepath.Join(dir, "out")
	cfgPath := filepath.Join(dir, "rowdoc.yaml")
	cfgYAML := "input:\n  path: " + input + "\n" +
		"output:\n  dir: " + outDir + "\n" +
		"document:\n  idColumn: num\n  title: Subject Signature\n" +
		"columns:\n" +
		"  - name: phone\n    displayName: Phone\n" +
		"  - name: sign\n    displayName: Signature\n    type: image\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	env, _, stderr := testEnv(t)

	if err := runConvertCmd(context.Background(), []string{"-c", cfgPath, "-q"}, env); err != nil {
		t.Fatalf("runConvertCmd() error = %v\nstderr: %s", err, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(outDir, "9.docx")); err != nil {
		t.Errorf("tab-separated input should be read: %v", err)
	}
	if strings.Contains(stderr.String(), "WARN") {
		t.Errorf("--quiet should suppress warnings:\n%s", stderr.String())
	}
}

func TestRunConvertCmd_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    func(t *testing.T) []string
		wantErr error
	}{
		{
			name:    "no input",
			args:    func(t *testing.T) []string { return []string{"--id-column", "num", "--column", "phone"} },
			wantErr: ErrNoInput,
		},
		{
			name: "missing input file",
			args: func(t *testing.T) []string {
				return signatureArgs(filepath.Join(t.TempDir(), "nope.csv"), t.TempDir())
			},
			wantErr: os.ErrNotExist,
		},
		{
			name: "unsupported extension",
			args: func(t *testing.T) []string {
				return signatureArgs(writeInput(t, "data.json", "{}"), t.TempDir())
			},
			wantErr: source.ErrUnsupportedInput,
		},
		{
			name: "unknown column",
			args: func(t *testing.T) []string {
				in := writeInput(t, "payment.csv", signatureCSV(t))
				return signatureArgs(in, t.TempDir(), "--column", "email")
			},
			wantErr: source.ErrUnknownColumn,
		},
		{
			name: "no columns",
			args: func(t *testing.T) []string {
				in := writeInput(t, "payment.csv", signatureCSV(t))
				return []string{in, "--id-column", "num", "-o", t.TempDir()}
			},
			wantErr: rowdoc.ErrNoColumns,
		},
		{
			name: "no id column",
			args: func(t *testing.T) []string {
				in := writeInput(t, "payment.csv", signatureCSV(t))
				return []string{in, "--column", "phone", "-o", t.TempDir()}
			},
			wantErr: rowdoc.ErrInvalidSettings,
		},
		{
			name: "bad column spec",
			args: func(t *testing.T) []string {
				in := writeInput(t, "payment.csv", signatureCSV(t))
				return signatureArgs(in, t.TempDir(), "--column", "sign:video")
			},
			wantErr: ErrInvalidColumnSpec,
		},
		{
			name: "negative workers",
			args: func(t *testing.T) []string {
				in := writeInput(t, "payment.csv", signatureCSV(t))
				return signatureArgs(in, t.TempDir(), "-w", "-1")
			},
			wantErr: ErrInvalidWorkerCount,
		},
		{
			name: "invalid format",
			args: func(t *testing.T) []string {
				in := writeInput(t, "payment.csv", signatureCSV(t))
				return signatureArgs(in, t.TempDir(), "-f", "odt")
			},
			wantErr: config.ErrInvalidValue,
		},
		{
			name: "unknown flag",
			args: func(t *testing.T) []string {
				return []string{"--no-such-flag"}
			},
			wantErr: ErrInvalidArgs,
		},
		{
			name: "invalid identifier",
			args: func(t *testing.T) []string {
				in := writeInput(t, "payment.csv", "num,phone\n../7,050\n")
				return []string{in, "--id-column", "num", "--column", "phone", "-o", t.TempDir()}
			},
			wantErr: rowdoc.ErrInvalidIdentifier,
		},
		{
			name: "output dir is a file",
			args: func(t *testing.T) []string {
				in := writeInput(t, "payment.csv", signatureCSV(t))
				blocker := writeInput(t, "blocker", "x")
				return signatureArgs(in, filepath.Join(blocker, "out"))
			},
			wantErr: ErrCreateOutputDir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, _ := testEnv(t)
			err := runConvertCmd(context.Background(), tt.args(t), env)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("runConvertCmd() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunConvertCmd_UnknownColumnHint(t *testing.T) {
	t.Parallel()

	in := writeInput(t, "payment.csv", signatureCSV(t))
	env, _, _ := testEnv(t)

	err := runConvertCmd(context.Background(), signatureArgs(in, t.TempDir(), "--column", "email"), env)
	if err == nil {
		t.Fatal("expected error")
	}
	hint := hintFor(err)
	if !strings.Contains(hint, "input columns: num, phone, sign") {
		t.Errorf("hintFor() = %q, want header listing", hint)
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert - Summary toggles with a fake pool
// ---------------------------------------------------------------------------

func TestRunConvert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		output      config.OutputConfig
		renderer    *fakeRenderer
		wantRows    int
		wantTables  int
		wantErr     error
		wantMessage string
	}{
		{
			name:       "rows and summary",
			renderer:   &fakeRenderer{},
			wantRows:   3,
			wantTables: 1,
		},
		{
			name:       "no summary",
			output:     config.OutputConfig{NoSummary: true},
			renderer:   &fakeRenderer{},
			wantRows:   3,
			wantTables: 0,
		},
		{
			name:       "summary only",
			output:     config.OutputConfig{SummaryOnly: true},
			renderer:   &fakeRenderer{},
			wantRows:   0,
			wantTables: 1,
		},
		{
			name:        "row failure is reported after the batch",
			renderer:    &fakeRenderer{failIDs: map[string]error{"2": rowdoc.ErrWriteDocument}},
			wantRows:    3,
			wantTables:  1,
			wantErr:     rowdoc.ErrWriteDocument,
			wantMessage: "1 document(s) failed",
		},
		{
			name:        "summary failure",
			renderer:    &fakeRenderer{tableErr: rowdoc.ErrMissingField},
			wantRows:    3,
			wantTables:  1,
			wantErr:     rowdoc.ErrMissingField,
			wantMessage: "1 document(s) failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, _ := testEnv(t)
			plan := &convertPlan{
				cfg:     &config.Config{Output: tt.output},
				input:   "payment.csv",
				records: signatureRecords(3),
				job:     signatureJob("out"),
				logger:  slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
			}
			pool := &fakePool{renderer: tt.renderer, size: 2}

			err := runConvert(context.Background(), plan, &convertFlags{}, pool, env)

			if tt.wantErr == nil && err != nil {
				t.Fatalf("runConvert() error = %v", err)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("runConvert() error = %v, want %v", err, tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantMessage) {
					t.Errorf("error = %q, want %q", err.Error(), tt.wantMessage)
				}
			}
			if got := tt.renderer.rowCount(); got != tt.wantRows {
				t.Errorf("rows rendered = %d, want %d", got, tt.wantRows)
			}
			if tt.renderer.tables != tt.wantTables {
				t.Errorf("tables rendered = %d, want %d", tt.renderer.tables, tt.wantTables)
			}
		})
	}
}

func TestRunConvert_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env, _, _ := testEnv(t)
	r := &fakeRenderer{}
	plan := &convertPlan{
		cfg:     &config.Config{},
		records: signatureRecords(2),
		job:     signatureJob("out"),
		logger:  slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}

	err := runConvert(ctx, plan, &convertFlags{}, &fakePool{renderer: r, size: 1}, env)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("runConvert() error = %v, want %v", err, context.Canceled)
	}
	if r.tables != 0 {
		t.Error("summary should not be rendered after cancellation")
	}
}

// ---------------------------------------------------------------------------
// TestMergeFlags - CLI overrides
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Document.IDColumn = "id"
	cfg.Columns = []config.ColumnConfig{{Name: "old"}}

	flags := &convertFlags{
		input:    inputFlags{delimiter: ";", sheet: "Payments"},
		document: documentFlags{idColumn: "num", title: "T", columns: []string{"phone", "sign:image:Signature"}, imageWidth: 5},
		output:   outputFlags{dir: "docs", format: "html", style: "compact", noSummary: true},
		log:      logFlags{level: "debug", format: "json"},
		workers:  3,
		timeout:  "1m",
	}
	if err := mergeFlags(flags, cfg); err != nil {
		t.Fatalf("mergeFlags() error = %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"delimiter", cfg.Input.Delimiter, ";"},
		{"sheet", cfg.Input.Sheet, "Payments"},
		{"idColumn", cfg.Document.IDColumn, "num"},
		{"title", cfg.Document.Title, "T"},
		{"imageWidth", cfg.Document.ImageWidth, 5.0},
		{"imageHeight kept", cfg.Document.ImageHeight, config.DefaultImageHeight},
		{"columns", len(cfg.Columns), 2},
		{"column type", cfg.Columns[1].Type, "image"},
		{"column display", cfg.Columns[1].DisplayName, "Signature"},
		{"dir", cfg.Output.Dir, "docs"},
		{"format", cfg.Output.Format, "html"},
		{"style", cfg.Style, "compact"},
		{"noSummary", cfg.Output.NoSummary, true},
		{"log level", cfg.Log.Level, "debug"},
		{"log format", cfg.Log.Format, "json"},
		{"workers", cfg.Workers, 3},
		{"timeout", cfg.Timeout, "1m"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestMergeFlags_EmptyFlagsKeepConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Columns = []config.ColumnConfig{{Name: "phone"}}
	before := *cfg

	if err := mergeFlags(&convertFlags{}, cfg); err != nil {
		t.Fatalf("mergeFlags() error = %v", err)
	}
	if cfg.Output != before.Output || cfg.Document != before.Document || len(cfg.Columns) != 1 {
		t.Errorf("empty flags changed config: %+v", cfg)
	}
}

// ---------------------------------------------------------------------------
// TestParseColumnSpec - name[:type[:display name]]
// ---------------------------------------------------------------------------

func TestParseColumnSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec    string
		want    config.ColumnConfig
		wantErr error
	}{
		{spec: "phone", want: config.ColumnConfig{Name: "phone"}},
		{spec: "sign:image", want: config.ColumnConfig{Name: "sign", Type: "image"}},
		{spec: "sign:IMAGE:Signature", want: config.ColumnConfig{Name: "sign", Type: "IMAGE", DisplayName: "Signature"}},
		{spec: "t:string:Time: start", want: config.ColumnConfig{Name: "t", Type: "string", DisplayName: "Time: start"}},
		{spec: "phone::Phone", want: config.ColumnConfig{Name: "phone", DisplayName: "Phone"}},
		{spec: "", wantErr: ErrInvalidColumnSpec},
		{spec: ":image", wantErr: ErrInvalidColumnSpec},
		{spec: "sign:video", wantErr: rowdoc.ErrInvalidColumnType},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()

			got, err := parseColumnSpec(tt.spec)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("parseColumnSpec(%q) error = %v, want %v", tt.spec, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseColumnSpec(%q) error = %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("parseColumnSpec(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestBuildSettings - Document section to library settings
// ---------------------------------------------------------------------------

func TestBuildSettings(t *testing.T) {
	t.Parallel()

	got := buildSettings(config.DocumentConfig{IDColumn: "num", Title: "T", ImageWidth: 5})
	want := rowdoc.Settings{
		IDColumn:         "num",
		Title:            "T",
		ImageWidth:       5,
		ImageHeight:      rowdoc.DefaultImageHeight,
		TableImageWidth:  rowdoc.DefaultTableImageWidth,
		TableImageHeight: rowdoc.DefaultTableImageHeight,
	}
	if got != want {
		t.Errorf("buildSettings() = %+v, want %+v", got, want)
	}
}

func TestBuildColumns(t *testing.T) {
	t.Parallel()

	cols, err := buildColumns([]config.ColumnConfig{
		{Name: "phone", DisplayName: "Phone"},
		{Name: "sign", Type: "image"},
	})
	if err != nil {
		t.Fatalf("buildColumns() error = %v", err)
	}
	if cols[0].Type != rowdoc.ColumnString || cols[1].Type != rowdoc.ColumnImage {
		t.Errorf("types = %v, %v", cols[0].Type, cols[1].Type)
	}
	if cols[1].Label() != "sign" {
		t.Errorf("Label() = %q, want sign", cols[1].Label())
	}

	if _, err := buildColumns(nil); !errors.Is(err, rowdoc.ErrNoColumns) {
		t.Errorf("buildColumns(nil) error = %v, want %v", err, rowdoc.ErrNoColumns)
	}
}

func TestBuildRendererOptions(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Output.Format = "pdf"
	cfg.Style = "compact"
	cfg.Timeout = "45s"

	opts, err := buildRendererOptions(cfg, slog.Default())
	if err != nil {
		t.Fatalf("buildRendererOptions() error = %v", err)
	}
	// format + logger + style + timeout
	if len(opts) != 4 {
		t.Errorf("len(opts) = %d, want 4", len(opts))
	}

	cfg.Output.Format = "odt"
	if _, err := buildRendererOptions(cfg, nil); !errors.Is(err, rowdoc.ErrInvalidFormat) {
		t.Errorf("buildRendererOptions() error = %v, want %v", err, rowdoc.ErrInvalidFormat)
	}
}

// ---------------------------------------------------------------------------
// TestValidateWorkers - Worker count bounds
// ---------------------------------------------------------------------------

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n       int
		wantErr bool
	}{
		{0, false},
		{1, false},
		{config.MaxWorkers, false},
		{-1, true},
		{config.MaxWorkers + 1, true},
	}
	for _, tt := range tests {
		err := validateWorkers(tt.n)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateWorkers(%d) error = %v, wantErr %v", tt.n, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) error = %v, want %v", tt.n, err, ErrInvalidWorkerCount)
		}
	}
}

func TestResolveLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		level  string
		common commonFlags
		want   string
	}{
		{"config level", "warn", commonFlags{}, "warn"},
		{"verbose", "warn", commonFlags{verbose: true}, "debug"},
		{"quiet", "info", commonFlags{quiet: true}, "error"},
	}
	for _, tt := range tests {
		if got := resolveLogLevel(tt.level, tt.common); got != tt.want {
			t.Errorf("%s: resolveLogLevel() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestWarnDuplicateIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	header := []string{"num"}
	recs := []rowdoc.Record{
		rowdoc.NewRecord(header, []string{"7"}),
		rowdoc.NewRecord(header, []string{"8"}),
		rowdoc.NewRecord(header, []string{"7"}),
		rowdoc.NewRecord(header, []string{""}),
		rowdoc.NewRecord(header, []string{""}),
	}

	warnDuplicateIDs(logger, recs, "num")

	out := buf.String()
	if got := strings.Count(out, "duplicate identifier"); got != 1 {
		t.Errorf("warnings = %d, want 1:\n%s", got, out)
	}
	if !strings.Contains(out, "record=7") || !strings.Contains(out, "count=2") {
		t.Errorf("warning should name record 7 twice:\n%s", out)
	}
}
