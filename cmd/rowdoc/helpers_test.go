package main

// Notes:
// - Shared fixtures for the command tests: input files, a PNG payload,
//   buffered environments and a fake renderer pool.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	rowdoc "github.com/alnah/go-rowdoc"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// pngBase64 returns a bare base64 PNG of the given pixel size.
func pngBase64(t *testing.T, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// writeInput writes content to a file named name in a fresh temp dir.
func writeInput(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// signatureCSV returns a three-row input with one undecodable signature.
// The data URI holds a comma, so the field is quoted.
func signatureCSV(t *testing.T) string {
	t.Helper()

	sig := `"data:image/png;base64,` + pngBase64(t, 4, 3) + `"`
	return "num,phone,sign\n" +
		"7,0501234567," + sig + "\n" +
		"8,0509999999,not-base64!!\n" +
		"9,0521111111," + sig + "\n"
}

// mediaParts counts the embedded pictures of a docx file.
func mediaParts(t *testing.T, path string) int {
	t.Helper()

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("zip.OpenReader(%s) error = %v", path, err)
	}
	defer func() { _ = zr.Close() }()

	n := 0
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "word/media/") {
			n++
		}
	}
	return n
}

// testEnv returns an environment writing to buffers with a fixed clock.
func testEnv(t *testing.T) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	fixed := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	return &Environment{
		Now:        func() time.Time { return fixed },
		Stdout:     &stdout,
		Stderr:     &stderr,
		DotEnvPath: filepath.Join(t.TempDir(), ".env"),
	}, &stdout, &stderr
}

// signatureJob renders phone and sign of the signatureCSV layout.
func signatureJob(outDir string) *renderJob {
	return &renderJob{
		columns: []rowdoc.Column{
			{Name: "phone", DisplayName: "Phone", Type: rowdoc.ColumnString},
			{Name: "sign", DisplayName: "Signature", Type: rowdoc.ColumnImage},
		},
		settings: rowdoc.DefaultSettings("num", "Subject Signature"),
		outDir:   outDir,
	}
}

// signatureRecords returns n records numbered from 1.
func signatureRecords(n int) []rowdoc.Record {
	header := []string{"num", "phone", "sign"}
	recs := make([]rowdoc.Record, n)
	for i := range recs {
		recs[i] = rowdoc.NewRecord(header, []string{string(rune('1' + i)), "050", ""})
	}
	return recs
}

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// fakeRenderer records calls and fails for ids listed in failIDs.
type fakeRenderer struct {
	mu       sync.Mutex
	rows     []string
	tables   int
	failIDs  map[string]error
	tableErr error
	rowDelay time.Duration
}

var _ RowRenderer = (*fakeRenderer)(nil)

func (f *fakeRenderer) RenderRow(ctx context.Context, rec rowdoc.Record, _ []rowdoc.Column, s rowdoc.Settings, outDir string) (string, error) {
	if f.rowDelay > 0 {
		select {
		case <-time.After(f.rowDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	id, _ := rec.Lookup(s.IDColumn)
	f.mu.Lock()
	f.rows = append(f.rows, id)
	f.mu.Unlock()
	if err := f.failIDs[id]; err != nil {
		return "", err
	}
	return filepath.Join(outDir, id+".docx"), nil
}

func (f *fakeRenderer) RenderTable(_ context.Context, _ []rowdoc.Record, _ []rowdoc.Column, _ rowdoc.Settings, outDir string) (string, error) {
	f.mu.Lock()
	f.tables++
	f.mu.Unlock()
	if f.tableErr != nil {
		return "", f.tableErr
	}
	return filepath.Join(outDir, rowdoc.SummaryBaseName+".docx"), nil
}

func (f *fakeRenderer) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// fakePool hands out the same renderer up to size times concurrently.
type fakePool struct {
	renderer   RowRenderer
	size       int
	acquireErr error
	acquired   atomic.Int32
	released   atomic.Int32
}

var _ Pool = (*fakePool)(nil)

func (p *fakePool) Acquire() (RowRenderer, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired.Add(1)
	return p.renderer, nil
}

func (p *fakePool) Release(RowRenderer) {
	p.released.Add(1)
}

func (p *fakePool) Size() int {
	return p.size
}

// errBoom is a generic renderer failure.
var errBoom = errors.New("boom")
