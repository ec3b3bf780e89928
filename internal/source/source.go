// Package source reads tabular input (CSV or XLSX) into records.
//
// The first non-empty row is the header; it names the fields of every
// following row. Blank rows are skipped.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	rowdoc "github.com/alnah/go-rowdoc"
)

// Sentinel errors for input reading.
var (
	ErrUnsupportedInput = errors.New("unsupported input type")
	ErrNoHeader         = errors.New("input has no header row")
	ErrSheetNotFound    = errors.New("sheet not found")
	ErrInvalidDelimiter = errors.New("invalid CSV delimiter")
	ErrUnknownColumn    = errors.New("column not found in input header")
	ErrRowTooLong       = errors.New("row has more fields than the header")
)

// utf8BOM is written by spreadsheet tools at the start of CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls how an input file is read.
type Options struct {
	Delimiter rune   // CSV field separator; 0 means tab for .tsv, ',' otherwise
	Sheet     string // XLSX sheet; empty means the first sheet
}

// Table is the raw content of an input: a header and its data rows.
type Table struct {
	Header []string
	Rows   [][]string
	Sheet  string // XLSX sheet actually read
}

// Read dispatches on the file extension (.csv, .tsv, .xlsx, .xlsm).
func Read(path string, opts Options) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv":
		if ext == ".tsv" && opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		f, err := os.Open(path) // #nosec G304 -- input path is user-provided
		if err != nil {
			return nil, fmt.Errorf("opening CSV: %w", err)
		}
		defer func() { _ = f.Close() }()
		return ReadCSV(f, opts.Delimiter)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, opts.Sheet)
	default:
		return nil, fmt.Errorf("%w: %q (want .csv, .tsv, or .xlsx)", ErrUnsupportedInput, ext)
	}
}

// ReadCSV parses CSV from r. Rows with fewer fields than the header are
// padded with empty values; rows with extra non-empty fields are rejected
// with ErrRowTooLong. Quoted fields may span lines.
func ReadCSV(r io.Reader, delimiter rune) (*Table, error) {
	if delimiter == 0 {
		delimiter = ','
	}
	if !validDelimiter(delimiter) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDelimiter, delimiter)
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	var (
		rows  [][]string
		lines []int
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}
	return newTable(rows, lines, "line")
}

// ReadXLSX reads one sheet of a workbook. Cell values are taken as
// formatted strings.
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheet, strings.Join(sheets, ", "))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	lines := make([]int, len(rows))
	for i := range lines {
		lines[i] = i + 1
	}
	t, err := newTable(rows, lines, "row")
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	t.Sheet = sheet
	return t, nil
}

// newTable splits rows into header and data. lines holds the position of
// each row in the input, reported as unit in errors.
func newTable(rows [][]string, lines []int, unit string) (*Table, error) {
	t := &Table{}
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		if t.Header == nil {
			t.Header = make([]string, len(row))
			for j, name := range row {
				t.Header[j] = strings.TrimSpace(name)
			}
			continue
		}
		if len(row) > len(t.Header) && !isBlank(row[len(t.Header):]) {
			return nil, fmt.Errorf("%w: %s %d has %d fields, header has %d",
				ErrRowTooLong, unit, lines[i], len(row), len(t.Header))
		}
		t.Rows = append(t.Rows, row)
	}
	if t.Header == nil {
		return nil, ErrNoHeader
	}
	return t, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func validDelimiter(r rune) bool {
	return r != '"' && r != '\r' && r != '\n' && r != utf8.RuneError && utf8.ValidRune(r)
}

// Records converts the data rows to records keyed by the header.
func (t *Table) Records() []rowdoc.Record {
	out := make([]rowdoc.Record, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = rowdoc.NewRecord(t.Header, row)
	}
	return out
}

// CheckColumns returns ErrUnknownColumn naming every name absent from the header.
func (t *Table) CheckColumns(names ...string) error {
	have := make(map[string]struct{}, len(t.Header))
	for _, h := range t.Header {
		have[h] = struct{}{}
	}
	var missing []string
	for _, n := range names {
		if _, ok := have[n]; !ok {
			missing = append(missing, fmt.Sprintf("%q", n))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, strings.Join(missing, ", "))
	}
	return nil
}

// ParseDelimiter converts a config or flag value to a delimiter rune.
// Accepts a single character or the escape `\t`. An empty value returns 0,
// which lets Read pick the delimiter from the file extension.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || !validDelimiter(r) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
	return r, nil
}
