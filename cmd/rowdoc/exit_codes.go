package main

import (
	"context"
	"errors"
	"os"

	rowdoc "github.com/alnah/go-rowdoc"
	"github.com/alnah/go-rowdoc/internal/assets"
	"github.com/alnah/go-rowdoc/internal/config"
	"github.com/alnah/go-rowdoc/internal/hints"
	"github.com/alnah/go-rowdoc/internal/source"
)

// Exit codes for the rowdoc CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // All documents written
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, columns or input format
	ExitIO      = 3 // File not found, permission denied, write failure
	ExitBrowser = 4 // Browser/Chrome errors (pdf format)
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, rowdoc.ErrBrowserConnect) ||
		errors.Is(err, rowdoc.ErrPageCreate) ||
		errors.Is(err, rowdoc.ErrPageLoad) ||
		errors.Is(err, rowdoc.ErrPDFGeneration) {
		return ExitBrowser
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, rowdoc.ErrNoColumns) ||
		errors.Is(err, rowdoc.ErrInvalidSettings) ||
		errors.Is(err, rowdoc.ErrInvalidColumn) ||
		errors.Is(err, rowdoc.ErrInvalidColumnType) ||
		errors.Is(err, rowdoc.ErrInvalidFormat) ||
		errors.Is(err, rowdoc.ErrInvalidIdentifier) ||
		errors.Is(err, rowdoc.ErrMissingField) ||
		errors.Is(err, rowdoc.ErrStyleNotFound) ||
		errors.Is(err, source.ErrUnsupportedInput) ||
		errors.Is(err, source.ErrNoHeader) ||
		errors.Is(err, source.ErrSheetNotFound) ||
		errors.Is(err, source.ErrInvalidDelimiter) ||
		errors.Is(err, source.ErrUnknownColumn) ||
		errors.Is(err, source.ErrRowTooLong) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidColumnSpec) ||
		errors.Is(err, ErrInvalidArgs) ||
		errors.Is(err, ErrUnknownCommand) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, rowdoc.ErrWriteDocument) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrCreateOutputDir) {
		return ExitIO
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var colErr *columnError
	switch {
	case errors.Is(err, rowdoc.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths("rowdoc"))
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	case errors.Is(err, rowdoc.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.StyleNames())
	case errors.As(err, &colErr):
		return hints.ForUnknownColumn(colErr.header)
	case errors.Is(err, rowdoc.ErrInvalidIdentifier):
		return hints.ForInvalidIdentifier("the id column")
	}
	return ""
}
