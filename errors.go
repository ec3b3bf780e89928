package rowdoc

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyOutputDir    = errors.New("output directory cannot be empty")
	ErrNoColumns         = errors.New("at least one column is required")
	ErrMissingField      = errors.New("record has no such field")
	ErrInvalidIdentifier = errors.New("invalid record identifier")
	ErrDocumentBuild     = errors.New("document build failed")
	ErrWriteDocument     = errors.New("failed to write document")
	ErrHTMLConversion    = errors.New("HTML conversion failed")

	// Image decoding errors. Always absorbed at the field boundary.
	ErrImageDecode = errors.New("image decode failed")

	// Settings and column validation errors.
	ErrInvalidSettings   = errors.New("invalid document settings")
	ErrInvalidColumnType = errors.New("invalid column type")
	ErrInvalidColumn     = errors.New("invalid column")
	ErrInvalidFormat     = errors.New("invalid output format")

	// PDF backend errors.
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Asset loading errors.
	ErrStyleNotFound = errors.New("style not found")
	ErrPoolClosed    = errors.New("renderer pool is closed")
)
