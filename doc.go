// Package rowdoc renders tabular records as documents: one document per
// record plus a summary document holding a table of all records.
//
// # Quick Start
//
// Describe the columns, then render each record and the summary:
//
//	cols := []rowdoc.Column{
//	    {Name: "phone", DisplayName: "Phone", Type: rowdoc.ColumnString},
//	    {Name: "sign", DisplayName: "Signature", Type: rowdoc.ColumnImage},
//	}
//	settings := rowdoc.DefaultSettings("id", "Subject Signature")
//
//	r, err := rowdoc.NewRenderer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	for _, rec := range records {
//	    if _, err := r.RenderRow(ctx, rec, cols, settings, "results"); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	summary, err := r.RenderTable(ctx, records, cols, settings, "results")
//
// Row documents are named after the record's identifier field
// (results/7.docx); the summary is results/summary.docx.
//
// # Column Types
//
// A string column renders as a "<display name>: <value>" paragraph in a row
// document and as the bare value in a summary cell. An image column holds a
// base64 payload, optionally prefixed with "data:image/png;base64,". PNG,
// JPEG, GIF, BMP, TIFF and WebP payloads are accepted and embedded as PNG.
// Row pictures default to 4x3 inches, summary pictures to 2x2 inches.
//
// A payload that cannot be decoded never fails the document: the value is
// rendered as text and a warning is logged with the record, column and
// reason. Use WithLogger to capture these warnings.
//
// # Output Formats
//
// The default format is docx, written without any external tool. WithFormat
// selects html (Markdown converted by goldmark, styled with an embedded or
// custom stylesheet) or pdf (the html page printed by headless Chrome):
//
//	r, err := rowdoc.NewRenderer(
//	    rowdoc.WithFormat(rowdoc.FormatPDF),
//	    rowdoc.WithStyle("compact"),
//	    rowdoc.WithTimeout(time.Minute),
//	)
//
// # Parallel Processing
//
// A Renderer may be shared by goroutines. For pdf batches, RendererPool
// bounds the number of browsers:
//
//	pool := rowdoc.NewRendererPool(rowdoc.ResolvePoolSize(0), rowdoc.WithFormat(rowdoc.FormatPDF))
//	defer pool.Close()
//
//	r, err := pool.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(r)
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package rowdoc
