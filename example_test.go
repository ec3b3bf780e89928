package rowdoc_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-rowdoc"
)

// Example renders one record and the summary as docx documents.
func Example() {
	dir, err := os.MkdirTemp("", "rowdoc-example")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer os.RemoveAll(dir)

	r, err := rowdoc.NewRenderer()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer r.Close()

	cols := []rowdoc.Column{
		{Name: "phone", DisplayName: "Phone", Type: rowdoc.ColumnString},
		{Name: "sign", DisplayName: "Signature", Type: rowdoc.ColumnImage},
	}
	settings := rowdoc.DefaultSettings("num", "Subject Signature")
	rec := rowdoc.NewRecord([]string{"num", "phone", "sign"}, []string{"7", "0501234567", ""})

	ctx := context.Background()
	path, err := r.RenderRow(ctx, rec, cols, settings, dir)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(filepath.Base(path))

	path, err = r.RenderTable(ctx, []rowdoc.Record{rec}, cols, settings, dir)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(filepath.Base(path))
	// Output:
	// 7.docx
	// summary.docx
}

// ExampleDecodeImage shows the failure reason for a payload that is not base64.
func ExampleDecodeImage() {
	_, err := rowdoc.DecodeImage("not-base64!!")

	var imgErr *rowdoc.ImageError
	if errors.As(err, &imgErr) {
		fmt.Println(imgErr.Reason)
	}
	// Output: base64
}

// ExampleColumn_Label shows the display name falling back to the field name.
func ExampleColumn_Label() {
	fmt.Println(rowdoc.Column{Name: "phone", DisplayName: "Phone"}.Label())
	fmt.Println(rowdoc.Column{Name: "phone"}.Label())
	// Output:
	// Phone
	// phone
}
