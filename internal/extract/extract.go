package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// TextExtractor turns raw file bytes into plain text. Implementations may run
// in-process or shell out to an external tool.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, fileName string) (string, error)
}

// ExtractionError reports a failed extraction attempt, carrying whatever
// diagnostic output the extractor produced.
type ExtractionError struct {
	FileName string
	Stderr   string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("extract %s: %s", e.FileName, e.Stderr)
	}
	return fmt.Sprintf("extract %s: %v", e.FileName, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Diagnostic returns the message suitable for a failure record.
func (e *ExtractionError) Diagnostic() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "text extraction failed"
}

// PDFExtractor extracts text in-process using github.com/ledongthuc/pdf.
type PDFExtractor struct{}

// Extract parses the PDF and returns its plain text.
func (PDFExtractor) Extract(ctx context.Context, data []byte, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{FileName: fileName, Err: err}
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", &ExtractionError{FileName: fileName, Err: err}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", &ExtractionError{FileName: fileName, Err: err}
	}
	return buf.String(), nil
}

var _ TextExtractor = PDFExtractor{}
