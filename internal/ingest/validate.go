package ingest

import (
	"path/filepath"
	"strings"
)

const (
	pdfMimeType = "application/pdf"

	// InvalidFileTypeMessage is the fixed message written to the failure
	// ledger when a non-PDF upload is rejected.
	InvalidFileTypeMessage = "Invalid file type. Only PDF files are accepted."
)

// ValidatePDF accepts a file when its declared content type is the PDF MIME
// type or its extension is .pdf, case-insensitively. The extension alone is
// sufficient: browsers routinely send wrong content types.
func ValidatePDF(contentType, fileName string) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if clean == pdfMimeType {
		return true
	}
	return strings.EqualFold(filepath.Ext(fileName), ".pdf")
}
