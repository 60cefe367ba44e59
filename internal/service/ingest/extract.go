package ingest

import (
	"strings"
	"unicode/utf8"
)

// extractText pulls indexable text out of uploaded bytes. Plain-text
// formats are taken as-is; binary formats yield no text here and the
// vectorization worker marks them skipped until an extraction backend
// handles them.
// TODO: wire a pdftotext extraction backend for application/pdf.
func extractText(mimeType string, data []byte) string {
	switch mimeType {
	case "text/plain", "text/csv":
		if !utf8.Valid(data) {
			return ""
		}
		return strings.TrimSpace(string(data))
	default:
		return ""
	}
}
