// Package pdftext extracts plain text from uploaded PDF resumes.
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// MinTextLength is the shortest extraction considered a real resume.
	MinTextLength = 100
	// MaxTextLength caps what is sent to the completion endpoint.
	MaxTextLength = 50000
)

// Result is one extraction outcome.
type Result struct {
	Text      string
	PageCount int
}

// Extract pulls the text out of a PDF and validates it is plausibly a
// resume: non-trivial length, truncated to the completion-endpoint cap.
func Extract(data []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if len(text) < MinTextLength {
		return nil, fmt.Errorf("extracted text too short (%d chars): the PDF may be image-based or corrupted", len(text))
	}
	if len(text) > MaxTextLength {
		text = text[:MaxTextLength]
	}

	return &Result{Text: text, PageCount: pages}, nil
}
