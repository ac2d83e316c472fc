package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

// extractPDF pulls per-page text and joins pages with blank lines. A reader
// that cannot be opened at all is treated as a malformed PDF structure and
// falls back to plain-text decoding instead of failing the document.
func extractPDF(data []byte) (string, error) {
	reader, err := openPDF(data)
	if err != nil {
		return decodePlainText(data), nil
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := protectExtract(page)
		if err != nil {
			// a single bad page does not sink the document
			continue
		}
		if strings.TrimSpace(content) != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

func openPDF(data []byte) (reader *pdf.Reader, err error) {
	// the pdf package panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// protectExtract bounds a single page extraction; some PDFs make the text
// renderer spin.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("page extraction panic: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(10 * time.Second):
		return "", errors.New("page extraction timeout")
	}
}

// extractWordArchive opens the DOCX package (a zip archive), reads the main
// document part and returns its paragraph text. The cat library wants a file
// path, so the bytes take a detour through a temp file.
func extractWordArchive(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "rfe-extract-*.docx")
	if err != nil {
		return "", fmt.Errorf("failed to stage docx: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to stage docx: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to stage docx: %w", err)
	}

	text, err := cat.File(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read document part: %w", err)
	}
	return text, nil
}
