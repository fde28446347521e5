package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AnTengye/recscan/pkg/logger"
	"github.com/ledongthuc/pdf"
)

// TextExtractor turns a PDF stream into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
}

// PDFTextExtractor extracts page text with ledongthuc/pdf.
// Image-only pages yield no text; there is no OCR fallback.
type PDFTextExtractor struct{}

func NewPDFTextExtractor() *PDFTextExtractor {
	return &PDFTextExtractor{}
}

// Extract reads the whole stream and returns the text of every page joined by
// newlines, in page order. Failures are returned as *ExtractionError.
func (e *PDFTextExtractor) Extract(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &ExtractionError{Stage: StagePDF, Err: fmt.Errorf("failed to read PDF: %w", err)}
	}
	return e.extractBytes(ctx, data)
}

// ExtractFile extracts the text of the PDF at path.
func (e *PDFTextExtractor) ExtractFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ExtractionError{Stage: StagePDF, Key: path, Err: err}
	}
	defer f.Close()

	text, err := e.Extract(ctx, f)
	if ee, ok := err.(*ExtractionError); ok {
		ee.Key = path
	}
	return text, err
}

func (e *PDFTextExtractor) extractBytes(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = &ExtractionError{Stage: StagePDF, Err: fmt.Errorf("malformed PDF: %v", rec)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Stage: StagePDF, Err: fmt.Errorf("failed to open PDF: %w", err)}
	}

	pageCount := reader.NumPage()
	pages := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return "", &ExtractionError{Stage: StagePDF, Err: err}
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn(ctx, "failed to extract text from page", "page", i, "error", err)
			continue
		}

		pages = append(pages, pageText)
	}

	return strings.Join(pages, "\n"), nil
}
