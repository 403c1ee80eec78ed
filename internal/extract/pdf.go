package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/ledongthuc/pdf"
)

// NativeExtractor recovers the text embedded in a PDF by walking its pages in order.
type NativeExtractor struct{}

// NewNativeExtractor returns a NativeExtractor.
func NewNativeExtractor() *NativeExtractor {
	return &NativeExtractor{}
}

// Extract walks every page in order. Each page contributes its text items joined by single
// spaces followed by a newline; pages without content contribute just the newline.
// The pdf library panics on some malformed files, which is reported as an ExtractionError.
func (e *NativeExtractor) Extract(ctx context.Context, content []byte) (res *models.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = extractionError(models.MethodNative, "malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, extractionError(models.MethodNative, "open PDF: %w", err)
	}
	numPages := r.NumPage()
	var buf strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, extractionError(models.MethodNative, "page %d: %w", i, err)
		}
		page := r.Page(i)
		if !page.V.IsNull() {
			text, err := pageText(page)
			if err != nil {
				return nil, extractionError(models.MethodNative, "extract page %d: %w", i, err)
			}
			buf.WriteString(text)
		}
		buf.WriteByte('\n')
	}
	return &models.ExtractionResult{Text: buf.String(), Method: models.MethodNative, Pages: numPages}, nil
}

// pageText joins every text item on the page, row by row, with single spaces.
// Rows often carry several shown strings at once, so items are never concatenated directly.
func pageText(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", fmt.Errorf("read text rows: %w", err)
	}
	var items []string
	for _, row := range rows {
		for _, t := range row.Content {
			if t.S != "" {
				items = append(items, t.S)
			}
		}
	}
	return strings.Join(items, " "), nil
}
