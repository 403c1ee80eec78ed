package extract

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/yomu/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PlainExtractor returns plain-text files verbatim.
type PlainExtractor struct{}

// NewPlainExtractor returns a PlainExtractor.
func NewPlainExtractor() *PlainExtractor {
	return &PlainExtractor{}
}

// Extract returns content as a string with a leading UTF-8 byte order mark removed.
// Invalid UTF-8 sequences are replaced with the replacement character. It never fails.
func (e *PlainExtractor) Extract(_ context.Context, content []byte) (*models.ExtractionResult, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	text := string(content)
	if !utf8.Valid(content) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	return &models.ExtractionResult{Text: text, Method: models.MethodPlain}, nil
}
