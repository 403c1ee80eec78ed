package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/hyperjump/yomu/internal/models"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// partNameRe and partNameRe2 find the main document part in either attribute order.
var (
	partNameRe  = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

// paragraphRe matches a whole <w:p> element but not <w:pPr>, <w:proofErr> or a self-closing <w:p/>.
var paragraphRe = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*[^/])?>.*?</w:p>`)

// runTokenRe matches the pieces of a paragraph that carry text: text nodes, tabs and breaks.
var runTokenRe = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>|<w:tab/>|<w:br(?:\s[^>]*)?/>|<w:cr/>`)

// StructuredExtractor returns the raw text stream of a .docx container.
type StructuredExtractor struct{}

// NewStructuredExtractor returns a StructuredExtractor.
func NewStructuredExtractor() *StructuredExtractor {
	return &StructuredExtractor{}
}

// Extract unpacks the container and returns one line per non-empty paragraph, paragraphs
// separated by a blank line. Runs inside a paragraph are concatenated without separators
// because Word splits runs mid-word.
func (e *StructuredExtractor) Extract(_ context.Context, content []byte) (*models.ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, extractionError(models.MethodStructured, "not a zip: %w", err)
	}

	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return nil, &ExtractionError{Method: models.MethodStructured, Err: err}
	}
	if docXML == nil {
		return nil, extractionError(models.MethodStructured, "%s not found", docPath)
	}

	var paragraphs []string
	for _, p := range paragraphRe.FindAllString(string(docXML), -1) {
		if text := paragraphText(p); strings.TrimSpace(text) != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return &models.ExtractionResult{
		Text:   strings.Join(paragraphs, "\n\n"),
		Method: models.MethodStructured,
	}, nil
}

func paragraphText(p string) string {
	var b strings.Builder
	for _, m := range runTokenRe.FindAllStringSubmatch(p, -1) {
		switch {
		case strings.HasPrefix(m[0], "<w:tab"):
			b.WriteByte('\t')
		case strings.HasPrefix(m[0], "<w:br"), strings.HasPrefix(m[0], "<w:cr"):
			b.WriteByte('\n')
		default:
			b.WriteString(html.UnescapeString(m[1]))
		}
	}
	return b.String()
}

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	content := string(data)
	if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	return ""
}

// readZipFile returns the content of the named entry, or nil if the entry does not exist.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		return data, nil
	}
	return nil, nil
}
