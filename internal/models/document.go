// Package models defines core data structures for documents, extraction results, and conversation turns.
package models

import "time"

// Format is the closed set of document formats the extractor understands.
type Format string

const (
	FormatPDF         Format = "pdf"
	FormatStructured  Format = "docx"
	FormatPlainText   Format = "txt"
	FormatUnsupported Format = "unsupported"
)

// Method records which extraction strategy ultimately supplied the text.
type Method string

const (
	MethodNative     Method = "native"
	MethodOCR        Method = "ocr"
	MethodStructured Method = "structured"
	MethodPlain      Method = "plain"
)

// Document is the active document of a session. Text is set exactly once per submission;
// a new submission replaces the whole Document.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Format    Format    `json:"format"`
	Size      int64     `json:"size"`
	Text      string    `json:"-"`
	Method    Method    `json:"method"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentInfo is the externally visible summary of a Document.
type DocumentInfo struct {
	*Document
	Characters int `json:"characters"`
}

// ExtractionResult is the immutable output of the extraction pipeline.
type ExtractionResult struct {
	Text   string `json:"text"`
	Method Method `json:"method"`
	// Pages is the number of pages walked or recognized; zero for formats without pages.
	Pages int `json:"pages,omitempty"`
}
