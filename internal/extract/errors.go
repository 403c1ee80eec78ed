package extract

import (
	"fmt"

	"github.com/hyperjump/yomu/internal/models"
)

// UnsupportedFormatError is returned when a file name does not map to a supported format.
// Extraction is never attempted for such files.
type UnsupportedFormatError struct {
	Name string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("unsupported file type: %q has no extension", e.Name)
	}
	return fmt.Sprintf("unsupported file type %q", e.Ext)
}

// ExtractionError wraps the underlying parse or recognition failure of a strategy.
type ExtractionError struct {
	Method models.Method
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction: %v", e.Method, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func extractionError(method models.Method, format string, args ...any) *ExtractionError {
	return &ExtractionError{Method: method, Err: fmt.Errorf(format, args...)}
}
