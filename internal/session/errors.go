package session

import (
	"errors"

	"github.com/hyperjump/yomu/internal/extract"
	"github.com/hyperjump/yomu/internal/generation"
)

var (
	// ErrBusy is returned by Submit and Process when another request holds the session and
	// the session rejects instead of queueing.
	ErrBusy = errors.New("another document is being processed")
	// ErrNoDocument is returned by Summarize when nothing has been submitted yet.
	ErrNoDocument = errors.New("no document has been submitted")
)

// User-visible diagnostics.
const (
	MsgUnsupported     = "❌ Unsupported file type."
	PrefixExtraction   = "⚠️ Extraction failed: "
	PrefixServiceError = "⚠️ Error: "
	MsgBusy            = "⏳ Another document is being processed."
	MsgNoDocument      = "📄 Upload a document first."
)

// Diagnostic converts err into the short prefixed string shown to the user. It returns ""
// for a nil error.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	var unsupported *extract.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return MsgUnsupported
	}
	var ee *extract.ExtractionError
	if errors.As(err, &ee) {
		return PrefixExtraction + ee.Err.Error()
	}
	var se *generation.ServiceError
	if errors.As(err, &se) {
		return PrefixServiceError + se.Err.Error()
	}
	switch {
	case errors.Is(err, ErrBusy):
		return MsgBusy
	case errors.Is(err, ErrNoDocument):
		return MsgNoDocument
	}
	return PrefixServiceError + err.Error()
}
