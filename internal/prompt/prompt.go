// Package prompt builds the size-bounded prompts sent to the generation service.
package prompt

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/yomu/internal/models"
)

// DefaultMaxDocumentChars is how many leading characters of the document text go into a prompt.
const DefaultMaxDocumentChars = 8000

const (
	summarizePrefix = "Summarize this:\n\n"
	answerPrefix    = "Based on this context:\n"
	questionPrefix  = "Q: "
	answerLabel     = "A: "
)

// Texts shown when the service answers without any candidate text.
const (
	FallbackSummary = "No summary found."
	FallbackAnswer  = "No answer."
)

// Builder assembles context windows and prompts. The zero value uses DefaultMaxDocumentChars.
type Builder struct {
	MaxDocumentChars int
}

// NewBuilder returns a Builder keeping the first maxChars characters of a document.
// A non-positive maxChars selects DefaultMaxDocumentChars.
func NewBuilder(maxChars int) *Builder {
	return &Builder{MaxDocumentChars: maxChars}
}

func (b *Builder) limit() int {
	if b == nil || b.MaxDocumentChars <= 0 {
		return DefaultMaxDocumentChars
	}
	return b.MaxDocumentChars
}

// Build slices documentText to its first characters and serializes history in arrival order.
// Empty inputs produce empty segments.
func (b *Builder) Build(documentText string, history []models.Turn) models.ContextWindow {
	return models.ContextWindow{
		DocumentSlice: Head(documentText, b.limit()),
		History:       SerializeHistory(history),
	}
}

// Summarize is the summarization prompt: a fixed instruction followed by the document slice.
func (b *Builder) Summarize(w models.ContextWindow) string {
	return summarizePrefix + w.DocumentSlice
}

// Answer is the question-answering prompt: document slice, history and query, in that order,
// separated by newlines.
func (b *Builder) Answer(w models.ContextWindow, query string) string {
	var sb strings.Builder
	sb.Grow(len(answerPrefix) + len(w.DocumentSlice) + len(w.History) + len(query) + 8)
	sb.WriteString(answerPrefix)
	sb.WriteString(w.DocumentSlice)
	sb.WriteByte('\n')
	sb.WriteString(w.History)
	sb.WriteByte('\n')
	sb.WriteString(questionPrefix)
	sb.WriteString(query)
	return sb.String()
}

// SerializeHistory renders turns as "Q: <question>\nA: <answer>" joined by newlines.
func SerializeHistory(history []models.Turn) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, 2*len(history))
	for _, t := range history {
		lines = append(lines, questionPrefix+t.Question, answerLabel+t.Answer)
	}
	return strings.Join(lines, "\n")
}

// Head returns the first n characters (runes) of s, or s itself when it is shorter.
func Head(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// OrFallback returns text, or fallback when the service produced nothing.
func OrFallback(text, fallback string) string {
	if text == "" {
		return fallback
	}
	return text
}

// SliceLen is the character count of a context window's document slice.
func SliceLen(w models.ContextWindow) int {
	return utf8.RuneCountInString(w.DocumentSlice)
}
