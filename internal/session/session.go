// Package session holds the single active document and its conversation, and serializes
// everything that reads or replaces them.
package session

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hyperjump/yomu/internal/conversation"
	"github.com/hyperjump/yomu/internal/extract"
	"github.com/hyperjump/yomu/internal/generation"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/prompt"
	"github.com/hyperjump/yomu/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Extractor turns a named document into text. *extract.Orchestrator satisfies it.
type Extractor interface {
	Extract(ctx context.Context, name string, content []byte) (*models.ExtractionResult, error)
}

var _ Extractor = (*extract.Orchestrator)(nil)

// Session is the process-wide active session. All methods are safe for concurrent use; a
// submission is a barrier, so no question runs against a half-replaced document or history.
type Session struct {
	extractor Extractor
	generator generation.Generator
	builder   *prompt.Builder
	store     *conversation.Store
	logger    *zap.Logger

	gate   *semaphore.Weighted
	reject bool

	mu  sync.RWMutex
	doc *models.Document
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets a logger for session events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRejectConcurrent makes Submit and Process fail with ErrBusy instead of waiting while
// another request holds the session.
func WithRejectConcurrent(reject bool) Option {
	return func(s *Session) { s.reject = reject }
}

// WithBuilder replaces the default prompt builder.
func WithBuilder(b *prompt.Builder) Option {
	return func(s *Session) {
		if b != nil {
			s.builder = b
		}
	}
}

// New returns an empty session.
func New(extractor Extractor, generator generation.Generator, opts ...Option) *Session {
	s := &Session{
		extractor: extractor,
		generator: generator,
		builder:   prompt.NewBuilder(prompt.DefaultMaxDocumentChars),
		store:     conversation.NewStore(),
		logger:    zap.NewNop(),
		gate:      semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) acquire(ctx context.Context, submission bool) error {
	if submission && s.reject {
		if !s.gate.TryAcquire(1) {
			return ErrBusy
		}
		return nil
	}
	return s.gate.Acquire(ctx, 1)
}

func (s *Session) release() {
	s.gate.Release(1)
}

// Busy reports whether a request currently holds the session.
func (s *Session) Busy() bool {
	if s.gate.TryAcquire(1) {
		s.gate.Release(1)
		return false
	}
	return true
}

// Submit extracts content and, on success, makes it the active document and clears the
// conversation. On failure the previous document and conversation stay as they were.
func (s *Session) Submit(ctx context.Context, name string, content []byte) (*models.DocumentInfo, error) {
	if err := s.acquire(ctx, true); err != nil {
		return nil, err
	}
	defer s.release()
	return s.submitLocked(ctx, name, content)
}

func (s *Session) submitLocked(ctx context.Context, name string, content []byte) (*models.DocumentInfo, error) {
	name = filepath.Base(name)
	res, err := s.extractor.Extract(ctx, name, content)
	if err != nil {
		s.logger.Warn("submission rejected", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	doc := &models.Document{
		ID:        uuid.New().String(),
		Name:      name,
		Format:    extract.DetectFormat(name),
		Size:      int64(len(content)),
		Text:      res.Text,
		Method:    res.Method,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.doc = doc
	s.store.Clear()
	s.mu.Unlock()

	s.logger.Info("document submitted",
		zap.String("id", doc.ID),
		zap.String("name", doc.Name),
		zap.String("format", string(doc.Format)),
		zap.String("method", string(doc.Method)),
		zap.Int("chars", utf8.RuneCountInString(doc.Text)),
		zap.Int("pages", res.Pages),
	)
	s.logger.Debug("extracted text", zap.String("preview", utils.Truncate(doc.Text, 120)))
	return info(doc), nil
}

// Summarize asks the generation service for a summary of the active document. Service
// failures come back as a diagnostic string, not an error.
func (s *Session) Summarize(ctx context.Context) (string, error) {
	if err := s.acquire(ctx, false); err != nil {
		return "", err
	}
	defer s.release()
	return s.summarizeLocked(ctx)
}

func (s *Session) summarizeLocked(ctx context.Context) (string, error) {
	doc := s.current()
	if doc == nil {
		return "", ErrNoDocument
	}
	w := s.builder.Build(doc.Text, nil)
	p := s.builder.Summarize(w)
	s.logger.Debug("summarize", zap.String("id", doc.ID), zap.Int("prompt_chars", utf8.RuneCountInString(p)))
	text, err := s.generator.Generate(ctx, p)
	if err != nil {
		return Diagnostic(err), nil
	}
	return prompt.OrFallback(text, prompt.FallbackSummary), nil
}

// Process submits content and summarizes it without letting another request in between.
func (s *Session) Process(ctx context.Context, name string, content []byte) (*models.SubmitResponse, error) {
	if err := s.acquire(ctx, true); err != nil {
		return nil, err
	}
	defer s.release()
	di, err := s.submitLocked(ctx, name, content)
	if err != nil {
		return nil, err
	}
	summary, err := s.summarizeLocked(ctx)
	if err != nil {
		return nil, err
	}
	return &models.SubmitResponse{Document: di, Summary: summary}, nil
}

// Ask answers query against the active document and its conversation. It does nothing and
// reports asked=false unless both the query and the document text are non-empty. A successful
// call is appended to the conversation; a service failure returns the diagnostic and is not.
// Turns is the conversation length observed before the session is released.
func (s *Session) Ask(ctx context.Context, query string) (*models.AnswerResponse, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false
	}
	if err := s.acquire(ctx, false); err != nil {
		return &models.AnswerResponse{Query: query, Answer: Diagnostic(err), Turns: s.store.Len()}, true
	}
	defer s.release()

	doc := s.current()
	if doc == nil || doc.Text == "" {
		return nil, false
	}
	w := s.builder.Build(doc.Text, s.store.All())
	p := s.builder.Answer(w, query)
	s.logger.Debug("answer",
		zap.String("id", doc.ID),
		zap.Int("turns", s.store.Len()),
		zap.Int("prompt_chars", utf8.RuneCountInString(p)),
		zap.String("query", utils.Truncate(query, 80)),
	)
	text, err := s.generator.Generate(ctx, p)
	if err != nil {
		return &models.AnswerResponse{Query: query, Answer: Diagnostic(err), Turns: s.store.Len()}, true
	}
	answer := prompt.OrFallback(text, prompt.FallbackAnswer)
	s.store.Append(models.Turn{Question: query, Answer: answer, AskedAt: time.Now()})
	return &models.AnswerResponse{Query: query, Answer: answer, Turns: s.store.Len()}, true
}

// History returns the conversation of the active document in arrival order.
func (s *Session) History() []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.All()
}

// Document returns the active document, or nil when nothing has been submitted.
func (s *Session) Document() *models.DocumentInfo {
	doc := s.current()
	if doc == nil {
		return nil
	}
	return info(doc)
}

// Text returns the full extracted text of the active document.
func (s *Session) Text() string {
	doc := s.current()
	if doc == nil {
		return ""
	}
	return doc.Text
}

func (s *Session) current() *models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

func info(doc *models.Document) *models.DocumentInfo {
	return &models.DocumentInfo{Document: doc, Characters: utf8.RuneCountInString(doc.Text)}
}
