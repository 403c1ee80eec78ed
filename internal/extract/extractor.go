// Package extract turns submitted documents into plain text: format detection, one strategy
// per format, and the OCR fallback for PDFs whose embedded text is too thin to use.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hyperjump/yomu/internal/models"
	"go.uber.org/zap"
)

// DefaultMinContentChars is the trimmed length below which a native PDF result is discarded
// in favour of OCR.
const DefaultMinContentChars = 10

// Strategy extracts text from the raw bytes of one document format.
type Strategy interface {
	Extract(ctx context.Context, content []byte) (*models.ExtractionResult, error)
}

// Orchestrator dispatches a document to the strategy registered for its format and applies
// the OCR fallback policy.
type Orchestrator struct {
	strategies map[models.Format]Strategy
	fallback   Strategy
	minContent int
	logger     *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStrategy registers s as the primary strategy for format.
func WithStrategy(format models.Format, s Strategy) Option {
	return func(o *Orchestrator) { o.strategies[format] = s }
}

// WithFallback sets the OCR strategy used when a PDF yields too little text. A nil fallback
// disables OCR and the native result is kept as is.
func WithFallback(s Strategy) Option {
	return func(o *Orchestrator) { o.fallback = s }
}

// WithMinContent overrides DefaultMinContentChars.
func WithMinContent(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.minContent = n
		}
	}
}

// WithLogger sets a logger for extraction diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator returns an Orchestrator with the native PDF, structured and plain-text
// strategies registered. OCR is only active once a fallback is supplied.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		strategies: map[models.Format]Strategy{
			models.FormatPDF:        NewNativeExtractor(),
			models.FormatStructured: NewStructuredExtractor(),
			models.FormatPlainText:  NewPlainExtractor(),
		},
		minContent: DefaultMinContentChars,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ExtractFile reads the file at path and extracts it. The format comes from the path's extension.
func (o *Orchestrator) ExtractFile(ctx context.Context, path string) (*models.ExtractionResult, error) {
	if DetectFormat(path) == models.FormatUnsupported {
		return nil, &UnsupportedFormatError{Name: filepath.Base(path), Ext: extension(path)}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return o.Extract(ctx, filepath.Base(path), content)
}

// Extract detects the format of name, runs the matching strategy over content and, for PDFs
// whose trimmed text is shorter than the minimum, replaces the result with OCR output.
// An OCR failure after fallback is returned as is; there is no further fallback.
func (o *Orchestrator) Extract(ctx context.Context, name string, content []byte) (*models.ExtractionResult, error) {
	format := DetectFormat(name)
	strategy, ok := o.strategies[format]
	if !ok {
		return nil, &UnsupportedFormatError{Name: name, Ext: extension(name)}
	}

	start := time.Now()
	res, err := strategy.Extract(ctx, content)
	if err != nil {
		return nil, asExtractionError(primaryMethod(format), err)
	}
	o.logger.Debug("primary extraction done",
		zap.String("name", name),
		zap.String("format", string(format)),
		zap.String("method", string(res.Method)),
		zap.Int("chars", utf8.RuneCountInString(res.Text)),
		zap.Duration("took", time.Since(start)),
	)

	if format != models.FormatPDF || !o.belowThreshold(res.Text) {
		return res, nil
	}
	if o.fallback == nil {
		o.logger.Warn("native text below threshold and OCR is disabled", zap.String("name", name))
		return res, nil
	}

	o.logger.Info("native text below threshold, running OCR",
		zap.String("name", name),
		zap.Int("trimmed_chars", utf8.RuneCountInString(strings.TrimSpace(res.Text))),
		zap.Int("min_chars", o.minContent),
	)
	start = time.Now()
	ocrRes, err := o.fallback.Extract(ctx, content)
	if err != nil {
		return nil, asExtractionError(models.MethodOCR, err)
	}
	o.logger.Debug("OCR extraction done",
		zap.String("name", name),
		zap.Int("pages", ocrRes.Pages),
		zap.Int("chars", utf8.RuneCountInString(ocrRes.Text)),
		zap.Duration("took", time.Since(start)),
	)
	return &models.ExtractionResult{Text: ocrRes.Text, Method: models.MethodOCR, Pages: ocrRes.Pages}, nil
}

func (o *Orchestrator) belowThreshold(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < o.minContent
}

func primaryMethod(format models.Format) models.Method {
	switch format {
	case models.FormatPDF:
		return models.MethodNative
	case models.FormatStructured:
		return models.MethodStructured
	default:
		return models.MethodPlain
	}
}

func asExtractionError(method models.Method, err error) error {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return err
	}
	return &ExtractionError{Method: method, Err: err}
}
