package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hyperjump/yomu/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultOCRLanguage is the recognition model used for every document.
	DefaultOCRLanguage = "eng"
	// DefaultOCRDPI is the resolution PDF pages are rendered at before recognition.
	DefaultOCRDPI = 200
)

// Recognizer turns one image into text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, language string) (string, error)
}

// ImageSource derives the images OCR runs against, in page order.
type ImageSource interface {
	Images(ctx context.Context, content []byte) ([][]byte, error)
}

// OCRExtractor recognizes text from an image representation of a document.
type OCRExtractor struct {
	source     ImageSource
	recognizer Recognizer
	language   string
	logger     *zap.Logger
}

// OCROption configures an OCRExtractor.
type OCROption func(*OCRExtractor)

// WithImageSource replaces the default MIME-sniffing image source.
func WithImageSource(s ImageSource) OCROption {
	return func(e *OCRExtractor) { e.source = s }
}

// WithRecognizer replaces the default tesseract recognizer.
func WithRecognizer(r Recognizer) OCROption {
	return func(e *OCRExtractor) { e.recognizer = r }
}

// WithLanguage overrides DefaultOCRLanguage.
func WithLanguage(lang string) OCROption {
	return func(e *OCRExtractor) {
		if lang != "" {
			e.language = lang
		}
	}
}

// WithOCRLogger sets a logger for per-page diagnostics.
func WithOCRLogger(l *zap.Logger) OCROption {
	return func(e *OCRExtractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewOCRExtractor returns an OCRExtractor backed by tesseract. PDF pages are turned into images
// at dpi; images are recognized as they are.
func NewOCRExtractor(dpi float64, opts ...OCROption) *OCRExtractor {
	if dpi <= 0 {
		dpi = DefaultOCRDPI
	}
	e := &OCRExtractor{
		source:     NewImageSource(dpi),
		recognizer: NewTesseract(),
		language:   DefaultOCRLanguage,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract recognizes every image of the document strictly in order and joins the page texts
// with newlines. Any recognition failure is terminal.
func (e *OCRExtractor) Extract(ctx context.Context, content []byte) (*models.ExtractionResult, error) {
	images, err := e.source.Images(ctx, content)
	if err != nil {
		return nil, extractionError(models.MethodOCR, "prepare images: %w", err)
	}
	if len(images) == 0 {
		return nil, extractionError(models.MethodOCR, "no images to recognize")
	}
	pages := make([]string, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, extractionError(models.MethodOCR, "page %d: %w", i+1, err)
		}
		text, err := e.recognizer.Recognize(ctx, img, e.language)
		if err != nil {
			return nil, extractionError(models.MethodOCR, "recognize page %d: %w", i+1, err)
		}
		e.logger.Debug("page recognized", zap.Int("page", i+1), zap.Int("bytes", len(img)), zap.Int("chars", len(text)))
		pages = append(pages, strings.TrimRight(text, "\n"))
	}
	return &models.ExtractionResult{
		Text:   strings.Join(pages, "\n"),
		Method: models.MethodOCR,
		Pages:  len(images),
	}, nil
}

// sniffingSource passes images through untouched and hands PDFs to a page image source.
type sniffingSource struct {
	pdf ImageSource
}

// NewImageSource returns the default ImageSource: image inputs are used directly and PDFs
// are turned into one image per page.
func NewImageSource(dpi float64) ImageSource {
	return &sniffingSource{pdf: newPDFImageSource(dpi)}
}

func (s *sniffingSource) Images(ctx context.Context, content []byte) ([][]byte, error) {
	mt := mimetype.Detect(content)
	switch {
	case strings.HasPrefix(mt.String(), "image/"):
		return [][]byte{content}, nil
	case mt.Is("application/pdf"):
		return s.pdf.Images(ctx, content)
	default:
		return nil, fmt.Errorf("no renderable image in %s input", mt.String())
	}
}
