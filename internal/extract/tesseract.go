//go:build cgo

package extract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// gosseractRecognizer runs libtesseract in process. A client is created per image since
// gosseract clients are not safe for concurrent use.
type gosseractRecognizer struct{}

// NewTesseract returns a Recognizer backed by libtesseract.
func NewTesseract() Recognizer {
	return &gosseractRecognizer{}
}

func (r *gosseractRecognizer) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("set language %q: %w", language, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
