//go:build cgo

package extract

import (
	"context"
	"fmt"

	fitz "github.com/gen2brain/go-fitz"
)

// fitzSource renders every PDF page to PNG with MuPDF.
type fitzSource struct {
	dpi float64
}

func newPDFImageSource(dpi float64) ImageSource {
	return &fitzSource{dpi: dpi}
}

func (s *fitzSource) Images(ctx context.Context, content []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer doc.Close()

	images := make([][]byte, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		png, err := doc.ImagePNG(i, s.dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		images = append(images, png)
	}
	return images, nil
}
