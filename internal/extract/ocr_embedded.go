//go:build !cgo

package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// embeddedSource pulls the images embedded in each PDF page. Scanned PDFs carry one image per
// page, which is what OCR needs; without cgo there is no renderer to rasterize vector content.
type embeddedSource struct{}

func newPDFImageSource(_ float64) ImageSource {
	return &embeddedSource{}
}

func (s *embeddedSource) Images(ctx context.Context, content []byte) ([][]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.ExtractImagesRaw(bytes.NewReader(content), nil, conf)
	if err != nil {
		return nil, fmt.Errorf("extract page images: %w", err)
	}
	var images [][]byte
	for _, pageImages := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		objNrs := make([]int, 0, len(pageImages))
		for nr := range pageImages {
			objNrs = append(objNrs, nr)
		}
		sort.Ints(objNrs)
		for _, nr := range objNrs {
			img := pageImages[nr]
			if img.Thumb || img.IsImgMask {
				continue
			}
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("read image %s on page %d: %w", img.Name, img.PageNr, err)
			}
			images = append(images, data)
		}
	}
	return images, nil
}
