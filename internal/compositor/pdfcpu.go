package compositor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"math"
	"strconv"

	"github.com/nfnt/resize"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// pdfCodec stamps images through pdfcpu's watermark machinery. Watermark
// scaling is aspect-preserving, so the raster is resampled to the exact
// placement box first and stamped at absolute scale 1, where one pixel
// maps to one point.
type pdfCodec struct {
	conf *model.Configuration
}

// NewPDFCodec creates the pdfcpu-backed document codec.
func NewPDFCodec() Codec {
	return &pdfCodec{conf: model.NewDefaultConfiguration()}
}

func (c *pdfCodec) PageCount(src []byte) (int, error) {
	return api.PageCount(bytes.NewReader(src), c.conf)
}

func (c *pdfCodec) PageDimensions(src []byte) ([]PageDim, error) {
	dims, err := api.PageDims(bytes.NewReader(src), c.conf)
	if err != nil {
		return nil, err
	}

	out := make([]PageDim, len(dims))
	for i, d := range dims {
		out[i] = PageDim{Width: d.Width, Height: d.Height}
	}
	return out, nil
}

func (c *pdfCodec) Stamp(src []byte, img []byte, p Placement, page PageDim) ([]byte, error) {
	scaled, err := resampleToBox(img, p.Width, p.Height)
	if err != nil {
		return nil, err
	}

	wm, err := api.ImageWatermarkForReader(bytes.NewReader(scaled), stampDescription(p, page), true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build watermark: %w", err)
	}

	var out bytes.Buffer
	pages := []string{strconv.Itoa(p.Page)}
	if err := api.AddWatermarks(bytes.NewReader(src), &out, pages, wm, c.conf); err != nil {
		return nil, fmt.Errorf("apply watermark: %w", err)
	}

	return out.Bytes(), nil
}

// stampDescription positions the stamp from the bottom-left page corner.
// Placements use a top-left origin, so the vertical offset flips against
// the page height.
func stampDescription(p Placement, page PageDim) string {
	offX := p.X
	offY := page.Height - p.Y - p.Height

	return fmt.Sprintf("pos:bl, off:%.2f %.2f, sc:1 abs, rot:%.2f, op:%.2f",
		offX, offY, stampRotation(p.Rotation), p.Opacity)
}

// stampRotation maps a [0, 360) rotation into pdfcpu's [-180, 180] range.
func stampRotation(deg float64) float64 {
	if deg > 180 {
		return deg - 360
	}
	return deg
}

// resampleToBox scales the raster to the placement box, one pixel per
// point, re-encoding as PNG.
func resampleToBox(data []byte, width, height float64) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	w := uint(math.Max(1, math.Round(width)))
	h := uint(math.Max(1, math.Round(height)))
	scaled := resize.Resize(w, h, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return buf.Bytes(), nil
}
