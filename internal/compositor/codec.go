package compositor

import (
	"context"

	"github.com/google/uuid"
)

// Placement is one resolved image placement on a page, in page coordinate
// units with a top-left origin. It is the net result of an add and every
// later transform of the same image on the same page.
type Placement struct {
	ImageID  uuid.UUID
	Page     int
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Rotation float64
	Opacity  float64
}

// PageDim holds a page's media box dimensions in points.
type PageDim struct {
	Width  float64
	Height float64
}

// AssetResolver returns the raw bytes of an image asset.
type AssetResolver func(ctx context.Context, imageID uuid.UUID) ([]byte, error)

// Codec is the document-format capability the compositor renders through.
// Implementations stamp raster images onto pages of an existing document
// without otherwise altering it.
type Codec interface {
	// PageCount parses the document and returns its page count.
	PageCount(src []byte) (int, error)

	// PageDimensions returns the media box of every page in order.
	PageDimensions(src []byte) ([]PageDim, error)

	// Stamp composites image bytes onto one page and returns the new
	// document. The placement uses top-left origin page coordinates;
	// the codec handles any coordinate system conversion.
	Stamp(src []byte, image []byte, p Placement, page PageDim) ([]byte, error)
}
