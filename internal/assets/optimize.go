package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
)

// maxDimension bounds the pixel width and height of a stored asset.
// Placements resample again at render time, so storing more resolution
// than this only inflates session storage.
const maxDimension = 4096

// jpegQuality applies when a downscaled JPEG is re-encoded.
const jpegQuality = 90

// Optimize decodes an uploaded image, downscales it when either dimension
// exceeds maxDimension, and returns the bytes to store with the final
// pixel dimensions. PNG and JPEG are supported.
func Optimize(data []byte) ([]byte, int, int, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	switch format {
	case "png", "jpeg":
	default:
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width <= maxDimension && height <= maxDimension {
		return data, width, height, nil
	}

	scaled := resize.Thumbnail(maxDimension, maxDimension, img, resize.Lanczos3)
	sb := scaled.Bounds()

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, scaled)
	case "jpeg":
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("re-encode image: %w", err)
	}

	return buf.Bytes(), sb.Dx(), sb.Dy(), nil
}

// CanonicalContentType maps a decoded format to the content type recorded
// for the asset, ignoring whatever the client claimed.
func CanonicalContentType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	switch format {
	case "png":
		return "image/png", nil
	case "jpeg":
		return "image/jpeg", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}
}
