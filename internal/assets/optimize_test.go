package assets_test

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/michaelnathaan/pdf-editor-be/internal/assets"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestOptimizeKeepsSmallImages(t *testing.T) {
	data := encodePNG(t, 640, 480)

	out, width, height, err := assets.Optimize(data)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if width != 640 || height != 480 {
		t.Errorf("Optimize() dimensions = %dx%d, want 640x480", width, height)
	}
	if !bytes.Equal(out, data) {
		t.Error("Optimize() re-encoded an image already within bounds")
	}
}

func TestOptimizeDownscalesOversized(t *testing.T) {
	data := encodePNG(t, 8192, 1024)

	out, width, height, err := assets.Optimize(data)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if width != 4096 || height != 512 {
		t.Errorf("Optimize() dimensions = %dx%d, want 4096x512 preserving aspect", width, height)
	}

	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded.Bounds().Dx() != width || decoded.Bounds().Dy() != height {
		t.Error("Optimize() reported dimensions differ from encoded output")
	}
}

func TestOptimizeJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 320, 240)), nil); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	_, width, height, err := assets.Optimize(buf.Bytes())
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if width != 320 || height != 240 {
		t.Errorf("Optimize() dimensions = %dx%d, want 320x240", width, height)
	}
}

func TestOptimizeRejectsGarbage(t *testing.T) {
	if _, _, _, err := assets.Optimize([]byte("not an image")); !errors.Is(err, assets.ErrInvalidImage) {
		t.Errorf("Optimize() error = %v, want ErrInvalidImage", err)
	}
}

func TestCanonicalContentType(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr error
	}{
		{"png", encodePNG(t, 2, 2), "image/png", nil},
		{"garbage", []byte("nope"), "", assets.ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := assets.CanonicalContentType(tt.data)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CanonicalContentType() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("CanonicalContentType() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanonicalContentType() = %q, want %q", got, tt.want)
			}
		})
	}
}
