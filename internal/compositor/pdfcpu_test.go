package compositor

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestStampDescription(t *testing.T) {
	page := PageDim{Width: 612, Height: 792}

	tests := []struct {
		name string
		p    Placement
		want string
	}{
		{
			"top left origin flips vertically",
			Placement{X: 100, Y: 200, Width: 300, Height: 200, Rotation: 0, Opacity: 1},
			"pos:bl, off:100.00 392.00, sc:1 abs, rot:0.00, op:1.00",
		},
		{
			"rotation above half turn maps negative",
			Placement{X: 0, Y: 0, Width: 50, Height: 50, Rotation: 270, Opacity: 0.5},
			"pos:bl, off:0.00 742.00, sc:1 abs, rot:-90.00, op:0.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stampDescription(tt.p, page); got != tt.want {
				t.Errorf("stampDescription() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStampRotation(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{0, 0},
		{45, 45},
		{180, 180},
		{181, -179},
		{270, -90},
		{359, -1},
	}

	for _, tt := range tests {
		if got := stampRotation(tt.input); got != tt.want {
			t.Errorf("stampRotation(%.0f) = %.2f, want %.2f", tt.input, got, tt.want)
		}
	}
}

func TestResampleToBox(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 32))
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	out, err := resampleToBox(buf.Bytes(), 300.4, 199.7)
	if err != nil {
		t.Fatalf("resampleToBox() error = %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 300 || bounds.Dy() != 200 {
		t.Errorf("resampleToBox() dimensions = %dx%d, want 300x200", bounds.Dx(), bounds.Dy())
	}
}

func TestResampleToBoxInvalidData(t *testing.T) {
	if _, err := resampleToBox([]byte("not an image"), 10, 10); err == nil {
		t.Error("resampleToBox() error = nil, want decode error")
	}
}
