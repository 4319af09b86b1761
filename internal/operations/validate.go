package operations

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// ValidateAppend checks an append command against the document's page count
// and normalizes the payload in place: rotation is wrapped to [0, 360) and
// add defaults rotation to 0 and opacity to 1 when omitted. Validation
// failures never enter the log.
func ValidateAppend(cmd *AppendCommand, pageCount int) error {
	if !cmd.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPayload, cmd.Kind)
	}

	if cmd.Page < 1 || cmd.Page > pageCount {
		return fmt.Errorf("%w: page %d of %d", ErrInvalidPage, cmd.Page, pageCount)
	}

	if cmd.Payload.ImageID == uuid.Nil {
		return fmt.Errorf("%w: image_id is required", ErrInvalidPayload)
	}

	p := &cmd.Payload

	for _, v := range []*float64{p.X, p.Y, p.Width, p.Height, p.Rotation, p.Opacity} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%w: values must be finite", ErrInvalidPayload)
		}
	}

	switch cmd.Kind {
	case KindAddImage:
		if p.X == nil || p.Y == nil {
			return fmt.Errorf("%w: add_image requires x and y", ErrInvalidPayload)
		}
		if err := validateDimensions(p, true); err != nil {
			return err
		}
		if p.Rotation == nil {
			p.Rotation = ptr(0.0)
		}
		if p.Opacity == nil {
			p.Opacity = ptr(1.0)
		}

	case KindMoveImage:
		if p.X == nil || p.Y == nil {
			return fmt.Errorf("%w: move_image requires x and y", ErrInvalidPayload)
		}

	case KindResizeImage:
		if err := validateDimensions(p, true); err != nil {
			return err
		}

	case KindRotateImage:
		if p.Rotation == nil {
			return fmt.Errorf("%w: rotate_image requires rotation", ErrInvalidPayload)
		}

	case KindDeleteImage:
		// image_id and page suffice
	}

	if p.Rotation != nil {
		*p.Rotation = normalizeRotation(*p.Rotation)
	}

	if p.Opacity != nil && (*p.Opacity < 0 || *p.Opacity > 1) {
		return fmt.Errorf("%w: opacity %.3f outside [0, 1]", ErrInvalidPayload, *p.Opacity)
	}

	return nil
}

func validateDimensions(p *Payload, required bool) error {
	if p.Width == nil || p.Height == nil {
		if required {
			return fmt.Errorf("%w: width and height are required", ErrInvalidPayload)
		}
		return nil
	}
	if *p.Width <= 0 || *p.Height <= 0 {
		return fmt.Errorf("%w: width and height must be positive", ErrInvalidPayload)
	}
	return nil
}

func normalizeRotation(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	return m
}

func ptr[T any](v T) *T {
	return &v
}
