package operations_test

import (
	"errors"
	"math"
	"testing"

	"github.com/michaelnathaan/pdf-editor-be/internal/operations"
	"github.com/google/uuid"
)

func f(v float64) *float64 { return &v }

func addCommand(imageID uuid.UUID, page int) operations.AppendCommand {
	return operations.AppendCommand{
		Kind: operations.KindAddImage,
		Page: page,
		Payload: operations.Payload{
			ImageID: imageID,
			X:       f(100),
			Y:       f(200),
			Width:   f(300),
			Height:  f(200),
		},
	}
}

func TestValidateAppend(t *testing.T) {
	img := uuid.New()

	tests := []struct {
		name      string
		cmd       operations.AppendCommand
		pageCount int
		wantErr   error
	}{
		{"valid add", addCommand(img, 1), 1, nil},
		{
			"unknown kind",
			operations.AppendCommand{Kind: "paint_image", Page: 1, Payload: operations.Payload{ImageID: img}},
			1, operations.ErrInvalidPayload,
		},
		{"page zero", addCommand(img, 0), 1, operations.ErrInvalidPage},
		{"page beyond document", addCommand(img, 3), 2, operations.ErrInvalidPage},
		{
			"missing image id",
			operations.AppendCommand{Kind: operations.KindDeleteImage, Page: 1},
			1, operations.ErrInvalidPayload,
		},
		{
			"add without position",
			operations.AppendCommand{
				Kind:    operations.KindAddImage,
				Page:    1,
				Payload: operations.Payload{ImageID: img, Width: f(10), Height: f(10)},
			},
			1, operations.ErrInvalidPayload,
		},
		{
			"negative width",
			operations.AppendCommand{
				Kind:    operations.KindResizeImage,
				Page:    1,
				Payload: operations.Payload{ImageID: img, Width: f(-5), Height: f(10)},
			},
			1, operations.ErrInvalidPayload,
		},
		{
			"move without coordinates",
			operations.AppendCommand{
				Kind:    operations.KindMoveImage,
				Page:    1,
				Payload: operations.Payload{ImageID: img},
			},
			1, operations.ErrInvalidPayload,
		},
		{
			"rotate without rotation",
			operations.AppendCommand{
				Kind:    operations.KindRotateImage,
				Page:    1,
				Payload: operations.Payload{ImageID: img},
			},
			1, operations.ErrInvalidPayload,
		},
		{
			"opacity above one",
			func() operations.AppendCommand {
				cmd := addCommand(img, 1)
				cmd.Payload.Opacity = f(1.5)
				return cmd
			}(),
			1, operations.ErrInvalidPayload,
		},
		{
			"negative opacity",
			func() operations.AppendCommand {
				cmd := addCommand(img, 1)
				cmd.Payload.Opacity = f(-0.1)
				return cmd
			}(),
			1, operations.ErrInvalidPayload,
		},
		{
			"NaN opacity",
			func() operations.AppendCommand {
				cmd := addCommand(img, 1)
				cmd.Payload.Opacity = f(math.NaN())
				return cmd
			}(),
			1, operations.ErrInvalidPayload,
		},
		{
			"infinite rotation",
			func() operations.AppendCommand {
				cmd := addCommand(img, 1)
				cmd.Payload.Rotation = f(math.Inf(1))
				return cmd
			}(),
			1, operations.ErrInvalidPayload,
		},
		{
			"NaN coordinate",
			func() operations.AppendCommand {
				cmd := addCommand(img, 1)
				cmd.Payload.X = f(math.NaN())
				return cmd
			}(),
			1, operations.ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := operations.ValidateAppend(&tt.cmd, tt.pageCount)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ValidateAppend() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("ValidateAppend() error = %v, want nil", err)
			}
		})
	}
}

func TestValidateAppendDefaults(t *testing.T) {
	cmd := addCommand(uuid.New(), 1)

	if err := operations.ValidateAppend(&cmd, 1); err != nil {
		t.Fatalf("ValidateAppend() error = %v", err)
	}

	if cmd.Payload.Rotation == nil || *cmd.Payload.Rotation != 0 {
		t.Errorf("add rotation default = %v, want 0", cmd.Payload.Rotation)
	}
	if cmd.Payload.Opacity == nil || *cmd.Payload.Opacity != 1 {
		t.Errorf("add opacity default = %v, want 1", cmd.Payload.Opacity)
	}
}

func TestValidateAppendNormalizesRotation(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"in range", 45, 45},
		{"full turn", 360, 0},
		{"beyond full turn", 405, 45},
		{"negative", -90, 270},
		{"large negative", -720, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := operations.AppendCommand{
				Kind:    operations.KindRotateImage,
				Page:    1,
				Payload: operations.Payload{ImageID: uuid.New(), Rotation: f(tt.input)},
			}

			if err := operations.ValidateAppend(&cmd, 1); err != nil {
				t.Fatalf("ValidateAppend() error = %v", err)
			}
			if *cmd.Payload.Rotation != tt.want {
				t.Errorf("rotation normalized to %.2f, want %.2f", *cmd.Payload.Rotation, tt.want)
			}
		})
	}
}
