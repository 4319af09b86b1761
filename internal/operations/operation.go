// Package operations implements the per-session edit operation log:
// ordered append with dense sequence numbers, linear undo/redo via
// tombstones, branch discard on append after undo, explicit deletion,
// and cascading tombstones when a referenced image asset is removed.
//
// The active sequence, the ordered non-tombstoned subset, is the sole
// input to rendering.
package operations

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the type of an edit operation.
type Kind string

const (
	KindAddImage    Kind = "add_image"
	KindMoveImage   Kind = "move_image"
	KindResizeImage Kind = "resize_image"
	KindRotateImage Kind = "rotate_image"
	KindDeleteImage Kind = "delete_image"
)

// Valid reports whether k is a recognized operation kind.
func (k Kind) Valid() bool {
	switch k {
	case KindAddImage, KindMoveImage, KindResizeImage, KindRotateImage, KindDeleteImage:
		return true
	}
	return false
}

// Payload carries the kind-specific parameters of an operation. Fields not
// applicable to a kind are nil. Placements are addressed by image id and
// page; transforms mutate the placement created by a prior add on the same
// page.
type Payload struct {
	ImageID  uuid.UUID `json:"image_id"`
	X        *float64  `json:"x,omitempty"`
	Y        *float64  `json:"y,omitempty"`
	Width    *float64  `json:"width,omitempty"`
	Height   *float64  `json:"height,omitempty"`
	Rotation *float64  `json:"rotation,omitempty"`
	Opacity  *float64  `json:"opacity,omitempty"`
}

// Operation is one recorded edit action in a session's log.
//
// Tombstoned marks an operation excluded from the active sequence.
// Redoable distinguishes undo tombstones, which redo may restore, from
// permanent tombstones produced by asset cascade removal.
type Operation struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	Sequence   int64     `json:"sequence"`
	Kind       Kind      `json:"kind"`
	Page       int       `json:"page"`
	Payload    Payload   `json:"payload"`
	Tombstoned bool      `json:"tombstoned"`
	Redoable   bool      `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// AppendCommand contains the data required to append an operation.
type AppendCommand struct {
	Kind    Kind    `json:"kind"`
	Page    int     `json:"page"`
	Payload Payload `json:"payload"`
}

func marshalPayload(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

func unmarshalPayload(data []byte) (Payload, error) {
	var p Payload
	err := json.Unmarshal(data, &p)
	return p, err
}
