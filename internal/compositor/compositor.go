// Package compositor renders a session's active operation sequence onto
// the source document. Rendering is a full replay from the original bytes
// every time, never an incremental patch of a previous render, so equal
// active sequences always produce equal output.
package compositor

import (
	"context"
	"fmt"

	"github.com/michaelnathaan/pdf-editor-be/internal/operations"
	"github.com/google/uuid"
)

// Compositor replays active operations through a document codec.
type Compositor struct {
	codec Codec
}

// New creates a compositor over the given codec.
func New(codec Codec) *Compositor {
	return &Compositor{codec: codec}
}

// placementKey addresses one placed image: transforms target the placement
// created by the add of the same image on the same page.
type placementKey struct {
	page    int
	imageID uuid.UUID
}

// Replay folds an active operation sequence, in sequence order, into the
// final set of placements. Adds create a placement, transforms mutate it
// cumulatively with later values overriding earlier ones per attribute,
// and deletes remove it entirely, including an add and delete within the
// same sequence. Transforms without a live placement are skipped; they
// cannot render anything.
//
// The returned slice preserves per-page insertion order, so stacking
// order on a page follows add order.
func Replay(active []operations.Operation) []Placement {
	placements := make(map[placementKey]*Placement)
	var order []placementKey

	for _, op := range active {
		key := placementKey{page: op.Page, imageID: op.Payload.ImageID}
		current := placements[key]

		switch op.Kind {
		case operations.KindAddImage:
			p := &Placement{
				ImageID:  op.Payload.ImageID,
				Page:     op.Page,
				X:        *op.Payload.X,
				Y:        *op.Payload.Y,
				Width:    *op.Payload.Width,
				Height:   *op.Payload.Height,
				Rotation: *op.Payload.Rotation,
				Opacity:  *op.Payload.Opacity,
			}
			if current == nil {
				order = append(order, key)
			}
			placements[key] = p

		case operations.KindMoveImage:
			if current == nil {
				continue
			}
			current.X = *op.Payload.X
			current.Y = *op.Payload.Y

		case operations.KindResizeImage:
			if current == nil {
				continue
			}
			current.Width = *op.Payload.Width
			current.Height = *op.Payload.Height

		case operations.KindRotateImage:
			if current == nil {
				continue
			}
			current.Rotation = *op.Payload.Rotation

		case operations.KindDeleteImage:
			if current == nil {
				continue
			}
			delete(placements, key)
			order = removeKey(order, key)
		}
	}

	result := make([]Placement, 0, len(order))
	for _, key := range order {
		result = append(result, *placements[key])
	}
	return result
}

func removeKey(order []placementKey, key placementKey) []placementKey {
	for i, k := range order {
		if k == key {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// Render replays the active sequence onto the source document and returns
// the rendered bytes. The asset lookup is re-checked here even though the
// cascade invariant should prevent dangling references.
func (c *Compositor) Render(ctx context.Context, source []byte, active []operations.Operation, resolve AssetResolver) ([]byte, error) {
	dims, err := c.codec.PageDimensions(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	placements := Replay(active)
	if len(placements) == 0 {
		return source, nil
	}

	out := source
	for _, p := range placements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if p.Page < 1 || p.Page > len(dims) {
			return nil, fmt.Errorf("%w: page %d of %d", ErrInvalidPage, p.Page, len(dims))
		}

		image, err := resolve(ctx, p.ImageID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrAssetMissing, p.ImageID)
		}

		out, err = c.codec.Stamp(out, image, p, dims[p.Page-1])
		if err != nil {
			return nil, fmt.Errorf("%w: page %d image %s: %v", ErrRenderFailed, p.Page, p.ImageID, err)
		}
	}

	return out, nil
}
