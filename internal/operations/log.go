package operations

import "github.com/google/uuid"

// Pure log semantics over a session's full operation slice, ordered by
// ascending sequence. These functions never mutate their input; callers
// apply the returned decisions transactionally.

// Active returns the ordered non-tombstoned subsequence.
func Active(log []Operation) []Operation {
	var active []Operation
	for _, op := range log {
		if !op.Tombstoned {
			active = append(active, op)
		}
	}
	return active
}

// NextSequence returns the sequence number the next append should take:
// one past the highest sequence among the records that survive the append.
// Discarded branches free their positions, but cascade tombstones are
// never discarded and keep theirs.
func NextSequence(log []Operation) int64 {
	var max int64
	for _, op := range log {
		if op.Tombstoned && op.Redoable {
			continue
		}
		if op.Sequence > max {
			max = op.Sequence
		}
	}
	return max + 1
}

// UndoTarget returns the operation an undo would tombstone: the highest
// sequenced active operation.
func UndoTarget(log []Operation) (*Operation, error) {
	var target *Operation
	for i := range log {
		if log[i].Tombstoned {
			continue
		}
		if target == nil || log[i].Sequence > target.Sequence {
			target = &log[i]
		}
	}
	if target == nil {
		return nil, ErrNothingToUndo
	}
	return target, nil
}

// RedoTarget returns the operation a redo would restore: the lowest
// sequenced redoable tombstone above the active tail. Tombstones produced
// by cascade removal are never redoable, and a redoable tombstone below
// the active tail has been superseded.
func RedoTarget(log []Operation) (*Operation, error) {
	var maxActive int64
	for _, op := range log {
		if !op.Tombstoned && op.Sequence > maxActive {
			maxActive = op.Sequence
		}
	}

	var target *Operation
	for i := range log {
		op := &log[i]
		if !op.Tombstoned || !op.Redoable || op.Sequence <= maxActive {
			continue
		}
		if target == nil || op.Sequence < target.Sequence {
			target = op
		}
	}
	if target == nil {
		return nil, ErrNothingToRedo
	}
	return target, nil
}

// DiscardSet returns the ids of undo tombstones an append permanently
// discards. Appending abandons the undone branch; cascade tombstones are
// not part of that branch and survive.
func DiscardSet(log []Operation) []uuid.UUID {
	var ids []uuid.UUID
	for _, op := range log {
		if op.Tombstoned && op.Redoable {
			ids = append(ids, op.ID)
		}
	}
	return ids
}

// InvalidationSet returns the ids of redoable tombstones cleared by a
// structural edit at the given sequence. Any edit other than append or
// undo invalidates pending redo beyond the edited point.
func InvalidationSet(log []Operation, editedSequence int64) []uuid.UUID {
	var ids []uuid.UUID
	for _, op := range log {
		if op.Tombstoned && op.Redoable && op.Sequence > editedSequence {
			ids = append(ids, op.ID)
		}
	}
	return ids
}

// CascadeSet returns the active operations referencing imageID, in
// sequence order. Deleting the asset tombstones all of them atomically.
func CascadeSet(log []Operation, imageID uuid.UUID) []Operation {
	var affected []Operation
	for _, op := range log {
		if !op.Tombstoned && op.Payload.ImageID == imageID {
			affected = append(affected, op)
		}
	}
	return affected
}

// HasActivePlacement reports whether the active sequence contains an add
// for imageID on page that is not later deleted. Transforms appended
// without one would never render.
func HasActivePlacement(log []Operation, imageID uuid.UUID, page int) bool {
	placed := false
	for _, op := range log {
		if op.Tombstoned || op.Page != page || op.Payload.ImageID != imageID {
			continue
		}
		switch op.Kind {
		case KindAddImage:
			placed = true
		case KindDeleteImage:
			placed = false
		}
	}
	return placed
}
