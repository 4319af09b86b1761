package operations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/michaelnathaan/pdf-editor-be/internal/documents"
	"github.com/michaelnathaan/pdf-editor-be/internal/sessions"
	"github.com/michaelnathaan/pdf-editor-be/pkg/repository"
	"github.com/google/uuid"
)

// AssetChecker reports whether a session-scoped image asset exists.
type AssetChecker interface {
	Exists(ctx context.Context, sessionID, imageID uuid.UUID) (bool, error)
}

// System defines the operation log contract. All mutations serialize on
// the session's lock and require an active session.
type System interface {
	Append(ctx context.Context, session *sessions.Session, cmd AppendCommand) (*Operation, error)
	List(ctx context.Context, sessionID uuid.UUID) ([]Operation, error)
	ListActive(ctx context.Context, sessionID uuid.UUID) ([]Operation, error)
	Undo(ctx context.Context, session *sessions.Session) (*Operation, error)
	Redo(ctx context.Context, session *sessions.Session) (*Operation, error)
	Delete(ctx context.Context, session *sessions.Session, operationID uuid.UUID) error
	Clear(ctx context.Context, session *sessions.Session) error

	// CascadeDelete tombstones every active operation referencing
	// imageID and invalidates pending redo, returning the affected
	// operations in sequence order. The caller holds the session lock;
	// asset deletion acquires it before cascading.
	CascadeDelete(ctx context.Context, session *sessions.Session, imageID uuid.UUID) ([]Operation, error)
}

type system struct {
	db       *sql.DB
	sessions sessions.System
	docs     documents.System
	assets   AssetChecker
	logger   *slog.Logger
}

// New creates the operation log system.
func New(db *sql.DB, sess sessions.System, docs documents.System, assets AssetChecker, logger *slog.Logger) System {
	return &system{
		db:       db,
		sessions: sess,
		docs:     docs,
		assets:   assets,
		logger:   logger.With("system", "operations"),
	}
}

func (s *system) Append(ctx context.Context, session *sessions.Session, cmd AppendCommand) (*Operation, error) {
	unlock := s.sessions.Lock(session.ID)
	defer unlock()

	session, err := s.reguard(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	doc, err := s.docs.Find(ctx, session.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("resolve document: %w", err)
	}

	if err := ValidateAppend(&cmd, doc.PageCount); err != nil {
		return nil, err
	}

	exists, err := s.assets.Exists(ctx, session.ID, cmd.Payload.ImageID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrImageNotFound
	}

	op, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Operation, error) {
		log, err := loadLog(ctx, tx, session.ID)
		if err != nil {
			return Operation{}, err
		}

		if cmd.Kind != KindAddImage && !HasActivePlacement(log, cmd.Payload.ImageID, cmd.Page) {
			return Operation{}, ErrNoPlacement
		}

		// Appending abandons the undone branch before its sequence
		// positions are reclaimed.
		if err := deleteByIDs(ctx, tx, session.ID, DiscardSet(log)); err != nil {
			return Operation{}, err
		}

		return insertOperation(ctx, tx, newOperation(session.ID, NextSequence(log), cmd))
	})
	if err != nil {
		return nil, err
	}

	s.touch(ctx, session.ID)
	s.logger.Info("operation appended",
		"session_id", session.ID,
		"sequence", op.Sequence,
		"kind", op.Kind,
		"page", op.Page,
	)

	return &op, nil
}

func (s *system) List(ctx context.Context, sessionID uuid.UUID) ([]Operation, error) {
	return loadLog(ctx, s.db, sessionID)
}

func (s *system) ListActive(ctx context.Context, sessionID uuid.UUID) ([]Operation, error) {
	log, err := loadLog(ctx, s.db, sessionID)
	if err != nil {
		return nil, err
	}
	return Active(log), nil
}

func (s *system) Undo(ctx context.Context, session *sessions.Session) (*Operation, error) {
	unlock := s.sessions.Lock(session.ID)
	defer unlock()

	if _, err := s.reguard(ctx, session.ID); err != nil {
		return nil, err
	}

	op, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Operation, error) {
		log, err := loadLog(ctx, tx, session.ID)
		if err != nil {
			return Operation{}, err
		}

		target, err := UndoTarget(log)
		if err != nil {
			return Operation{}, err
		}

		if err := setTombstoned(ctx, tx, session.ID, []uuid.UUID{target.ID}, true, true); err != nil {
			return Operation{}, err
		}

		undone := *target
		undone.Tombstoned = true
		undone.Redoable = true
		return undone, nil
	})
	if err != nil {
		return nil, err
	}

	s.touch(ctx, session.ID)
	s.logger.Info("operation undone", "session_id", session.ID, "sequence", op.Sequence)
	return &op, nil
}

func (s *system) Redo(ctx context.Context, session *sessions.Session) (*Operation, error) {
	unlock := s.sessions.Lock(session.ID)
	defer unlock()

	if _, err := s.reguard(ctx, session.ID); err != nil {
		return nil, err
	}

	op, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Operation, error) {
		log, err := loadLog(ctx, tx, session.ID)
		if err != nil {
			return Operation{}, err
		}

		target, err := RedoTarget(log)
		if err != nil {
			return Operation{}, err
		}

		if err := setTombstoned(ctx, tx, session.ID, []uuid.UUID{target.ID}, false, false); err != nil {
			return Operation{}, err
		}

		restored := *target
		restored.Tombstoned = false
		restored.Redoable = false
		return restored, nil
	})
	if err != nil {
		return nil, err
	}

	s.touch(ctx, session.ID)
	s.logger.Info("operation redone", "session_id", session.ID, "sequence", op.Sequence)
	return &op, nil
}

func (s *system) Delete(ctx context.Context, session *sessions.Session, operationID uuid.UUID) error {
	unlock := s.sessions.Lock(session.ID)
	defer unlock()

	if _, err := s.reguard(ctx, session.ID); err != nil {
		return err
	}

	_, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		log, err := loadLog(ctx, tx, session.ID)
		if err != nil {
			return struct{}{}, err
		}

		var target *Operation
		for i := range log {
			if log[i].ID == operationID {
				target = &log[i]
				break
			}
		}
		if target == nil {
			return struct{}{}, ErrNotFound
		}

		// Structural edits other than append and undo invalidate
		// pending redo beyond the edited point.
		doomed := append(InvalidationSet(log, target.Sequence), target.ID)
		return struct{}{}, deleteByIDs(ctx, tx, session.ID, doomed)
	})
	if err != nil {
		return err
	}

	s.touch(ctx, session.ID)
	s.logger.Info("operation deleted", "session_id", session.ID, "operation_id", operationID)
	return nil
}

func (s *system) Clear(ctx context.Context, session *sessions.Session) error {
	unlock := s.sessions.Lock(session.ID)
	defer unlock()

	if _, err := s.reguard(ctx, session.ID); err != nil {
		return err
	}

	if err := deleteAll(ctx, s.db, session.ID); err != nil {
		return err
	}

	s.touch(ctx, session.ID)
	s.logger.Info("operation log cleared", "session_id", session.ID)
	return nil
}

func (s *system) CascadeDelete(ctx context.Context, session *sessions.Session, imageID uuid.UUID) ([]Operation, error) {
	if err := s.sessions.Guard(session); err != nil {
		return nil, err
	}

	affected, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) ([]Operation, error) {
		log, err := loadLog(ctx, tx, session.ID)
		if err != nil {
			return nil, err
		}

		cascade := CascadeSet(log, imageID)
		ids := make([]uuid.UUID, len(cascade))
		for i, op := range cascade {
			ids[i] = op.ID
		}

		// Cascade tombstones are permanent and, as a structural edit,
		// clear any pending redo entirely.
		if err := setTombstoned(ctx, tx, session.ID, ids, true, false); err != nil {
			return nil, err
		}
		if err := deleteByIDs(ctx, tx, session.ID, DiscardSet(log)); err != nil {
			return nil, err
		}

		for i := range cascade {
			cascade[i].Tombstoned = true
			cascade[i].Redoable = false
		}
		return cascade, nil
	})
	if err != nil {
		return nil, err
	}

	s.touch(ctx, session.ID)
	s.logger.Info("asset cascade removed operations",
		"session_id", session.ID,
		"image_id", imageID,
		"affected", len(affected),
	)

	return affected, nil
}

// reguard re-reads the session under the held lock and enforces the
// active state. The snapshot taken at authorization may predate a commit
// or expiry that finished while this caller waited on the lock.
func (s *system) reguard(ctx context.Context, id uuid.UUID) (*sessions.Session, error) {
	session, err := s.sessions.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Guard(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *system) touch(ctx context.Context, id uuid.UUID) {
	if err := s.sessions.Touch(ctx, id); err != nil {
		s.logger.Error("touch session failed", "session_id", id, "error", err)
	}
}
