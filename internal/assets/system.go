package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/michaelnathaan/pdf-editor-be/internal/operations"
	"github.com/michaelnathaan/pdf-editor-be/internal/sessions"
	"github.com/michaelnathaan/pdf-editor-be/internal/storage"
	"github.com/michaelnathaan/pdf-editor-be/pkg/repository"
	"github.com/google/uuid"
)

// System defines image asset operations for edit sessions.
//
// Delete enforces referential integrity with the operation log: an asset
// still referenced by the active sequence is only removable with force,
// which tombstones every referencing operation atomically first.
type System interface {
	Upload(ctx context.Context, session *sessions.Session, cmd UploadCommand) (*Image, error)
	List(ctx context.Context, sessionID uuid.UUID) ([]Image, error)
	Find(ctx context.Context, sessionID, imageID uuid.UUID) (*Image, error)
	Content(ctx context.Context, sessionID, imageID uuid.UUID) (*Image, []byte, error)
	Exists(ctx context.Context, sessionID, imageID uuid.UUID) (bool, error)
	Delete(ctx context.Context, session *sessions.Session, imageID uuid.UUID, force bool) ([]operations.Operation, error)
}

type system struct {
	db       *sql.DB
	storage  storage.System
	sessions sessions.System
	ops      operations.System
	logger   *slog.Logger
	maxSize  int64
}

// New creates the image asset system. maxSize bounds the raw upload in bytes.
func New(db *sql.DB, store storage.System, sess sessions.System, ops operations.System, logger *slog.Logger, maxSize int64) System {
	return &system{
		db:       db,
		storage:  store,
		sessions: sess,
		ops:      ops,
		logger:   logger.With("system", "assets"),
		maxSize:  maxSize,
	}
}

func (s *system) Upload(ctx context.Context, session *sessions.Session, cmd UploadCommand) (*Image, error) {
	if err := s.sessions.Guard(session); err != nil {
		return nil, err
	}

	if int64(len(cmd.Data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	contentType, err := CanonicalContentType(cmd.Data)
	if err != nil {
		return nil, err
	}

	data, width, height, err := Optimize(cmd.Data)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	storageKey := buildStorageKey(session.ID, id, contentType)

	if err := s.storage.Store(ctx, storageKey, data); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	q := fmt.Sprintf(`INSERT INTO session_images(id, session_id, filename, content_type, size_bytes, width, height, storage_key)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, imageColumns)

	img, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Image, error) {
		return repository.QueryOne(ctx, tx, q, []any{
			id, session.ID, cmd.Filename, contentType, int64(len(data)), width, height, storageKey,
		}, scanImage)
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, storageKey); delErr != nil {
			s.logger.Error("cleanup failed after db error", "storage_key", storageKey, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	s.logger.Info("image uploaded",
		"session_id", session.ID,
		"image_id", img.ID,
		"dimensions", fmt.Sprintf("%dx%d", width, height),
	)

	return &img, nil
}

func (s *system) List(ctx context.Context, sessionID uuid.UUID) ([]Image, error) {
	q := fmt.Sprintf(`SELECT %s FROM session_images WHERE session_id = $1 ORDER BY created_at ASC`, imageColumns)

	images, err := repository.QueryMany(ctx, s.db, q, []any{sessionID}, scanImage)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	return images, nil
}

func (s *system) Find(ctx context.Context, sessionID, imageID uuid.UUID) (*Image, error) {
	q := fmt.Sprintf(`SELECT %s FROM session_images WHERE session_id = $1 AND id = $2`, imageColumns)

	img, err := repository.QueryOne(ctx, s.db, q, []any{sessionID, imageID}, scanImage)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &img, nil
}

func (s *system) Content(ctx context.Context, sessionID, imageID uuid.UUID) (*Image, []byte, error) {
	img, err := s.Find(ctx, sessionID, imageID)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.storage.Retrieve(ctx, img.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("retrieve image: %w", err)
	}

	return img, data, nil
}

func (s *system) Exists(ctx context.Context, sessionID, imageID uuid.UUID) (bool, error) {
	return NewChecker(s.db).Exists(ctx, sessionID, imageID)
}

func (s *system) Delete(ctx context.Context, session *sessions.Session, imageID uuid.UUID, force bool) ([]operations.Operation, error) {
	unlock := s.sessions.Lock(session.ID)
	defer unlock()

	// Re-read under the lock; a concurrent commit may have finished
	// while this caller waited.
	session, err := s.sessions.Find(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Guard(session); err != nil {
		return nil, err
	}

	img, err := s.Find(ctx, session.ID, imageID)
	if err != nil {
		return nil, err
	}

	active, err := s.ops.ListActive(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	referenced := len(operations.CascadeSet(active, imageID)) > 0

	var affected []operations.Operation
	if referenced {
		if !force {
			return nil, ErrInUse
		}
		affected, err = s.ops.CascadeDelete(ctx, session, imageID)
		if err != nil {
			return nil, err
		}
	}

	q := `DELETE FROM session_images WHERE session_id = $1 AND id = $2`
	_, err = repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q, session.ID, imageID)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if err := s.storage.Delete(ctx, img.StorageKey); err != nil {
		s.logger.Error("storage cleanup failed", "storage_key", img.StorageKey, "error", err)
	}

	s.logger.Info("image deleted",
		"session_id", session.ID,
		"image_id", imageID,
		"cascaded", len(affected),
	)

	return affected, nil
}

func buildStorageKey(sessionID, imageID uuid.UUID, contentType string) string {
	ext := ".png"
	if contentType == "image/jpeg" {
		ext = ".jpg"
	}
	return path.Join("sessions", sessionID.String(), "images", imageID.String()+ext)
}
