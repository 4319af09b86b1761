package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/michaelnathaan/pdf-editor-be/internal/config"
	"github.com/michaelnathaan/pdf-editor-be/pkg/pagination"
	"github.com/michaelnathaan/pdf-editor-be/pkg/query"
	"github.com/michaelnathaan/pdf-editor-be/pkg/repository"
	"github.com/google/uuid"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	config     config.SessionsConfig
	pagination pagination.Config
	locks      *lockTable
}

// New creates a session repository backed by the database.
func New(db *sql.DB, logger *slog.Logger, cfg config.SessionsConfig, pg pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "sessions"),
		config:     cfg,
		pagination: pg,
		locks:      newLockTable(),
	}
}

func (r *repo) Lock(id uuid.UUID) func() {
	return r.locks.Acquire(id)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Session, error) {
	ttl, err := r.resolveTTL(cmd.TTL)
	if err != nil {
		return nil, err
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`INSERT INTO edit_sessions(id, document_id, token, state, expires_at, callback_url)
		VALUES($1, $2, $3, $4, $5, $6)
		RETURNING %s`, sessionColumns)

	session, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Session, error) {
		return repository.QueryOne(ctx, tx, q, []any{
			uuid.New(), cmd.DocumentID, token, StateActive, time.Now().UTC().Add(ttl), cmd.CallbackURL,
		}, scanSession)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("session created",
		"id", session.ID,
		"document_id", session.DocumentID,
		"expires_at", session.ExpiresAt,
	)

	return &session, nil
}

func (r *repo) resolveTTL(raw string) (time.Duration, error) {
	if raw == "" {
		return r.config.DefaultTTLDuration(), nil
	}

	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		return 0, ErrInvalidTTL
	}

	if max := r.config.MaxTTLDuration(); ttl > max {
		ttl = max
	}

	return ttl, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		BuildSingle("Id", id)

	session, err := repository.QueryOne(ctx, r.db, q, args, scanSession)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return &session, nil
}

func (r *repo) List(ctx context.Context, documentID uuid.UUID, page pagination.PageRequest) (*pagination.PageResult[Session], error) {
	page.Normalize(r.pagination)

	docID := documentID.String()
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("DocumentId", &docID)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSession)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	for i := range items {
		items[i].Token = ""
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Authorize(ctx context.Context, id uuid.UUID, token string) (*Session, error) {
	session, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !TokenEqual(session.Token, token) {
		return nil, ErrUnauthorized
	}

	if session.ExpiredAt(time.Now()) {
		if err := r.MarkExpired(ctx, session.ID); err != nil {
			return nil, err
		}
		session.State = StateExpired
		return session, ErrExpired
	}

	return session, nil
}

func (r *repo) Guard(s *Session) error {
	switch s.State {
	case StateActive:
		return nil
	case StateExpired:
		return ErrExpired
	case StateCommitted:
		return ErrNotActive
	default:
		return ErrNotActive
	}
}

func (r *repo) Touch(ctx context.Context, id uuid.UUID) error {
	q := `UPDATE edit_sessions SET last_activity_at = NOW() WHERE id = $1`
	err := repository.ExecExpectOne(ctx, r.db, q, id)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (r *repo) MarkCommitted(ctx context.Context, id uuid.UUID, storageKey string, sizeBytes int64) (*Session, error) {
	q := fmt.Sprintf(`UPDATE edit_sessions
		SET state = $1,
			committed_at = NOW(),
			committed_storage_key = $2,
			committed_size_bytes = $3,
			callback_status = CASE WHEN callback_url IS NOT NULL THEN $4 END,
			last_activity_at = NOW()
		WHERE id = $5 AND state = $6
		RETURNING %s`, sessionColumns)

	session, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Session, error) {
		return repository.QueryOne(ctx, tx, q, []any{
			StateCommitted, storageKey, sizeBytes, CallbackPending, id, StateActive,
		}, scanSession)
	})

	if err != nil {
		mapped := repository.MapError(err, ErrNotFound, ErrDuplicate)
		if errors.Is(mapped, ErrNotFound) {
			// Row exists but is no longer active, or is genuinely gone.
			existing, findErr := r.Find(ctx, id)
			if findErr != nil {
				return nil, findErr
			}
			if existing.State == StateCommitted {
				return existing, ErrAlreadyCommitted
			}
			return nil, ErrNotActive
		}
		return nil, mapped
	}

	r.logger.Info("session committed",
		"id", session.ID,
		"storage_key", storageKey,
		"size_bytes", sizeBytes,
	)

	return &session, nil
}

func (r *repo) MarkExpired(ctx context.Context, id uuid.UUID) error {
	q := `UPDATE edit_sessions SET state = $1 WHERE id = $2 AND state = $3`
	if _, err := r.db.ExecContext(ctx, q, StateExpired, id, StateActive); err != nil {
		return fmt.Errorf("expire session: %w", err)
	}

	r.logger.Info("session expired", "id", id)
	return nil
}

func (r *repo) SetCallbackStatus(ctx context.Context, id uuid.UUID, status string) error {
	q := `UPDATE edit_sessions SET callback_status = $1 WHERE id = $2`
	err := repository.ExecExpectOne(ctx, r.db, q, status, id)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	q := `DELETE FROM edit_sessions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *repo) ExpireOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	q := `UPDATE edit_sessions SET state = $1
		WHERE state = $2 AND expires_at < $3
		RETURNING id`

	ids, err := repository.QueryMany(ctx, r.db, q, []any{StateExpired, StateActive, now},
		func(sc repository.Scanner) (uuid.UUID, error) {
			var id uuid.UUID
			err := sc.Scan(&id)
			return id, err
		})
	if err != nil {
		return nil, fmt.Errorf("expire overdue sessions: %w", err)
	}

	return ids, nil
}

func (r *repo) ListReclaimable(ctx context.Context, cutoff time.Time) ([]Session, error) {
	q := fmt.Sprintf(`SELECT %s FROM edit_sessions
		WHERE state IN ($1, $2)
		AND COALESCE(committed_at, expires_at) < $3`, sessionColumns)

	items, err := repository.QueryMany(ctx, r.db, q, []any{StateCommitted, StateExpired, cutoff}, scanSession)
	if err != nil {
		return nil, fmt.Errorf("list reclaimable sessions: %w", err)
	}

	return items, nil
}
