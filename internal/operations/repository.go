package operations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/michaelnathaan/pdf-editor-be/pkg/repository"
	"github.com/google/uuid"
)

// SQL application of log decisions. Every mutation runs against a Querier
// so callers can compose them inside one transaction under the session lock.

func loadLog(ctx context.Context, q repository.Querier, sessionID uuid.UUID) ([]Operation, error) {
	query := fmt.Sprintf(`SELECT %s FROM edit_operations
		WHERE session_id = $1
		ORDER BY sequence ASC`, operationColumns)

	log, err := repository.QueryMany(ctx, q, query, []any{sessionID}, scanOperation)
	if err != nil {
		return nil, fmt.Errorf("load operation log: %w", err)
	}
	return log, nil
}

func insertOperation(ctx context.Context, q repository.Querier, op Operation) (Operation, error) {
	payload, err := marshalPayload(op.Payload)
	if err != nil {
		return Operation{}, fmt.Errorf("marshal payload: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO edit_operations(id, session_id, sequence, kind, page, payload, tombstoned, redoable)
		VALUES($1, $2, $3, $4, $5, $6, false, false)
		RETURNING %s`, operationColumns)

	created, err := repository.QueryOne(ctx, q, query, []any{
		op.ID, op.SessionID, op.Sequence, op.Kind, op.Page, payload,
	}, scanOperation)
	if err != nil {
		return Operation{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return created, nil
}

func deleteByIDs(ctx context.Context, q repository.Querier, sessionID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders, args := idArgs(sessionID, ids)
	query := fmt.Sprintf(`DELETE FROM edit_operations WHERE session_id = $1 AND id IN (%s)`, placeholders)

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete operations: %w", err)
	}
	return nil
}

func setTombstoned(ctx context.Context, q repository.Querier, sessionID uuid.UUID, ids []uuid.UUID, tombstoned, redoable bool) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders, args := idArgs(sessionID, ids)
	query := fmt.Sprintf(`UPDATE edit_operations SET tombstoned = %t, redoable = %t
		WHERE session_id = $1 AND id IN (%s)`, tombstoned, redoable, placeholders)

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("tombstone operations: %w", err)
	}
	return nil
}

func deleteAll(ctx context.Context, q repository.Querier, sessionID uuid.UUID) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM edit_operations WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear operations: %w", err)
	}
	return nil
}

func idArgs(sessionID uuid.UUID, ids []uuid.UUID) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, sessionID)

	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	return strings.Join(placeholders, ", "), args
}

func newOperation(sessionID uuid.UUID, sequence int64, cmd AppendCommand) Operation {
	return Operation{
		ID:        uuid.New(),
		SessionID: sessionID,
		Sequence:  sequence,
		Kind:      cmd.Kind,
		Page:      cmd.Page,
		Payload:   cmd.Payload,
		CreatedAt: time.Now().UTC(),
	}
}
