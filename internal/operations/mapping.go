package operations

import (
	"github.com/michaelnathaan/pdf-editor-be/pkg/repository"
)

const operationColumns = `id, session_id, sequence, kind, page, payload, tombstoned, redoable, created_at`

func scanOperation(sc repository.Scanner) (Operation, error) {
	var (
		op      Operation
		payload []byte
	)

	err := sc.Scan(
		&op.ID,
		&op.SessionID,
		&op.Sequence,
		&op.Kind,
		&op.Page,
		&payload,
		&op.Tombstoned,
		&op.Redoable,
		&op.CreatedAt,
	)
	if err != nil {
		return op, err
	}

	op.Payload, err = unmarshalPayload(payload)
	return op, err
}
