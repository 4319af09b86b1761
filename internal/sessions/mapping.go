package sessions

import (
	"github.com/michaelnathaan/pdf-editor-be/pkg/query"
	"github.com/michaelnathaan/pdf-editor-be/pkg/repository"
)

var projection = query.NewProjectionMap("public", "edit_sessions", "s").
	Project("id", "Id").
	Project("document_id", "DocumentId").
	Project("token", "Token").
	Project("state", "State").
	Project("created_at", "CreatedAt").
	Project("expires_at", "ExpiresAt").
	Project("last_activity_at", "LastActivityAt").
	Project("committed_at", "CommittedAt").
	Project("committed_storage_key", "CommittedStorageKey").
	Project("committed_size_bytes", "CommittedSizeBytes").
	Project("callback_url", "CallbackUrl").
	Project("callback_status", "CallbackStatus")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

const sessionColumns = `id, document_id, token, state, created_at, expires_at, last_activity_at,
	committed_at, committed_storage_key, committed_size_bytes, callback_url, callback_status`

func scanSession(sc repository.Scanner) (Session, error) {
	var s Session
	err := sc.Scan(
		&s.ID,
		&s.DocumentID,
		&s.Token,
		&s.State,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.LastActivityAt,
		&s.CommittedAt,
		&s.CommittedStorageKey,
		&s.CommittedSizeBytes,
		&s.CallbackURL,
		&s.CallbackStatus,
	)
	return s, err
}
