// Package assets manages session-scoped image uploads: decoding and
// optimization, blob persistence, and deletion with cascading removal of
// operation log references.
package assets

import (
	"time"

	"github.com/google/uuid"
)

// Image represents an uploaded image asset owned by one edit session.
// The stored bytes are immutable once uploaded.
type Image struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	StorageKey  string    `json:"storage_key"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadCommand contains the data required to store a new image asset.
// Data holds the raw upload before optimization.
type UploadCommand struct {
	Filename    string
	ContentType string
	Data        []byte
}
