package assets

import (
	"github.com/michaelnathaan/pdf-editor-be/pkg/repository"
)

const imageColumns = `id, session_id, filename, content_type, size_bytes, width, height, storage_key, created_at`

func scanImage(sc repository.Scanner) (Image, error) {
	var img Image
	err := sc.Scan(
		&img.ID,
		&img.SessionID,
		&img.Filename,
		&img.ContentType,
		&img.SizeBytes,
		&img.Width,
		&img.Height,
		&img.StorageKey,
		&img.CreatedAt,
	)
	return img, err
}
