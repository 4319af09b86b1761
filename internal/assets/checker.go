package assets

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Checker answers asset existence queries without the rest of the asset
// system, letting the operation log validate references before the full
// system is wired.
type Checker struct {
	db *sql.DB
}

// NewChecker creates an asset existence checker.
func NewChecker(db *sql.DB) *Checker {
	return &Checker{db: db}
}

// Exists reports whether the session owns an image with the given id.
func (c *Checker) Exists(ctx context.Context, sessionID, imageID uuid.UUID) (bool, error) {
	var exists bool
	q := `SELECT EXISTS(SELECT 1 FROM session_images WHERE session_id = $1 AND id = $2)`
	if err := c.db.QueryRowContext(ctx, q, sessionID, imageID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check image existence: %w", err)
	}
	return exists, nil
}
