// Package cleanup runs the periodic housekeeping sweep: expiring overdue
// sessions and reclaiming the storage of terminal sessions once their
// grace period has passed. The sweep is off the request hot path; lazy
// expiry on access remains the authoritative check.
package cleanup

import (
	"context"
	"log/slog"
	"path"
	"time"

	"github.com/michaelnathaan/pdf-editor-be/internal/config"
	"github.com/michaelnathaan/pdf-editor-be/internal/sessions"
	"github.com/michaelnathaan/pdf-editor-be/internal/storage"
)

// Sweeper periodically expires and reclaims sessions.
type Sweeper struct {
	sessions sessions.System
	storage  storage.System
	logger   *slog.Logger
	interval time.Duration
	grace    time.Duration
}

// New creates a cleanup sweeper.
func New(sess sessions.System, store storage.System, logger *slog.Logger, cfg config.SessionsConfig) *Sweeper {
	return &Sweeper{
		sessions: sess,
		storage:  store,
		logger:   logger.With("system", "cleanup"),
		interval: cfg.CleanupIntervalDuration(),
		grace:    cfg.ReclamationGraceDuration(),
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("cleanup sweeper started", "interval", s.interval, "grace", s.grace)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cleanup sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one housekeeping pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now()

	expired, err := s.sessions.ExpireOverdue(ctx, now)
	if err != nil {
		s.logger.Error("expire sweep failed", "error", err)
	} else if len(expired) > 0 {
		s.logger.Info("sessions expired", "count", len(expired))
	}

	s.reclaim(ctx, now.Add(-s.grace))
}

// reclaim removes terminal sessions past the grace cutoff: their storage
// tree first, then the database rows. Committed artifacts in storage go
// with them; grace is the download window after commit.
func (s *Sweeper) reclaim(ctx context.Context, cutoff time.Time) {
	reclaimable, err := s.sessions.ListReclaimable(ctx, cutoff)
	if err != nil {
		s.logger.Error("reclamation sweep failed", "error", err)
		return
	}

	for _, session := range reclaimable {
		tree := path.Join("sessions", session.ID.String())
		if err := s.storage.DeleteTree(ctx, tree); err != nil {
			s.logger.Error("reclaim storage failed", "session_id", session.ID, "error", err)
			continue
		}

		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			s.logger.Error("reclaim session failed", "session_id", session.ID, "error", err)
			continue
		}

		s.logger.Info("session reclaimed", "session_id", session.ID, "state", session.State)
	}
}
