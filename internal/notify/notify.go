// Package notify delivers commit completion webhooks. Delivery is
// asynchronous, retried with exponential backoff, and never affects the
// commit outcome; the session records the final delivery status.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/michaelnathaan/pdf-editor-be/internal/config"
	"github.com/michaelnathaan/pdf-editor-be/internal/sessions"
	"github.com/google/uuid"
)

// Payload is the webhook body sent to a session's callback target.
type Payload struct {
	SessionID         uuid.UUID `json:"session_id"`
	DocumentID        uuid.UUID `json:"document_id"`
	Status            string    `json:"status"`
	DownloadReference string    `json:"download_reference"`
	CompletedAt       time.Time `json:"completed_at"`
}

// Notifier posts commit notifications to session callback URLs.
type Notifier struct {
	client   *http.Client
	sessions sessions.System
	logger   *slog.Logger
	attempts int
}

// New creates a webhook notifier.
func New(sess sessions.System, logger *slog.Logger, cfg config.WebhookConfig) *Notifier {
	return &Notifier{
		client:   &http.Client{Timeout: cfg.TimeoutDuration()},
		sessions: sess,
		logger:   logger.With("system", "notify"),
		attempts: cfg.RetryAttempts,
	}
}

// NotifyCommitted dispatches the committed webhook for a session in the
// background. Sessions without a callback target are skipped.
func (n *Notifier) NotifyCommitted(session *sessions.Session, downloadReference string) {
	if session.CallbackURL == nil || *session.CallbackURL == "" {
		return
	}

	payload := Payload{
		SessionID:         session.ID,
		DocumentID:        session.DocumentID,
		Status:            "committed",
		DownloadReference: downloadReference,
		CompletedAt:       time.Now().UTC(),
	}

	go n.deliver(session.ID, *session.CallbackURL, payload)
}

func (n *Notifier) deliver(sessionID uuid.UUID, url string, payload Payload) {
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("marshal webhook payload", "session_id", sessionID, "error", err)
		n.setStatus(sessionID, sessions.CallbackFailed)
		return
	}

	backoff := time.Second
	for attempt := 1; attempt <= n.attempts; attempt++ {
		err := n.post(url, body)
		if err == nil {
			n.logger.Info("webhook delivered", "session_id", sessionID, "attempt", attempt)
			n.setStatus(sessionID, sessions.CallbackSuccess)
			return
		}

		n.logger.Warn("webhook delivery failed",
			"session_id", sessionID,
			"attempt", attempt,
			"error", err,
		)

		if attempt < n.attempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	n.setStatus(sessionID, sessions.CallbackFailed)
}

func (n *Notifier) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return nil
}

func (n *Notifier) setStatus(sessionID uuid.UUID, status string) {
	if err := n.sessions.SetCallbackStatus(context.Background(), sessionID, status); err != nil {
		n.logger.Error("record callback status failed",
			"session_id", sessionID,
			"status", status,
			"error", err,
		)
	}
}
