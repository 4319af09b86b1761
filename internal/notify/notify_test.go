package notify_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/michaelnathaan/pdf-editor-be/internal/config"
	"github.com/michaelnathaan/pdf-editor-be/internal/notify"
	"github.com/michaelnathaan/pdf-editor-be/internal/sessions"
	"github.com/michaelnathaan/pdf-editor-be/pkg/pagination"
)

var discard = slog.New(slog.DiscardHandler)

// statusRecorder implements sessions.System for callback status tracking.
// Only SetCallbackStatus is exercised by the notifier.
type statusRecorder struct {
	mu     sync.Mutex
	status map[uuid.UUID]string
	done   chan struct{}
}

func newStatusRecorder() *statusRecorder {
	return &statusRecorder{
		status: make(map[uuid.UUID]string),
		done:   make(chan struct{}, 1),
	}
}

func (r *statusRecorder) SetCallbackStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	r.status[id] = status
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *statusRecorder) recorded(id uuid.UUID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status[id]
}

func (r *statusRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback status")
	}
}

func (r *statusRecorder) Create(context.Context, sessions.CreateCommand) (*sessions.Session, error) {
	return nil, nil
}

func (r *statusRecorder) Find(context.Context, uuid.UUID) (*sessions.Session, error) {
	return nil, nil
}

func (r *statusRecorder) List(context.Context, uuid.UUID, pagination.PageRequest) (*pagination.PageResult[sessions.Session], error) {
	return nil, nil
}

func (r *statusRecorder) Authorize(context.Context, uuid.UUID, string) (*sessions.Session, error) {
	return nil, nil
}

func (r *statusRecorder) Guard(*sessions.Session) error { return nil }

func (r *statusRecorder) Touch(context.Context, uuid.UUID) error { return nil }

func (r *statusRecorder) MarkCommitted(context.Context, uuid.UUID, string, int64) (*sessions.Session, error) {
	return nil, nil
}

func (r *statusRecorder) MarkExpired(context.Context, uuid.UUID) error { return nil }

func (r *statusRecorder) Delete(context.Context, uuid.UUID) error { return nil }

func (r *statusRecorder) ExpireOverdue(context.Context, time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (r *statusRecorder) ListReclaimable(context.Context, time.Time) ([]sessions.Session, error) {
	return nil, nil
}

func (r *statusRecorder) Lock(uuid.UUID) func() { return func() {} }

func callbackSession(url string) *sessions.Session {
	return &sessions.Session{
		ID:          uuid.New(),
		DocumentID:  uuid.New(),
		State:       sessions.StateCommitted,
		CallbackURL: &url,
	}
}

func TestNotifyCommittedDelivers(t *testing.T) {
	var (
		mu       sync.Mutex
		received notify.Payload
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		mu.Lock()
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	recorder := newStatusRecorder()
	session := callbackSession(server.URL)
	notifier := notify.New(recorder, discard, config.WebhookConfig{Timeout: "5s", RetryAttempts: 1})

	notifier.NotifyCommitted(session, "/api/v1/sessions/"+session.ID.String()+"/document")
	recorder.wait(t)

	if got := recorder.recorded(session.ID); got != sessions.CallbackSuccess {
		t.Errorf("callback status = %q, want %q", got, sessions.CallbackSuccess)
	}

	mu.Lock()
	defer mu.Unlock()
	if received.SessionID != session.ID {
		t.Errorf("payload session_id = %s, want %s", received.SessionID, session.ID)
	}
	if received.DocumentID != session.DocumentID {
		t.Errorf("payload document_id = %s, want %s", received.DocumentID, session.DocumentID)
	}
	if received.Status != "committed" {
		t.Errorf("payload status = %q, want committed", received.Status)
	}
	if received.DownloadReference == "" {
		t.Error("payload download_reference is empty")
	}
}

func TestNotifyCommittedRecordsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	recorder := newStatusRecorder()
	session := callbackSession(server.URL)
	notifier := notify.New(recorder, discard, config.WebhookConfig{Timeout: "5s", RetryAttempts: 1})

	notifier.NotifyCommitted(session, "/download")
	recorder.wait(t)

	if got := recorder.recorded(session.ID); got != sessions.CallbackFailed {
		t.Errorf("callback status = %q, want %q", got, sessions.CallbackFailed)
	}
}

func TestNotifyCommittedSkipsWithoutCallback(t *testing.T) {
	recorder := newStatusRecorder()

	empty := ""
	tests := []struct {
		name    string
		session *sessions.Session
	}{
		{"nil url", &sessions.Session{ID: uuid.New(), CallbackURL: nil}},
		{"empty url", &sessions.Session{ID: uuid.New(), CallbackURL: &empty}},
	}

	notifier := notify.New(recorder, discard, config.WebhookConfig{Timeout: "1s", RetryAttempts: 1})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier.NotifyCommitted(tt.session, "/download")

			select {
			case <-recorder.done:
				t.Error("callback status recorded for session without callback url")
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}
