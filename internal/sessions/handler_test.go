package sessions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/michaelnathaan/pdf-editor-be/pkg/pagination"
)

// creatorStub implements System; only Create is exercised here.
type creatorStub struct {
	created Session
}

func (s *creatorStub) Create(_ context.Context, cmd CreateCommand) (*Session, error) {
	created := s.created
	created.DocumentID = cmd.DocumentID
	return &created, nil
}

func (s *creatorStub) Find(context.Context, uuid.UUID) (*Session, error) { return nil, nil }

func (s *creatorStub) List(context.Context, uuid.UUID, pagination.PageRequest) (*pagination.PageResult[Session], error) {
	return nil, nil
}

func (s *creatorStub) Authorize(context.Context, uuid.UUID, string) (*Session, error) {
	return nil, nil
}

func (s *creatorStub) Guard(*Session) error { return nil }

func (s *creatorStub) Touch(context.Context, uuid.UUID) error { return nil }

func (s *creatorStub) MarkCommitted(context.Context, uuid.UUID, string, int64) (*Session, error) {
	return nil, nil
}

func (s *creatorStub) MarkExpired(context.Context, uuid.UUID) error { return nil }

func (s *creatorStub) SetCallbackStatus(context.Context, uuid.UUID, string) error { return nil }

func (s *creatorStub) Delete(context.Context, uuid.UUID) error { return nil }

func (s *creatorStub) ExpireOverdue(context.Context, time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *creatorStub) ListReclaimable(context.Context, time.Time) ([]Session, error) {
	return nil, nil
}

func (s *creatorStub) Lock(uuid.UUID) func() { return func() {} }

func TestCreateRespondsWithEditorURL(t *testing.T) {
	stub := &creatorStub{
		created: Session{
			ID:        uuid.New(),
			Token:     "tok123",
			State:     StateActive,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}

	h := NewHandler(stub, nil, slog.New(slog.DiscardHandler), pagination.Config{}, "http://editor.local")

	documentID := uuid.New()
	r := httptest.NewRequest(http.MethodPost, "/documents/"+documentID.String()+"/sessions", strings.NewReader("{}"))
	r.SetPathValue("documentId", documentID.String())
	w := httptest.NewRecorder()

	h.Create(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("Create() status = %d, want %d", w.Code, http.StatusCreated)
	}

	var body struct {
		ID        uuid.UUID `json:"id"`
		Token     string    `json:"token"`
		EditorURL string    `json:"editor_url"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if body.Token != "tok123" {
		t.Errorf("response token = %q, want tok123", body.Token)
	}
	want := "http://editor.local/edit/" + stub.created.ID.String() + "?token=tok123"
	if body.EditorURL != want {
		t.Errorf("response editor_url = %q, want %q", body.EditorURL, want)
	}
}
