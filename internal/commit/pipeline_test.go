package commit_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/michaelnathaan/pdf-editor-be/internal/assets"
	"github.com/michaelnathaan/pdf-editor-be/internal/commit"
	"github.com/michaelnathaan/pdf-editor-be/internal/compositor"
	"github.com/michaelnathaan/pdf-editor-be/internal/documents"
	"github.com/michaelnathaan/pdf-editor-be/internal/operations"
	"github.com/michaelnathaan/pdf-editor-be/internal/sessions"
	"github.com/michaelnathaan/pdf-editor-be/pkg/pagination"
	"github.com/google/uuid"
)

var discard = slog.New(slog.DiscardHandler)

func f(v float64) *float64 { return &v }

// fakeSessions implements sessions.System over in-memory state.
type fakeSessions struct {
	session         *sessions.Session
	markedCommitted int
	markedExpired   int
}

func (s *fakeSessions) Create(ctx context.Context, cmd sessions.CreateCommand) (*sessions.Session, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeSessions) Find(ctx context.Context, id uuid.UUID) (*sessions.Session, error) {
	return s.session, nil
}

func (s *fakeSessions) List(ctx context.Context, documentID uuid.UUID, page pagination.PageRequest) (*pagination.PageResult[sessions.Session], error) {
	return nil, errors.New("not implemented")
}

func (s *fakeSessions) Authorize(ctx context.Context, id uuid.UUID, token string) (*sessions.Session, error) {
	return s.session, nil
}

func (s *fakeSessions) Guard(sess *sessions.Session) error {
	switch sess.State {
	case sessions.StateActive:
		return nil
	case sessions.StateExpired:
		return sessions.ErrExpired
	default:
		return sessions.ErrNotActive
	}
}

func (s *fakeSessions) Touch(ctx context.Context, id uuid.UUID) error { return nil }

func (s *fakeSessions) MarkCommitted(ctx context.Context, id uuid.UUID, storageKey string, sizeBytes int64) (*sessions.Session, error) {
	s.markedCommitted++
	now := time.Now()
	committed := *s.session
	committed.State = sessions.StateCommitted
	committed.CommittedAt = &now
	committed.CommittedStorageKey = &storageKey
	committed.CommittedSizeBytes = &sizeBytes
	s.session = &committed
	return &committed, nil
}

func (s *fakeSessions) MarkExpired(ctx context.Context, id uuid.UUID) error {
	s.markedExpired++
	s.session.State = sessions.StateExpired
	return nil
}

func (s *fakeSessions) SetCallbackStatus(ctx context.Context, id uuid.UUID, status string) error {
	return nil
}

func (s *fakeSessions) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (s *fakeSessions) ExpireOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *fakeSessions) ListReclaimable(ctx context.Context, cutoff time.Time) ([]sessions.Session, error) {
	return nil, nil
}

func (s *fakeSessions) Lock(id uuid.UUID) func() { return func() {} }

// fakeDocs serves one document's bytes.
type fakeDocs struct {
	doc     documents.Document
	content []byte
	err     error
}

func (d *fakeDocs) List(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error) {
	return nil, errors.New("not implemented")
}

func (d *fakeDocs) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	return &d.doc, nil
}

func (d *fakeDocs) Create(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
	return nil, errors.New("not implemented")
}

func (d *fakeDocs) Update(ctx context.Context, id uuid.UUID, cmd documents.UpdateCommand) (*documents.Document, error) {
	return nil, errors.New("not implemented")
}

func (d *fakeDocs) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (d *fakeDocs) Content(ctx context.Context, id uuid.UUID) (*documents.Document, []byte, error) {
	if d.err != nil {
		return nil, nil, d.err
	}
	return &d.doc, d.content, nil
}

// fakeOps serves a fixed active sequence.
type fakeOps struct {
	active []operations.Operation
}

func (o *fakeOps) Append(ctx context.Context, session *sessions.Session, cmd operations.AppendCommand) (*operations.Operation, error) {
	return nil, errors.New("not implemented")
}

func (o *fakeOps) List(ctx context.Context, sessionID uuid.UUID) ([]operations.Operation, error) {
	return o.active, nil
}

func (o *fakeOps) ListActive(ctx context.Context, sessionID uuid.UUID) ([]operations.Operation, error) {
	return o.active, nil
}

func (o *fakeOps) Undo(ctx context.Context, session *sessions.Session) (*operations.Operation, error) {
	return nil, errors.New("not implemented")
}

func (o *fakeOps) Redo(ctx context.Context, session *sessions.Session) (*operations.Operation, error) {
	return nil, errors.New("not implemented")
}

func (o *fakeOps) Delete(ctx context.Context, session *sessions.Session, operationID uuid.UUID) error {
	return errors.New("not implemented")
}

func (o *fakeOps) Clear(ctx context.Context, session *sessions.Session) error {
	return errors.New("not implemented")
}

func (o *fakeOps) CascadeDelete(ctx context.Context, session *sessions.Session, imageID uuid.UUID) ([]operations.Operation, error) {
	return nil, errors.New("not implemented")
}

// fakeStore keeps blobs in a map.
type fakeStore struct {
	blobs map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: make(map[string][]byte)}
}

func (s *fakeStore) Store(ctx context.Context, key string, data []byte) error {
	s.blobs[key] = data
	return nil
}

func (s *fakeStore) Retrieve(ctx context.Context, key string) ([]byte, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	delete(s.blobs, key)
	return nil
}

func (s *fakeStore) DeleteTree(ctx context.Context, prefix string) error { return nil }

func (s *fakeStore) Validate(ctx context.Context, key string) (bool, error) {
	_, ok := s.blobs[key]
	return ok, nil
}

func (s *fakeStore) Init() error { return nil }

// fakeAssets resolves every image to fixed bytes unless failing.
type fakeAssets struct {
	err error
}

func (a *fakeAssets) Content(ctx context.Context, sessionID, imageID uuid.UUID) (*assets.Image, []byte, error) {
	if a.err != nil {
		return nil, nil, a.err
	}
	return &assets.Image{ID: imageID}, []byte("img"), nil
}

// fakeNotifier records dispatches.
type fakeNotifier struct {
	notified  int
	reference string
}

func (n *fakeNotifier) NotifyCommitted(session *sessions.Session, downloadReference string) {
	n.notified++
	n.reference = downloadReference
}

// stampCodec appends a marker per stamp so output differs from input.
type stampCodec struct {
	stamps int
}

func (c *stampCodec) PageCount(src []byte) (int, error) { return 1, nil }

func (c *stampCodec) PageDimensions(src []byte) ([]compositor.PageDim, error) {
	return []compositor.PageDim{{Width: 612, Height: 792}}, nil
}

func (c *stampCodec) Stamp(src, image []byte, p compositor.Placement, page compositor.PageDim) ([]byte, error) {
	c.stamps++
	return append(append([]byte{}, src...), '*'), nil
}

func activeAdd(imageID uuid.UUID) []operations.Operation {
	return []operations.Operation{{
		ID:       uuid.New(),
		Sequence: 1,
		Kind:     operations.KindAddImage,
		Page:     1,
		Payload: operations.Payload{
			ImageID: imageID, X: f(100), Y: f(200), Width: f(300), Height: f(200), Rotation: f(0), Opacity: f(1),
		},
	}}
}

type fixture struct {
	sessions *fakeSessions
	docs     *fakeDocs
	ops      *fakeOps
	store    *fakeStore
	assets   *fakeAssets
	notifier *fakeNotifier
	codec    *stampCodec
	pipeline *commit.Pipeline
}

func newFixture(state sessions.State, expires time.Time, timeout time.Duration) *fixture {
	sessionID := uuid.New()
	documentID := uuid.New()

	fx := &fixture{
		sessions: &fakeSessions{session: &sessions.Session{
			ID:         sessionID,
			DocumentID: documentID,
			State:      state,
			ExpiresAt:  expires,
		}},
		docs:     &fakeDocs{doc: documents.Document{ID: documentID, PageCount: 1}, content: []byte("%PDF")},
		ops:      &fakeOps{},
		store:    newFakeStore(),
		assets:   &fakeAssets{},
		notifier: &fakeNotifier{},
		codec:    &stampCodec{},
	}

	fx.pipeline = commit.New(
		fx.sessions, fx.docs, fx.ops, compositor.New(fx.codec), fx.store,
		fx.assets, fx.notifier, discard, timeout, "http://localhost:8000",
	)

	return fx
}

func TestPipelineCommit(t *testing.T) {
	future := time.Now().Add(time.Hour)

	t.Run("renders and transitions to committed", func(t *testing.T) {
		fx := newFixture(sessions.StateActive, future, time.Minute)
		fx.ops.active = activeAdd(uuid.New())

		committed, err := fx.pipeline.Commit(context.Background(), fx.sessions.session)
		if err != nil {
			t.Fatalf("Commit() error = %v", err)
		}

		if committed.State != sessions.StateCommitted {
			t.Errorf("Commit() state = %s, want committed", committed.State)
		}
		if fx.codec.stamps != 1 {
			t.Errorf("Commit() stamped %d times, want 1", fx.codec.stamps)
		}
		if committed.CommittedStorageKey == nil {
			t.Fatal("Commit() left committed_storage_key unset")
		}
		if _, err := fx.store.Retrieve(context.Background(), *committed.CommittedStorageKey); err != nil {
			t.Errorf("Commit() rendered document not persisted: %v", err)
		}
		if fx.notifier.notified != 1 {
			t.Errorf("Commit() dispatched %d notifications, want 1", fx.notifier.notified)
		}
		if !strings.Contains(fx.notifier.reference, committed.ID.String()) {
			t.Errorf("Commit() download reference %q does not name the session", fx.notifier.reference)
		}
	})

	t.Run("second commit is idempotent and never re-renders", func(t *testing.T) {
		fx := newFixture(sessions.StateActive, future, time.Minute)
		fx.ops.active = activeAdd(uuid.New())

		first, err := fx.pipeline.Commit(context.Background(), fx.sessions.session)
		if err != nil {
			t.Fatalf("first Commit() error = %v", err)
		}

		second, err := fx.pipeline.Commit(context.Background(), fx.sessions.session)
		if !errors.Is(err, sessions.ErrAlreadyCommitted) {
			t.Fatalf("second Commit() error = %v, want ErrAlreadyCommitted", err)
		}
		if second == nil || *second.CommittedStorageKey != *first.CommittedStorageKey {
			t.Error("second Commit() did not return the existing committed reference")
		}
		if fx.codec.stamps != 1 {
			t.Errorf("second Commit() re-rendered: %d stamps, want 1", fx.codec.stamps)
		}
		if fx.sessions.markedCommitted != 1 {
			t.Errorf("MarkCommitted called %d times, want 1", fx.sessions.markedCommitted)
		}
	})

	t.Run("expired session is persisted and rejected", func(t *testing.T) {
		fx := newFixture(sessions.StateActive, time.Now().Add(-time.Minute), time.Minute)

		_, err := fx.pipeline.Commit(context.Background(), fx.sessions.session)
		if !errors.Is(err, sessions.ErrExpired) {
			t.Fatalf("Commit() error = %v, want ErrExpired", err)
		}
		if fx.sessions.markedExpired != 1 {
			t.Errorf("MarkExpired called %d times, want 1", fx.sessions.markedExpired)
		}
		if fx.codec.stamps != 0 {
			t.Error("Commit() rendered an expired session")
		}
	})

	t.Run("missing asset fails the attempt and leaves session active", func(t *testing.T) {
		fx := newFixture(sessions.StateActive, future, time.Minute)
		fx.ops.active = activeAdd(uuid.New())
		fx.assets.err = errors.New("gone")

		_, err := fx.pipeline.Commit(context.Background(), fx.sessions.session)
		if !errors.Is(err, compositor.ErrAssetMissing) {
			t.Fatalf("Commit() error = %v, want ErrAssetMissing", err)
		}
		if fx.sessions.session.State != sessions.StateActive {
			t.Errorf("Commit() state = %s, want still active", fx.sessions.session.State)
		}
		if fx.sessions.markedCommitted != 0 {
			t.Error("Commit() marked a failed render committed")
		}
	})

	t.Run("unreadable source document", func(t *testing.T) {
		fx := newFixture(sessions.StateActive, future, time.Minute)
		fx.ops.active = activeAdd(uuid.New())
		fx.docs.err = errors.New("blob missing")

		_, err := fx.pipeline.Commit(context.Background(), fx.sessions.session)
		if !errors.Is(err, compositor.ErrSourceUnreadable) {
			t.Fatalf("Commit() error = %v, want ErrSourceUnreadable", err)
		}
	})

	t.Run("timed out render is transient", func(t *testing.T) {
		fx := newFixture(sessions.StateActive, future, time.Nanosecond)
		fx.ops.active = activeAdd(uuid.New())

		_, err := fx.pipeline.Commit(context.Background(), fx.sessions.session)
		if !errors.Is(err, commit.ErrTransient) {
			t.Fatalf("Commit() error = %v, want ErrTransient", err)
		}
		if fx.sessions.session.State != sessions.StateActive {
			t.Errorf("Commit() state = %s, want still active", fx.sessions.session.State)
		}
	})
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"transient", commit.ErrTransient, 504},
		{"already committed", sessions.ErrAlreadyCommitted, 409},
		{"expired", sessions.ErrExpired, 410},
		{"asset missing", compositor.ErrAssetMissing, 422},
		{"invalid page", compositor.ErrInvalidPage, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commit.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
