package storage_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/michaelnathaan/pdf-editor-be/internal/config"
	"github.com/michaelnathaan/pdf-editor-be/internal/storage"
)

func newStorage(t *testing.T) storage.System {
	t.Helper()

	sys, err := storage.New(&config.StorageConfig{BasePath: t.TempDir()}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := sys.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	return sys
}

func TestStoreRetrieve(t *testing.T) {
	sys := newStorage(t)
	ctx := context.Background()

	data := []byte("%PDF-1.7 content")
	if err := sys.Store(ctx, "documents/abc/file.pdf", data); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, err := sys.Retrieve(ctx, "documents/abc/file.pdf")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Retrieve() = %q, want %q", got, data)
	}
}

func TestStoreOverwrites(t *testing.T) {
	sys := newStorage(t)
	ctx := context.Background()

	if err := sys.Store(ctx, "key", []byte("first")); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := sys.Store(ctx, "key", []byte("second")); err != nil {
		t.Fatalf("Store() overwrite error = %v", err)
	}

	got, err := sys.Retrieve(ctx, "key")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Retrieve() = %q, want overwritten content", got)
	}
}

func TestRetrieveMissing(t *testing.T) {
	sys := newStorage(t)

	if _, err := sys.Retrieve(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Retrieve() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	sys := newStorage(t)
	ctx := context.Background()

	if err := sys.Store(ctx, "sessions/s1/images/a.png", []byte("x")); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := sys.Delete(ctx, "sessions/s1/images/a.png"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := sys.Delete(ctx, "sessions/s1/images/a.png"); err != nil {
		t.Errorf("Delete() second call error = %v, want nil", err)
	}

	exists, err := sys.Validate(ctx, "sessions/s1/images/a.png")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if exists {
		t.Error("Validate() = true after delete")
	}
}

func TestDeleteTree(t *testing.T) {
	sys := newStorage(t)
	ctx := context.Background()

	keys := []string{
		"sessions/s1/images/a.png",
		"sessions/s1/images/b.png",
		"sessions/s1/committed.pdf",
		"sessions/s2/images/c.png",
	}
	for _, key := range keys {
		if err := sys.Store(ctx, key, []byte("x")); err != nil {
			t.Fatalf("Store(%s) error = %v", key, err)
		}
	}

	if err := sys.DeleteTree(ctx, "sessions/s1"); err != nil {
		t.Fatalf("DeleteTree() error = %v", err)
	}

	for _, key := range keys[:3] {
		if exists, _ := sys.Validate(ctx, key); exists {
			t.Errorf("Validate(%s) = true after DeleteTree", key)
		}
	}
	if exists, _ := sys.Validate(ctx, "sessions/s2/images/c.png"); !exists {
		t.Error("DeleteTree() removed a sibling session's blobs")
	}

	if err := sys.DeleteTree(ctx, "sessions/s1"); err != nil {
		t.Errorf("DeleteTree() second call error = %v, want nil", err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	base := t.TempDir()
	sys, err := storage.New(&config.StorageConfig{BasePath: filepath.Join(base, "blobs")}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := sys.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	outside := filepath.Join(base, "victim.txt")
	if err := os.WriteFile(outside, []byte("data"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tests := []string{
		"../victim.txt",
		"a/../../victim.txt",
		"",
	}

	for _, key := range tests {
		if err := sys.Store(context.Background(), key, []byte("x")); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("Store(%q) error = %v, want ErrInvalidKey", key, err)
		}
		if _, err := sys.Retrieve(context.Background(), key); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("Retrieve(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}
