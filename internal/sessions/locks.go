package sessions

import (
	"sync"

	"github.com/google/uuid"
)

// lockTable serializes mutating work per session. Entries are reference
// counted so the table stays bounded by the number of sessions currently
// holding or waiting on a lock.
type lockTable struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[uuid.UUID]*lockEntry)}
}

// Acquire blocks until the lock for id is held and returns the release
// function. Release must be called exactly once.
func (t *lockTable) Acquire(id uuid.UUID) func() {
	t.mu.Lock()
	entry, ok := t.entries[id]
	if !ok {
		entry = &lockEntry{}
		t.entries[id] = entry
	}
	entry.refs++
	t.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		t.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(t.entries, id)
		}
		t.mu.Unlock()
	}
}
