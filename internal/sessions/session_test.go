package sessions

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSessionExpiredAt(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		state   State
		expires time.Time
		want    bool
	}{
		{"active before expiry", StateActive, now.Add(time.Hour), false},
		{"active past expiry", StateActive, now.Add(-time.Minute), true},
		{"committed past expiry", StateCommitted, now.Add(-time.Hour), false},
		{"expired stays expired not re-derived", StateExpired, now.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{State: tt.state, ExpiresAt: tt.expires}
			if got := s.ExpiredAt(now); got != tt.want {
				t.Errorf("ExpiredAt() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestSessionRedacted(t *testing.T) {
	s := &Session{ID: uuid.New(), Token: "secret"}

	redacted := s.Redacted()
	if redacted.Token != "" {
		t.Errorf("Redacted() token = %q, want empty", redacted.Token)
	}
	if s.Token != "secret" {
		t.Error("Redacted() mutated the original session")
	}
	if redacted.ID != s.ID {
		t.Error("Redacted() lost session fields")
	}
}

func TestNewToken(t *testing.T) {
	first, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}
	second, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}

	if first == second {
		t.Error("NewToken() produced identical tokens")
	}
	if len(first) != 43 {
		t.Errorf("NewToken() length = %d, want 43 for 32 unpadded base64 bytes", len(first))
	}
}

func TestTokenEqual(t *testing.T) {
	token, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}

	if !TokenEqual(token, token) {
		t.Error("TokenEqual() = false for identical tokens")
	}
	if TokenEqual(token, token+"x") {
		t.Error("TokenEqual() = true for different lengths")
	}
	if TokenEqual(token, "") {
		t.Error("TokenEqual() = true for empty candidate")
	}
}

func TestLockTableSerializesPerKey(t *testing.T) {
	table := newLockTable()
	id := uuid.New()

	var (
		mu      sync.Mutex
		holders int
		maxSeen int
	)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock := table.Acquire(id)
			defer unlock()

			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("lock admitted %d concurrent holders, want 1", maxSeen)
	}

	table.mu.Lock()
	remaining := len(table.entries)
	table.mu.Unlock()
	if remaining != 0 {
		t.Errorf("lock table retained %d entries after release, want 0", remaining)
	}
}

func TestLockTableIndependentKeys(t *testing.T) {
	table := newLockTable()

	unlockA := table.Acquire(uuid.New())
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := table.Acquire(uuid.New())
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent session locks blocked each other")
	}
}

func TestSessionEditorURL(t *testing.T) {
	s := &Session{
		ID:    uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Token: "tok123",
	}

	want := "http://editor.local/edit/11111111-2222-3333-4444-555555555555?token=tok123"

	tests := []struct {
		name string
		base string
	}{
		{"bare base", "http://editor.local"},
		{"trailing slash", "http://editor.local/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.EditorURL(tt.base); got != want {
				t.Errorf("EditorURL(%q) = %q, want %q", tt.base, got, want)
			}
		})
	}
}
