package client

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newStore(t *testing.T) *TokenStore {
	t.Helper()
	s, err := NewTokenStore(filepath.Join(t.TempDir(), "gotasks", "session.json"))
	if err != nil {
		t.Fatalf("NewTokenStore: %v", err)
	}
	return s
}

func TestTokenStore_SaveAndReload(t *testing.T) {
	s := newStore(t)
	if _, ok := s.Current(); ok {
		t.Fatal("new store should be signed out")
	}

	if err := s.Save("tok-1", 7, "alice"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	sess, ok := s.Current()
	if !ok || sess.Token != "tok-1" || sess.UserID != 7 || sess.Username != "alice" {
		t.Fatalf("Current = %+v, %v", sess, ok)
	}

	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	reopened, err := NewTokenStore(s.Path())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Token(); got != "tok-1" {
		t.Errorf("reloaded token = %q", got)
	}
}

func TestTokenStore_SaveRejectsEmptyToken(t *testing.T) {
	s := newStore(t)
	if err := s.Save("", 1, "alice"); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("no file should be written, stat err = %v", err)
	}
}

func TestTokenStore_Clear(t *testing.T) {
	s := newStore(t)
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear on empty store: %v", err)
	}
	if err := s.Save("tok", 1, "alice"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Token() != "" {
		t.Error("token should be empty after Clear")
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("file should be removed, stat err = %v", err)
	}
}

func TestTokenStore_CorruptFileIsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := NewTokenStore(path)
	if err != nil {
		t.Fatalf("NewTokenStore: %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Error("corrupt file should load as signed out")
	}
}

func recv(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("no signal")
		return false
	}
}

func TestTokenStore_Subscribe(t *testing.T) {
	s := newStore(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	if recv(t, ch) {
		t.Error("initial value should be false")
	}

	if err := s.Save("tok", 1, "alice"); err != nil {
		t.Fatal(err)
	}
	if !recv(t, ch) {
		t.Error("expected true after Save")
	}

	// Replacing a token is not a transition.
	if err := s.Save("tok-2", 1, "alice"); err != nil {
		t.Fatal(err)
	}
	select {
	case v := <-ch:
		t.Errorf("unexpected signal %v on token replace", v)
	default:
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	select {
	case v := <-ch:
		if v {
			t.Error("expected false after Clear")
		}
	default:
		t.Fatal("Clear returned before subscribers were signalled")
	}
}

func TestTokenStore_SubscribeLatestWins(t *testing.T) {
	s := newStore(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	for i := 0; i < 3; i++ {
		_ = s.Save("tok", 1, "alice")
		_ = s.Clear()
	}
	_ = s.Save("tok", 1, "alice")

	if !recv(t, ch) {
		t.Error("slow reader should see the latest value")
	}
	select {
	case v := <-ch:
		t.Errorf("stale value %v still queued", v)
	default:
	}
}

func TestTokenStore_SubscribeCancel(t *testing.T) {
	s := newStore(t)
	ch, cancel := s.Subscribe()
	cancel()
	cancel()

	<-ch // initial value
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	if err := s.Save("tok", 1, "alice"); err != nil {
		t.Fatalf("Save after cancel: %v", err)
	}
}

func TestTokenStore_ConcurrentAccess(t *testing.T) {
	s := newStore(t)
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := int64(w*1000 + i)
				if err := s.Save(fmt.Sprintf("tok-%d", id), id, fmt.Sprintf("user-%d", id)); err != nil {
					t.Errorf("Save: %v", err)
					return
				}
				if i%7 == 0 {
					if err := s.Clear(); err != nil {
						t.Errorf("Clear: %v", err)
						return
					}
				}
			}
		}(w)
	}

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				sess, ok := s.Current()
				if !ok {
					continue
				}
				if sess.Token != fmt.Sprintf("tok-%d", sess.UserID) || sess.Username != fmt.Sprintf("user-%d", sess.UserID) {
					t.Errorf("torn session: %+v", sess)
					return
				}
			}
		}()
	}
	wg.Wait()

	reopened, err := NewTokenStore(s.Path())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	mem, memOK := s.Current()
	disk, diskOK := reopened.Current()
	if memOK != diskOK || mem.Token != disk.Token {
		t.Errorf("disk %+v (%v) disagrees with memory %+v (%v)", disk, diskOK, mem, memOK)
	}
}
