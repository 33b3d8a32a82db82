package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Session is the persisted sign-in state.
type Session struct {
	Token    string    `json:"token"`
	UserID   int64     `json:"userId"`
	Username string    `json:"username"`
	SavedAt  time.Time `json:"savedAt"`
}

// TokenStore persists one Session in a file. Save, Current, Clear and
// token reads for request injection are serialized by one mutex.
type TokenStore struct {
	path string

	mu      sync.Mutex
	current *Session
	subs    map[int]chan bool
	nextSub int
}

// NewTokenStore opens the store at path, loading an existing session.
// An unreadable or corrupt file is treated as signed out.
func NewTokenStore(path string) (*TokenStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("client: resolve token path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, fmt.Errorf("client: create token directory: %w", err)
	}

	s := &TokenStore{path: abs, subs: make(map[int]chan bool)}
	data, err := os.ReadFile(abs)
	switch {
	case err == nil:
		var sess Session
		if json.Unmarshal(data, &sess) == nil && sess.Token != "" {
			s.current = &sess
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("client: read token file: %w", err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *TokenStore) Path() string { return s.path }

// Save atomically replaces the stored session.
func (s *TokenStore) Save(token string, userID int64, username string) error {
	if token == "" {
		return errors.New("client: token is required")
	}
	sess := Session{Token: token, UserID: userID, Username: username, SavedAt: time.Now().UTC()}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("client: encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	was := s.current != nil
	s.current = &sess
	if !was {
		s.broadcast(true)
	}
	return nil
}

// Current returns a copy of the stored session.
func (s *TokenStore) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Token returns the stored token, or "" when signed out.
func (s *TokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Clear removes the stored session. Subscribers have been signalled
// false by the time it returns.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("client: remove token file: %w", err)
	}
	was := s.current != nil
	s.current = nil
	if was {
		s.broadcast(false)
	}
	return nil
}

// Subscribe returns a channel carrying the authenticated state: the
// current value first, then each change. A slow reader only sees the
// latest value. cancel closes the channel.
func (s *TokenStore) Subscribe() (<-chan bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan bool, 1)
	ch <- s.current != nil
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// broadcast delivers v to every subscriber, replacing an unread value.
// mu must be held.
func (s *TokenStore) broadcast(v bool) {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("client: create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("client: write token file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("client: sync token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("client: close token file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("client: chmod token file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("client: replace token file: %w", err)
	}
	return nil
}
