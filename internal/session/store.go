// Package session holds the process's authenticated PocketBase session and
// keeps a durable copy of it in a key/value side-store.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/me/pbadmin/internal/store"
	"github.com/me/pbadmin/pkg/model"
)

// StorageKey is the side-store key of the persisted session.
const StorageKey = "pocketbase_auth"

// Validator reports whether a token is still usable.
type Validator func(token string) bool

// Store is the live session plus its durable copy. It is safe for
// concurrent use and satisfies pocketbase.TokenSource.
type Store struct {
	mu      sync.RWMutex
	current *model.Session

	kv     store.KV
	valid  Validator
	logger *slog.Logger
}

// New creates an empty Store. kv may be nil for a memory-only session;
// valid may be nil, in which case any non-empty token is valid.
func New(kv store.KV, valid Validator, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if valid == nil {
		valid = func(token string) bool { return token != "" }
	}
	return &Store{
		kv:     kv,
		valid:  valid,
		logger: logger.With("component", "session"),
	}
}

// Token returns the live auth token, or "" when there is no session.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Record returns a copy of the live auth record, or nil.
func (s *Store) Record() model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	return s.current.Clone().Record
}

// Current returns a copy of the live session, or nil.
func (s *Store) Current() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// IsValid re-checks the live token on every call.
func (s *Store) IsValid() bool {
	token := s.Token()
	return token != "" && s.valid(token)
}

// Save persists sess and then makes it live. When persisting fails the live
// session is left as it was.
func (s *Store) Save(ctx context.Context, sess *model.Session) error {
	if sess.IsZero() {
		return fmt.Errorf("save session: empty token")
	}
	sess = sess.Clone()

	if s.kv != nil {
		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		if err := s.kv.Put(ctx, StorageKey, data); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	s.logger.Debug("session saved", "user_id", sess.Record.ID())
	return nil
}

// Restore replaces the live session with the persisted copy and reports
// whether the result is valid. An absent copy empties the live session.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	if s.kv == nil {
		return s.IsValid(), nil
	}

	data, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}

	var sess *model.Session
	if data != nil {
		sess = &model.Session{}
		if err := json.Unmarshal(data, sess); err != nil {
			return false, fmt.Errorf("decode session: %w", err)
		}
		if sess.IsZero() {
			sess = nil
		}
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	ok := s.IsValid()
	s.logger.Debug("session restored", "found", sess != nil, "valid", ok)
	return ok, nil
}

// Clear empties the live session and then deletes the durable copy. The
// live session is cleared even when the delete fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if s.kv == nil {
		return nil
	}
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("delete persisted session: %w", err)
	}
	return nil
}
