package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/me/pbadmin/pkg/model"
)

// memKV is an in-memory store.KV with switchable failures.
type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	failPut error
	failDel error
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel != nil {
		return m.failDel
	}
	delete(m.data, key)
	return nil
}

func validUnless(bad string) Validator {
	return func(token string) bool { return token != "" && token != bad }
}

func TestStore_SaveAndRestore(t *testing.T) {
	kv := newMemKV()
	ctx := context.Background()

	s := New(kv, nil, nil)
	sess := &model.Session{Token: "tok", Record: model.Record{"id": "u1", "name": "Ann"}}
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Token() != "tok" || !s.IsValid() {
		t.Errorf("live session = %q valid=%v", s.Token(), s.IsValid())
	}

	raw := string(kv.data[StorageKey])
	if raw != `{"token":"tok","user":{"id":"u1","name":"Ann"}}` {
		t.Errorf("persisted = %s", raw)
	}

	fresh := New(kv, nil, nil)
	ok, err := fresh.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !ok {
		t.Error("Restore() = false, want true")
	}
	if fresh.Record()["name"] != "Ann" {
		t.Errorf("restored record = %v", fresh.Record())
	}
}

func TestStore_SaveFailureKeepsLiveState(t *testing.T) {
	kv := newMemKV()
	ctx := context.Background()
	s := New(kv, nil, nil)

	if err := s.Save(ctx, &model.Session{Token: "old"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	kv.failPut = errors.New("quota exceeded")

	if err := s.Save(ctx, &model.Session{Token: "new"}); err == nil {
		t.Fatal("Save succeeded, want error")
	}
	if s.Token() != "old" {
		t.Errorf("Token() = %q, want old", s.Token())
	}
}

func TestStore_IsValidRechecks(t *testing.T) {
	expired := false
	s := New(nil, func(string) bool { return !expired }, nil)
	if err := s.Save(context.Background(), &model.Session{Token: "t"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.IsValid() {
		t.Fatal("IsValid() = false before expiry")
	}
	expired = true
	if s.IsValid() {
		t.Error("IsValid() = true after expiry, want false")
	}
}

func TestStore_RestoreInvalid(t *testing.T) {
	kv := newMemKV()
	kv.data[StorageKey] = []byte(`{"token":"stale","user":{"id":"u1"}}`)

	s := New(kv, validUnless("stale"), nil)
	ok, err := s.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if ok {
		t.Error("Restore() = true for stale token")
	}
}

func TestStore_RestoreCorrupt(t *testing.T) {
	kv := newMemKV()
	kv.data[StorageKey] = []byte(`{not json`)

	s := New(kv, nil, nil)
	if _, err := s.Restore(context.Background()); err == nil {
		t.Error("Restore succeeded on corrupt data, want error")
	}
}

func TestStore_Clear(t *testing.T) {
	kv := newMemKV()
	ctx := context.Background()
	s := New(kv, nil, nil)
	if err := s.Save(ctx, &model.Session{Token: "t"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	kv.failDel = errors.New("read-only")
	if err := s.Clear(ctx); err == nil {
		t.Error("Clear succeeded, want delete error")
	}
	if s.Token() != "" || s.Current() != nil {
		t.Error("live session not cleared after failed delete")
	}

	kv.failDel = nil
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := kv.data[StorageKey]; ok {
		t.Error("persisted session still present")
	}
}

func TestStore_RecordIsCopy(t *testing.T) {
	s := New(nil, nil, nil)
	if err := s.Save(context.Background(), &model.Session{Token: "t", Record: model.Record{"id": "u1"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	r := s.Record()
	r["id"] = "hacked"
	if s.Record()["id"] != "u1" {
		t.Error("Record() exposed internal map")
	}
}
