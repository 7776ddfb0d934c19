package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeCartStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	readErr error
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCartStore) GetBytes(_ context.Context, key string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (f *fakeCartStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.([]byte)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCartStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeCartStore) CartKey(sessionID string) string {
	return "sf:cart:" + sessionID
}

func TestRedisStorageReadWriteDelete(t *testing.T) {
	store := newFakeCartStore()
	storage, err := NewRedisStorage(store, 48*time.Hour)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	ctx := context.Background()

	if _, err := storage.Read(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := storage.Write(ctx, "s1", []byte("payload")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if store.ttls["sf:cart:s1"] != 48*time.Hour {
		t.Fatalf("expected ttl applied to sf:cart:s1, got %v", store.ttls)
	}
	got, err := storage.Read(ctx, "s1")
	if err != nil || string(got) != "payload" {
		t.Fatalf("unexpected read: %q %v", got, err)
	}
	if err := storage.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.data["sf:cart:s1"]; ok {
		t.Fatalf("expected key removed")
	}
}

func TestRedisStoragePropagatesReadErrors(t *testing.T) {
	store := newFakeCartStore()
	store.readErr = errors.New("i/o timeout")
	storage, _ := NewRedisStorage(store, time.Hour)

	_, err := storage.Read(context.Background(), "s1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected raw read error, got %v", err)
	}
}

func TestNewRedisStorageRequiresClient(t *testing.T) {
	if _, err := NewRedisStorage(nil, time.Hour); err == nil {
		t.Fatal("expected error for nil client")
	}
}
