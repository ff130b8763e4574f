package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"docuchat/internal/config"
)

func openTestSQL(t *testing.T, ttl time.Duration) DocumentStore {
	t.Helper()
	cfg := &config.Config{
		Store: config.StoreConfig{Backend: "sql", Driver: "sqlite3", DSN: ":memory:"},
	}
	s, err := OpenSQL(context.Background(), cfg, ttl)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLStoreContract(t *testing.T) {
	s := openTestSQL(t, time.Minute)
	exerciseStore(t, s)
}

func TestSQLStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := openTestSQL(t, 30*time.Millisecond)

	if err := s.Put(ctx, "sess-1", testRecord()); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := s.Get(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired row should miss before the sweeper runs, got %v", err)
	}
}

func TestSQLStorePreservesChunkOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestSQL(t, time.Minute)

	rec := testRecord()
	rec.Chunks = []string{"alpha", "beta", "gamma", "delta"}
	if err := s.Put(ctx, "sess-1", rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for i, want := range rec.Chunks {
		if got.Chunks[i] != want {
			t.Fatalf("chunk %d = %q, want %q", i, got.Chunks[i], want)
		}
	}
}

func TestSQLStoreRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{Backend: "sql", Driver: "oracle", DSN: "whatever"},
	}
	if _, err := OpenSQL(context.Background(), cfg, time.Minute); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}
