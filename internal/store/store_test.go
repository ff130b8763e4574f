package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"docuchat/internal/config"
	"docuchat/internal/models"
)

func testRecord() *models.DocumentRecord {
	return &models.DocumentRecord{
		FileName:   "notes.pdf",
		Chunks:     []string{"first chunk", "second chunk"},
		Summary:    "two chunks of notes",
		UploadTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, s DocumentStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get absent record: err = %v, want ErrNotFound", err)
	}

	rec := testRecord()
	if err := s.Put(ctx, "sess-1", rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FileName != rec.FileName || got.Summary != rec.Summary {
		t.Fatalf("record mismatch: %+v", got)
	}
	if len(got.Chunks) != 2 || got.Chunks[0] != "first chunk" {
		t.Fatalf("chunks mismatch: %q", got.Chunks)
	}

	replacement := testRecord()
	replacement.FileName = "replacement.docx"
	if err := s.Put(ctx, "sess-1", replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err = s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get replacement: %v", err)
	}
	if got.FileName != "replacement.docx" {
		t.Fatalf("put did not replace the record: %+v", got)
	}

	if err := s.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete of absent record should succeed, got %v", err)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	s := NewMemory(context.Background(), time.Minute, time.Minute)
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(ctx, 30*time.Millisecond, time.Hour)
	defer s.Close()

	if err := s.Put(ctx, "sess-1", testRecord()); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := s.Get(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record should miss even before the janitor runs, got %v", err)
	}
}

func TestMemoryStoreGetRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(ctx, 80*time.Millisecond, time.Hour)
	defer s.Close()

	if err := s.Put(ctx, "sess-1", testRecord()); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Keep touching the record past the original deadline.
	for i := 0; i < 3; i++ {
		time.Sleep(50 * time.Millisecond)
		if _, err := s.Get(ctx, "sess-1"); err != nil {
			t.Fatalf("get %d during active use: %v", i, err)
		}
	}
}

func TestMemoryStoreJanitorEvicts(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(ctx, 10*time.Millisecond, 20*time.Millisecond)
	defer s.Close()

	if err := s.Put(ctx, "sess-1", testRecord()); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(80 * time.Millisecond)
	ms := s.(*memoryStore)
	ms.mu.Lock()
	remaining := len(ms.entries)
	ms.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("janitor left %d expired entries behind", remaining)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := &config.Config{
		Store:    config.StoreConfig{Backend: "memory"},
		Document: config.DocumentConfig{TTLMinutes: 1},
	}
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open memory backend: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*memoryStore); !ok {
		t.Fatalf("expected memory backend, got %T", s)
	}

	cfg.Store.Backend = "carrier-pigeon"
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatalf("unknown backend should fail")
	}
}
