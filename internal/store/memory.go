package store

import (
	"context"
	"sync"
	"time"

	"docuchat/internal/models"
)

type memoryEntry struct {
	rec       models.DocumentRecord
	expiresAt time.Time
}

type memoryStore struct {
	ttl    time.Duration
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemory returns the in-process backend. A janitor goroutine evicts
// expired entries every interval until ctx ends or Close is called;
// expired entries also miss on Get regardless of the janitor.
func NewMemory(ctx context.Context, ttl, interval time.Duration) DocumentStore {
	ctx, cancel := context.WithCancel(ctx)
	s := &memoryStore{
		ttl:     ttl,
		cancel:  cancel,
		entries: make(map[string]memoryEntry),
	}
	go s.janitor(ctx, interval)
	return s
}

func (s *memoryStore) Put(ctx context.Context, sessionID string, rec *models.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryEntry{rec: *rec, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *memoryStore) Get(ctx context.Context, sessionID string) (*models.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, sessionID)
		return nil, ErrNotFound
	}
	entry.expiresAt = time.Now().Add(s.ttl)
	s.entries[sessionID] = entry
	rec := entry.rec
	return &rec, nil
}

func (s *memoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

func (s *memoryStore) Close() error {
	s.cancel()
	return nil
}

func (s *memoryStore) janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for id, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
