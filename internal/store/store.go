// Package store keeps the active document record for each chat session
// behind an explicit key-value abstraction with idle-TTL eviction, so the
// core logic stays independent of any web framework session mechanism.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docuchat/internal/config"
	"docuchat/internal/models"
)

// ErrNotFound reports that a session has no active document record.
var ErrNotFound = errors.New("document record not found")

// sweepInterval is how often background eviction runs for backends that
// need their own sweeper.
const sweepInterval = time.Minute

// DocumentStore maps a session ID to its active document record. At most
// one record exists per session; Put replaces any previous one. Records
// carry a sliding idle TTL which Get refreshes, so an active conversation
// keeps its document alive.
type DocumentStore interface {
	Put(ctx context.Context, sessionID string, rec *models.DocumentRecord) error
	Get(ctx context.Context, sessionID string) (*models.DocumentRecord, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// Open constructs the configured backend. The returned store owns its
// background eviction goroutine, stopped by Close or when ctx ends.
func Open(ctx context.Context, cfg *config.Config) (DocumentStore, error) {
	ttl := cfg.DocumentTTL()
	switch strings.ToLower(cfg.Store.Backend) {
	case "", "memory":
		return NewMemory(ctx, ttl, sweepInterval), nil
	case "redis":
		return NewRedis(cfg, ttl)
	case "sql":
		return OpenSQL(ctx, cfg, ttl)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}
