package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"docuchat/internal/config"
	"docuchat/internal/models"
)

// recordKeyPrefix namespaces document records in a shared redis instance.
const recordKeyPrefix = "docuchat:doc:"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to redis and fails fast when the server is
// unreachable. TTL enforcement is delegated to redis key expiry.
func NewRedis(cfg *config.Config, ttl time.Duration) (DocumentStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Store.RedisAddr,
		Password: cfg.Store.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &redisStore{client: client, ttl: ttl}, nil
}

func recordKey(sessionID string) string {
	return recordKeyPrefix + sessionID
}

func (s *redisStore) Put(ctx context.Context, sessionID string, rec *models.DocumentRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode document record: %w", err)
	}
	return s.client.Set(ctx, recordKey(sessionID), payload, s.ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (*models.DocumentRecord, error) {
	raw, err := s.client.Get(ctx, recordKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document record: %w", err)
	}
	var rec models.DocumentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode document record: %w", err)
	}
	// Sliding expiry; a failed refresh still returns the record.
	s.client.Expire(ctx, recordKey(sessionID), s.ttl)
	return &rec, nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, recordKey(sessionID)).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
