package session

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error matching
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// RedisStore keeps session records in Redis under "session:<id>"
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps a connected Redis client
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(id string) string {
	return "session:" + id
}

// Save stores rec with a TTL so abandoned sessions expire on their own
func (s *RedisStore) Save(ctx context.Context, rec Record, ttl time.Duration) error {
	b, err := json.Marshal(rec) // Marshal record to JSON
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(rec.ID), b, ttl).Err() // Set value in Redis with TTL
}

// Load fetches the record for id
func (s *RedisStore) Load(ctx context.Context, id string) (Record, error) {
	var rec Record
	val, err := s.rdb.Get(ctx, sessionKey(id)).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return rec, ErrNoSession // Key does not exist or has expired
	} else if err != nil {
		return rec, err // Other Redis error
	}
	return rec, json.Unmarshal(val, &rec)
}

// Delete removes the record for id
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err() // Delete key from Redis
}
