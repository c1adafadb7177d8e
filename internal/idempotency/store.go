// Package idempotency replays saved responses for repeated requests with the same Idempotency-Key.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	defaultTTL     = 24 * time.Hour
	defaultLockTTL = 30 * time.Second
	defaultPrefix  = "recharge:idempotency:"

	// Value kept under the key while the first request is being served
	inFlight = "in-flight"
)

var ErrInFlight = errors.New("request with the same idempotency key is in progress")

// Response saved for replay
type Response struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`

	// SHA-256 of request body the response was produced for
	BodyHash string `json:"body_hash,omitempty"`
}

type Config struct {
	// How long completed responses are replayed
	TTL time.Duration

	// How long a key stays reserved if the holder never saves or releases it
	LockTTL time.Duration

	// Redis key prefix
	Prefix string
}

type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	prefix  string
}

func NewRedisStore(client *redis.Client, cfg Config) *RedisStore {
	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = defaultLockTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}

	return &RedisStore{
		client:  client,
		ttl:     cfg.TTL,
		lockTTL: cfg.LockTTL,
		prefix:  cfg.Prefix,
	}
}

// Reserve claims key for the caller.
// Returns saved response if the key is completed already, ErrInFlight if another caller holds it.
// Nil response and nil error mean the caller owns the key and has to Save or Release it
func (s *RedisStore) Reserve(ctx context.Context, key string) (*Response, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, inFlight, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if ok {
		return nil, nil
	}

	value, err := s.client.Get(ctx, s.prefix+key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// Holder released the key between our calls, let caller retry later
		return nil, ErrInFlight
	case err != nil:
		return nil, fmt.Errorf("redis error: %w", err)
	case value == inFlight:
		return nil, ErrInFlight
	}

	var saved Response
	if err := json.Unmarshal([]byte(value), &saved); err != nil {
		return nil, fmt.Errorf("saved response is broken: %w", err)
	}

	return &saved, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.prefix+key, string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

// Release drops reservation so the request may be retried
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
