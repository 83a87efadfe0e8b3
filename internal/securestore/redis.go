// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package securestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	redisRetryAttempts = 2
	redisRetryDelay    = 50 * time.Millisecond
	redisScanBatch     = 100
)

// redisBacking holds the client shared across namespace views.
type redisBacking struct {
	client *redis.Client
	sealer *Sealer
	mu     sync.RWMutex
	closed bool
}

// RedisStore implements Store on Redis. Keys are prefixed with the
// namespace; values are sealed when a sealer is configured.
type RedisStore struct {
	backing   *redisBacking
	namespace string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host string
	Port int
}

// NewRedisStore connects to Redis and verifies the connection before
// returning a store bound to namespace.
func NewRedisStore(ctx context.Context, cfg RedisConfig, namespace string, sealer *Sealer) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:            fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		MinIdleConns:    2,
		MaxRetries:      redisRetryAttempts,
		MinRetryBackoff: redisRetryDelay,
		MaxRetryBackoff: time.Second,
		ReadTimeout:     2 * time.Second,
		WriteTimeout:    2 * time.Second,
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Debug().Str("addr", opts.Addr).Msg("Connected to Redis store")

	return &RedisStore{
		backing:   &redisBacking{client: client, sealer: sealer},
		namespace: namespace,
	}, nil
}

// Namespace returns a view over the same client bound to another namespace.
func (s *RedisStore) Namespace(name string) Store {
	return &RedisStore{backing: s.backing, namespace: name}
}

func (s *RedisStore) qualify(key string) string {
	return s.namespace + ":" + key
}

func (s *RedisStore) checkOpen() error {
	s.backing.mu.RLock()
	defer s.backing.mu.RUnlock()
	if s.backing.closed {
		return ErrClosed
	}
	return nil
}

// Store seals and writes the value for key. Redis SET is a single atomic
// overwrite.
func (s *RedisStore) Store(ctx context.Context, key string, value interface{}) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to marshal value for store")
		return err
	}

	sealed, err := s.backing.sealer.Seal(s.namespace, data)
	if err != nil {
		return err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	if err := s.backing.client.Set(timeoutCtx, s.qualify(key), sealed, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Retrieve reads and unseals the value for key into value, retrying
// transient failures.
func (s *RedisStore) Retrieve(ctx context.Context, key string, value interface{}) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < redisRetryAttempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		sealed, err := s.backing.client.Get(timeoutCtx, s.qualify(key)).Bytes()
		cancel()

		if err == redis.Nil {
			return ErrNotFound
		}
		if err == nil {
			data, err := s.backing.sealer.Open(s.namespace, sealed)
			if err != nil {
				return fmt.Errorf("failed to unseal value: %w", err)
			}
			return json.Unmarshal(data, value)
		}

		lastErr = err
		time.Sleep(redisRetryDelay)
	}
	return fmt.Errorf("redis get failed: %w", lastErr)
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	if err := s.backing.client.Del(timeoutCtx, s.qualify(key)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// DeleteAll scans and removes every key under this namespace only.
func (s *RedisStore) DeleteAll(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	var cursor uint64
	pattern := s.namespace + ":*"
	for {
		keys, next, err := s.backing.client.Scan(timeoutCtx, cursor, pattern, redisScanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := s.backing.client.Del(timeoutCtx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close closes the shared client; subsequent calls on any view fail with
// ErrClosed.
func (s *RedisStore) Close() error {
	s.backing.mu.Lock()
	defer s.backing.mu.Unlock()
	if s.backing.closed {
		return ErrClosed
	}
	s.backing.closed = true
	return s.backing.client.Close()
}
