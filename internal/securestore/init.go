// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package securestore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Type selects the storage backend.
type Type string

const (
	TypeMemory   Type = "memory"
	TypeRedis    Type = "redis"
	TypeSQLite   Type = "sqlite"
	TypePostgres Type = "postgres"
)

// Config holds everything needed to initialize a store backend.
type Config struct {
	Type   Type
	Secret string
	Redis  RedisConfig
	SQL    SQLConfig
}

// InitStore creates the configured backend bound to namespace. An
// unrecognized type falls back to memory with a warning; a bad secret or an
// unreachable backend fails loudly.
func InitStore(ctx context.Context, cfg Config, namespace string) (Store, error) {
	sealer, err := NewSealer(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sealer: %w", err)
	}

	switch cfg.Type {
	case TypeRedis:
		return NewRedisStore(ctx, cfg.Redis, namespace, sealer)
	case TypeSQLite:
		cfg.SQL.Driver = "sqlite"
		return NewSQLStore(cfg.SQL, namespace, sealer)
	case TypePostgres:
		cfg.SQL.Driver = "postgres"
		return NewSQLStore(cfg.SQL, namespace, sealer)
	case TypeMemory, "":
		log.Debug().Msg("Using in-memory secure store")
		return NewMemoryStore(namespace), nil
	default:
		log.Warn().Str("type", string(cfg.Type)).Msg("Unknown store type, using memory store")
		return NewMemoryStore(namespace), nil
	}
}
