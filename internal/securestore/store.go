// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package securestore provides namespaced, typed key-value persistence for
// authentication secrets. Values are JSON-encoded and, on the shared
// backends, sealed at rest. Namespaces are isolation boundaries: a store
// view only ever sees and wipes its own namespace.
package securestore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Retrieve for an absent key. Absence is a
	// valid result, not a failure.
	ErrNotFound = errors.New("securestore: key not found")
	// ErrClosed is returned once the store has been closed.
	ErrClosed = errors.New("securestore: store is closed")
)

// Record keys used by the session controller. They live under one
// namespace; nothing else writes them.
const (
	KeyAuthTokens       = "auth_tokens"
	KeyUser             = "user"
	KeySelectedProvider = "selected_provider"
)

// NamespaceSession holds the three session records; NamespacePrefs holds
// biometric preferences.
const (
	NamespaceSession = "session"
	NamespacePrefs   = "prefs"
)

const DefaultTimeout = 30 * time.Second

// Store is the secure persistence capability. Implementations must be safe
// for concurrent use. Store overwrites atomically; Retrieve of an absent key
// returns ErrNotFound; DeleteAll wipes only the view's namespace.
type Store interface {
	Store(ctx context.Context, key string, value interface{}) error
	Retrieve(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
	// Namespace returns a view over the same backing bound to another
	// namespace. Closing any view closes the shared backing.
	Namespace(name string) Store
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*SQLStore)(nil)
)
