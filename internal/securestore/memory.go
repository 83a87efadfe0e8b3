// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package securestore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// memoryBacking is the shared medium behind every MemoryStore view.
type memoryBacking struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool
}

// MemoryStore implements Store with process-local storage. Values are not
// sealed; the backing never leaves the process.
type MemoryStore struct {
	backing   *memoryBacking
	namespace string
}

// NewMemoryStore creates an in-memory store bound to namespace.
func NewMemoryStore(namespace string) *MemoryStore {
	return &MemoryStore{
		backing: &memoryBacking{
			items: make(map[string][]byte),
		},
		namespace: namespace,
	}
}

// Namespace returns a view over the same backing bound to another namespace.
func (s *MemoryStore) Namespace(name string) Store {
	return &MemoryStore{backing: s.backing, namespace: name}
}

func (s *MemoryStore) qualify(key string) string {
	return s.namespace + ":" + key
}

// Store overwrites the value for key within this namespace.
func (s *MemoryStore) Store(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to marshal value for store")
		return err
	}

	s.backing.mu.Lock()
	defer s.backing.mu.Unlock()
	if s.backing.closed {
		return ErrClosed
	}
	s.backing.items[s.qualify(key)] = data
	return nil
}

// Retrieve decodes the stored value for key into value, or returns
// ErrNotFound.
func (s *MemoryStore) Retrieve(ctx context.Context, key string, value interface{}) error {
	s.backing.mu.RLock()
	if s.backing.closed {
		s.backing.mu.RUnlock()
		return ErrClosed
	}
	data, exists := s.backing.items[s.qualify(key)]
	s.backing.mu.RUnlock()

	if !exists {
		return ErrNotFound
	}
	return json.Unmarshal(data, value)
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.backing.mu.Lock()
	defer s.backing.mu.Unlock()
	if s.backing.closed {
		return ErrClosed
	}
	delete(s.backing.items, s.qualify(key))
	return nil
}

// DeleteAll wipes every key under this namespace and nothing else.
func (s *MemoryStore) DeleteAll(ctx context.Context) error {
	prefix := s.namespace + ":"

	s.backing.mu.Lock()
	defer s.backing.mu.Unlock()
	if s.backing.closed {
		return ErrClosed
	}
	for key := range s.backing.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.backing.items, key)
		}
	}
	return nil
}

// Close releases the backing; subsequent calls on any view fail with
// ErrClosed.
func (s *MemoryStore) Close() error {
	s.backing.mu.Lock()
	defer s.backing.mu.Unlock()
	if s.backing.closed {
		return ErrClosed
	}
	s.backing.closed = true
	s.backing.items = make(map[string][]byte)
	return nil
}
