// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package session

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/idpkit/idpkit/internal/models"
)

const subscriberBufferSize = 16

// broadcaster fans state transitions out to subscribers. Sends never block:
// a subscriber that stops draining loses updates rather than stalling the
// controller.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan models.AuthState]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		subs: make(map[chan models.AuthState]struct{}),
	}
}

// subscribe registers a new listener. The returned cancel func must be
// called to release the channel.
func (b *broadcaster) subscribe() (<-chan models.AuthState, func()) {
	ch := make(chan models.AuthState, subscriberBufferSize)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// publish delivers state to every subscriber in registration order.
func (b *broadcaster) publish(state models.AuthState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- state:
		default:
			log.Warn().Str("phase", string(state.Phase)).Msg("Dropping state update for slow subscriber")
		}
	}
}
