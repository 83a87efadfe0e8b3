// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package biometric

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/idpkit/idpkit/internal/securestore"
)

const (
	keyEnabled       = "biometric_enabled"
	keySetupPrompted = "biometric_setup_prompted"
)

// Prefs persists the biometric enable flag and the one-shot setup-offer
// latch. It lives in its own store namespace, apart from session records.
type Prefs struct {
	store securestore.Store
}

func NewPrefs(store securestore.Store) *Prefs {
	return &Prefs{store: store}
}

// Enabled reports whether the user opted into biometric unlock. Absence
// means disabled.
func (p *Prefs) Enabled(ctx context.Context) bool {
	var enabled bool
	if err := p.store.Retrieve(ctx, keyEnabled, &enabled); err != nil {
		if !errors.Is(err, securestore.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to read biometric preference")
		}
		return false
	}
	return enabled
}

func (p *Prefs) SetEnabled(ctx context.Context, enabled bool) error {
	return p.store.Store(ctx, keyEnabled, enabled)
}

// SetupOffered reports whether the one-time "enable biometrics?" prompt has
// already been shown.
func (p *Prefs) SetupOffered(ctx context.Context) bool {
	var offered bool
	if err := p.store.Retrieve(ctx, keySetupPrompted, &offered); err != nil {
		if !errors.Is(err, securestore.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to read biometric setup latch")
		}
		return false
	}
	return offered
}

func (p *Prefs) MarkSetupOffered(ctx context.Context) error {
	return p.store.Store(ctx, keySetupPrompted, true)
}

// ShouldOfferSetup is true iff the sensor is usable, the user has not opted
// in, and the prompt has never been shown. Keeps the offer at most-once per
// install until the user enables it.
func (p *Prefs) ShouldOfferSetup(ctx context.Context, gate Gate) bool {
	return gate.Available() && !p.Enabled(ctx) && !p.SetupOffered(ctx)
}
