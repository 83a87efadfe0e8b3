// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package biometric abstracts the platform biometric sensor behind a
// capability interface and keeps the user's enable/offer preferences in the
// secure store.
package biometric

import (
	"context"
	"errors"
)

// Sensor failure modes. The session controller collapses all of these except
// ErrCancelled into a single biometric failure.
var (
	ErrNotAvailable = errors.New("biometric: not available")
	ErrCancelled    = errors.New("biometric: cancelled by user")
	ErrLockout      = errors.New("biometric: locked out")
	ErrFailed       = errors.New("biometric: verification failed")
)

// Kind identifies the sensor hardware.
type Kind string

const (
	KindNone        Kind = "none"
	KindFingerprint Kind = "fingerprint"
	KindFace        Kind = "face"
	KindIris        Kind = "iris"
)

// Gate is one present/verify cycle against the platform sensor.
type Gate interface {
	// Available reports whether a sensor is present and enrolled.
	Available() bool
	// Kind returns the sensor hardware kind, KindNone when unavailable.
	Kind() Kind
	// Verify runs a single verification cycle. A nil return means the user
	// passed; otherwise one of the sentinel errors above.
	Verify(ctx context.Context) error
}

// StaticGate is the non-platform Gate used when no sensor integration is
// compiled in. Its verdict is fixed at construction.
type StaticGate struct {
	kind    Kind
	verdict error
}

// NewStaticGate returns a gate reporting the given sensor kind. verdict is
// returned from every Verify call; nil always passes.
func NewStaticGate(kind Kind, verdict error) *StaticGate {
	return &StaticGate{kind: kind, verdict: verdict}
}

func (g *StaticGate) Available() bool {
	return g.kind != KindNone
}

func (g *StaticGate) Kind() Kind {
	if g.kind == "" {
		return KindNone
	}
	return g.kind
}

func (g *StaticGate) Verify(ctx context.Context) error {
	if g.kind == KindNone {
		return ErrNotAvailable
	}
	if err := ctx.Err(); err != nil {
		return ErrCancelled
	}
	return g.verdict
}
