// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

// AuthPhase names the position in the authentication state machine.
type AuthPhase string

const (
	PhaseUnauthenticated AuthPhase = "unauthenticated"
	PhaseAuthenticating  AuthPhase = "authenticating"
	PhaseAuthenticated   AuthPhase = "authenticated"
	PhaseBiometricPrompt AuthPhase = "biometric_prompt"
	PhaseError           AuthPhase = "error"
)

// AuthState is the single observable value the presentation layer watches.
// Exactly one phase is live at a time; User is set only for
// PhaseAuthenticated and Err only for PhaseError.
type AuthState struct {
	Phase AuthPhase  `json:"phase"`
	User  *User      `json:"user,omitempty"`
	Err   *AuthError `json:"error,omitempty"`
}

func Unauthenticated() AuthState {
	return AuthState{Phase: PhaseUnauthenticated}
}

func Authenticating() AuthState {
	return AuthState{Phase: PhaseAuthenticating}
}

func Authenticated(user User) AuthState {
	return AuthState{Phase: PhaseAuthenticated, User: &user}
}

func BiometricPrompt() AuthState {
	return AuthState{Phase: PhaseBiometricPrompt}
}

func ErrorState(err *AuthError) AuthState {
	return AuthState{Phase: PhaseError, Err: err}
}

// Equal compares states the way observers care about: authenticated states
// by user id only, error states by error kind only.
func (s AuthState) Equal(other AuthState) bool {
	if s.Phase != other.Phase {
		return false
	}
	switch s.Phase {
	case PhaseAuthenticated:
		return s.User != nil && other.User != nil && s.User.ID == other.User.ID
	case PhaseError:
		return s.Err != nil && other.Err != nil && s.Err.Kind == other.Err.Kind
	default:
		return true
	}
}
