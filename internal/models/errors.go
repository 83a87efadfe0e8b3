// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import "fmt"

// ErrorKind classifies authentication failures. Two AuthErrors compare equal
// when their kinds match, so formatted detail strings never cause spurious
// state inequality.
type ErrorKind string

const (
	ErrInvalidCredentials ErrorKind = "invalid_credentials"
	ErrTokenExpired       ErrorKind = "token_expired"
	ErrServer             ErrorKind = "server_error"
	ErrNetwork            ErrorKind = "network_error"
	ErrConfiguration      ErrorKind = "configuration_error"
	ErrBiometricFailed    ErrorKind = "biometric_authentication_failed"
	ErrStorage            ErrorKind = "storage_error"
	ErrUnknown            ErrorKind = "unknown_error"
)

// AuthError is the taxonomy surfaced through the Error auth state. Status and
// Body are populated for server errors only; Cause carries the underlying
// error for network/storage/unknown kinds.
type AuthError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message,omitempty"`
	Status  int       `json:"status,omitempty"`
	Body    string    `json:"body,omitempty"`
	Cause   error     `json:"-"`
}

func (e *AuthError) Error() string {
	switch e.Kind {
	case ErrInvalidCredentials:
		return "invalid username or password"
	case ErrTokenExpired:
		return "session expired, please log in again"
	case ErrServer:
		if e.Body != "" {
			return fmt.Sprintf("server error (%d): %s", e.Status, e.Body)
		}
		return fmt.Sprintf("server error (%d)", e.Status)
	case ErrNetwork:
		return fmt.Sprintf("network error: %v", e.Cause)
	case ErrConfiguration:
		return fmt.Sprintf("configuration error: %s", e.Message)
	case ErrBiometricFailed:
		return "biometric authentication failed"
	case ErrStorage:
		return fmt.Sprintf("storage error: %v", e.Cause)
	default:
		return fmt.Sprintf("unknown error: %v", e.Cause)
	}
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// Is matches AuthErrors by kind, for errors.Is comparisons against
// kind-only sentinels.
func (e *AuthError) Is(target error) bool {
	other, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func NewInvalidCredentialsError() *AuthError {
	return &AuthError{Kind: ErrInvalidCredentials}
}

func NewTokenExpiredError() *AuthError {
	return &AuthError{Kind: ErrTokenExpired}
}

func NewServerError(status int, body string) *AuthError {
	return &AuthError{Kind: ErrServer, Status: status, Body: body}
}

func NewNetworkError(cause error) *AuthError {
	return &AuthError{Kind: ErrNetwork, Cause: cause}
}

func NewConfigurationError(message string) *AuthError {
	return &AuthError{Kind: ErrConfiguration, Message: message}
}

func NewBiometricFailedError() *AuthError {
	return &AuthError{Kind: ErrBiometricFailed}
}

func NewStorageError(cause error) *AuthError {
	return &AuthError{Kind: ErrStorage, Cause: cause}
}

func NewUnknownError(cause error) *AuthError {
	return &AuthError{Kind: ErrUnknown, Cause: cause}
}
