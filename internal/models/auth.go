// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"net/url"
	"time"
)

// Credentials holds a username/password pair for a single password-grant
// attempt. Never persisted and never logged.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthTokens is the full token set issued by a provider. It is replaced
// wholesale on every successful exchange or refresh, never patched.
type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	Scope        string    `json:"scope,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// IsExpired reports whether the access token has passed its lifetime.
func (t AuthTokens) IsExpired(now time.Time) bool {
	return now.Sub(t.IssuedAt) >= time.Duration(t.ExpiresIn)*time.Second
}

// ExpirationDate returns the instant the access token expires.
func (t AuthTokens) ExpirationDate() time.Time {
	return t.IssuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// TimeToExpiry returns the remaining access token lifetime, negative if
// already expired.
func (t AuthTokens) TimeToExpiry(now time.Time) time.Duration {
	return t.ExpirationDate().Sub(now)
}

// User is the authenticated identity. ID is the identity; everything else
// is display metadata.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Provider    string `json:"provider"`
}

// IdentityProvider describes one configured OAuth provider. Immutable once
// loaded from the catalog.
type IdentityProvider struct {
	ID                    string `json:"id" yaml:"id"`
	Name                  string `json:"name" yaml:"name"`
	DisplayName           string `json:"display_name" yaml:"display_name"`
	AuthorizationEndpoint string `json:"authorization_endpoint" yaml:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint" yaml:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint,omitempty" yaml:"userinfo_endpoint,omitempty"`
	ClientID              string `json:"client_id" yaml:"client_id"`
	Scope                 string `json:"scope" yaml:"scope"`
	IsDefault             bool   `json:"is_default,omitempty" yaml:"is_default,omitempty"`
}

// Endpoints returns the provider endpoints that must be present and HTTPS.
// The userinfo endpoint is optional and only included when set.
func (p IdentityProvider) Endpoints() map[string]string {
	endpoints := map[string]string{
		"authorization_endpoint": p.AuthorizationEndpoint,
		"token_endpoint":         p.TokenEndpoint,
	}
	if p.UserInfoEndpoint != "" {
		endpoints["userinfo_endpoint"] = p.UserInfoEndpoint
	}
	return endpoints
}

// IsSecureURL reports whether raw parses as an absolute https URL.
func IsSecureURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "https" && u.Host != ""
}
