// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tokenexchange implements the three stateless OAuth operations:
// password grant, refresh grant, and userinfo. Each is a single
// request/response cycle; retries are the caller's concern.
package tokenexchange

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/idpkit/idpkit/internal/models"
)

const maxErrorBody = 4 << 10

// Exchanger is the token exchange capability the session controller depends
// on.
type Exchanger interface {
	Authenticate(ctx context.Context, creds models.Credentials, provider models.IdentityProvider) (*models.AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string, provider models.IdentityProvider) (*models.AuthTokens, error)
	UserInfo(ctx context.Context, accessToken string, provider models.IdentityProvider) (*models.User, error)
}

// OAuthExchanger implements Exchanger over golang.org/x/oauth2.
type OAuthExchanger struct {
	client *http.Client
	now    func() time.Time
}

func NewOAuthExchanger() *OAuthExchanger {
	return &OAuthExchanger{
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (e *OAuthExchanger) oauthConfig(provider models.IdentityProvider) *oauth2.Config {
	return &oauth2.Config{
		ClientID: provider.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  provider.AuthorizationEndpoint,
			TokenURL: provider.TokenEndpoint,
			// Public client: client_id goes in the form body.
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: strings.Fields(provider.Scope),
	}
}

func (e *OAuthExchanger) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, e.client)
}

// Authenticate performs the password grant and returns a fresh token set
// with IssuedAt set to now.
func (e *OAuthExchanger) Authenticate(ctx context.Context, creds models.Credentials, provider models.IdentityProvider) (*models.AuthTokens, error) {
	cfg := e.oauthConfig(provider)

	tok, err := cfg.PasswordCredentialsToken(e.oauthContext(ctx), creds.Username, creds.Password)
	if err != nil {
		log.Debug().Str("provider", provider.ID).Msg("Password grant failed")
		return nil, mapGrantError(err, models.NewInvalidCredentialsError())
	}

	return e.tokensFromOAuth(tok, ""), nil
}

// Refresh performs the refresh grant. When the provider does not rotate the
// refresh token, the prior one is retained on the returned set.
func (e *OAuthExchanger) Refresh(ctx context.Context, refreshToken string, provider models.IdentityProvider) (*models.AuthTokens, error) {
	cfg := e.oauthConfig(provider)

	src := cfg.TokenSource(e.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		log.Debug().Str("provider", provider.ID).Msg("Refresh grant failed")
		return nil, mapGrantError(err, models.NewTokenExpiredError())
	}

	return e.tokensFromOAuth(tok, refreshToken), nil
}

// UserInfo fetches profile claims for the bearer token. A provider without
// a userinfo endpoint yields a synthesized minimal user; that is a
// capability fallback, not an error.
func (e *OAuthExchanger) UserInfo(ctx context.Context, accessToken string, provider models.IdentityProvider) (*models.User, error) {
	if provider.UserInfoEndpoint == "" {
		id, err := generateSecureRandomString(32)
		if err != nil {
			return nil, models.NewUnknownError(err)
		}
		return &models.User{
			ID:       id,
			Username: "user",
			Provider: provider.ID,
		}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.UserInfoEndpoint, nil)
	if err != nil {
		return nil, models.NewUnknownError(err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, models.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, models.NewTokenExpiredError()
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, models.NewServerError(resp.StatusCode, string(body))
	}

	var info struct {
		Sub               string `json:"sub"`
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
		Name              string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, models.NewUnknownError(err)
	}

	username := info.PreferredUsername
	if username == "" {
		username = info.Sub
	}

	return &models.User{
		ID:          info.Sub,
		Username:    username,
		Email:       info.Email,
		DisplayName: info.Name,
		Provider:    provider.ID,
	}, nil
}

// tokensFromOAuth converts an oauth2 token into the persisted shape.
// priorRefresh is kept when the response carried no rotation.
func (e *OAuthExchanger) tokensFromOAuth(tok *oauth2.Token, priorRefresh string) *models.AuthTokens {
	now := e.now()

	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = priorRefresh
	}

	expiresIn := extraInt64(tok, "expires_in")
	if expiresIn == 0 && !tok.Expiry.IsZero() {
		expiresIn = int64(tok.Expiry.Sub(now).Seconds())
	}

	return &models.AuthTokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		TokenType:    tok.TokenType,
		ExpiresIn:    expiresIn,
		Scope:        extraString(tok, "scope"),
		IDToken:      extraString(tok, "id_token"),
		IssuedAt:     now,
	}
}

func extraString(tok *oauth2.Token, key string) string {
	if v, ok := tok.Extra(key).(string); ok {
		return v
	}
	return ""
}

func extraInt64(tok *oauth2.Token, key string) int64 {
	switch v := tok.Extra(key).(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

// mapGrantError translates a token endpoint failure into the auth error
// taxonomy. on401 distinguishes the password grant (invalid credentials)
// from the refresh grant (expired session).
func mapGrantError(err error, on401 *models.AuthError) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		if status == http.StatusUnauthorized {
			return on401
		}
		return models.NewServerError(status, string(rerr.Body))
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return models.NewNetworkError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewNetworkError(err)
	}
	return models.NewUnknownError(err)
}

// generateSecureRandomString generates a cryptographically secure random string
func generateSecureRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}
