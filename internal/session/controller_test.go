// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idpkit/idpkit/internal/biometric"
	"github.com/idpkit/idpkit/internal/models"
	"github.com/idpkit/idpkit/internal/providers"
	"github.com/idpkit/idpkit/internal/securestore"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeTimer records its delay and never fires on its own; tests invoke fn
// directly.
type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type timerRecorder struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (r *timerRecorder) factory(delay time.Duration, fn func()) timer {
	t := &fakeTimer{delay: delay, fn: fn}
	r.mu.Lock()
	r.timers = append(r.timers, t)
	r.mu.Unlock()
	return t
}

func (r *timerRecorder) all() []*fakeTimer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*fakeTimer, len(r.timers))
	copy(out, r.timers)
	return out
}

func (r *timerRecorder) live() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range r.all() {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// fakeExchanger stubs the token exchange with per-call hooks and counters.
type fakeExchanger struct {
	mu            sync.Mutex
	authFn        func(models.Credentials, models.IdentityProvider) (*models.AuthTokens, error)
	refreshFn     func(string, models.IdentityProvider) (*models.AuthTokens, error)
	userInfoFn    func(string, models.IdentityProvider) (*models.User, error)
	authCalls     int
	refreshCalls  int
	userInfoCalls int
}

func (f *fakeExchanger) Authenticate(ctx context.Context, creds models.Credentials, p models.IdentityProvider) (*models.AuthTokens, error) {
	f.mu.Lock()
	f.authCalls++
	fn := f.authFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("fakeExchanger: Authenticate not configured")
	}
	return fn(creds, p)
}

func (f *fakeExchanger) Refresh(ctx context.Context, refreshToken string, p models.IdentityProvider) (*models.AuthTokens, error) {
	f.mu.Lock()
	f.refreshCalls++
	fn := f.refreshFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("fakeExchanger: Refresh not configured")
	}
	return fn(refreshToken, p)
}

func (f *fakeExchanger) UserInfo(ctx context.Context, accessToken string, p models.IdentityProvider) (*models.User, error) {
	f.mu.Lock()
	f.userInfoCalls++
	fn := f.userInfoFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("fakeExchanger: UserInfo not configured")
	}
	return fn(accessToken, p)
}

type fixture struct {
	controller *Controller
	store      *securestore.MemoryStore
	prefs      *biometric.Prefs
	exchanger  *fakeExchanger
	clock      *fakeClock
	timers     *timerRecorder
}

func testCatalog(t *testing.T) *providers.Catalog {
	t.Helper()
	catalog, err := providers.New([]models.IdentityProvider{
		{
			ID:                    "corp",
			Name:                  "corp",
			DisplayName:           "Corp SSO",
			AuthorizationEndpoint: "https://idp.example.com/authorize",
			TokenEndpoint:         "https://idp.example.com/token",
			UserInfoEndpoint:      "https://idp.example.com/userinfo",
			ClientID:              "corp-client",
			Scope:                 "openid profile",
			IsDefault:             true,
		},
		{
			ID:                    "staging",
			Name:                  "staging",
			DisplayName:           "Staging SSO",
			AuthorizationEndpoint: "https://staging.example.com/authorize",
			TokenEndpoint:         "https://staging.example.com/token",
			ClientID:              "staging-client",
			Scope:                 "openid",
		},
	})
	require.NoError(t, err)
	return catalog
}

func newFixture(t *testing.T, gate biometric.Gate) *fixture {
	t.Helper()

	store := securestore.NewMemoryStore(securestore.NamespaceSession)
	t.Cleanup(func() { store.Close() })

	prefs := biometric.NewPrefs(store.Namespace(securestore.NamespacePrefs))
	exchanger := &fakeExchanger{}
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	timers := &timerRecorder{}

	c := New(context.Background(), store, gate, prefs, testCatalog(t), exchanger)
	c.now = clock.Now
	c.newTimer = timers.factory

	return &fixture{
		controller: c,
		store:      store,
		prefs:      prefs,
		exchanger:  exchanger,
		clock:      clock,
		timers:     timers,
	}
}

func (f *fixture) seedSession(t *testing.T, tokens models.AuthTokens, user models.User) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Store(ctx, securestore.KeyAuthTokens, tokens))
	require.NoError(t, f.store.Store(ctx, securestore.KeyUser, user))
	require.NoError(t, f.store.Store(ctx, securestore.KeySelectedProvider, "corp"))
}

func testUser() models.User {
	return models.User{ID: "user-1", Username: "jdoe", Provider: "corp"}
}

func (f *fixture) validTokens(expiresIn int64) models.AuthTokens {
	return models.AuthTokens{
		AccessToken:  "at-123",
		RefreshToken: "rt-456",
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
		IssuedAt:     f.clock.Now(),
	}
}

func (f *fixture) expiredTokens() models.AuthTokens {
	tokens := f.validTokens(3600)
	tokens.IssuedAt = f.clock.Now().Add(-2 * time.Hour)
	return tokens
}

func assertPhase(t *testing.T, c *Controller, phase models.AuthPhase) {
	t.Helper()
	assert.Equal(t, phase, c.State().Phase)
}

func assertErrorKind(t *testing.T, c *Controller, kind models.ErrorKind) {
	t.Helper()
	state := c.State()
	require.Equal(t, models.PhaseError, state.Phase)
	require.NotNil(t, state.Err)
	assert.Equal(t, kind, state.Err.Kind)
}

func TestCheckStatusNoStoredTokens(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))

	f.controller.CheckStatus(context.Background())

	assertPhase(t, f.controller, models.PhaseUnauthenticated)
	assert.Zero(t, f.exchanger.refreshCalls)
	assert.Zero(t, f.exchanger.authCalls)
}

func TestCheckStatusValidTokensBiometricsDisabled(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	f.seedSession(t, f.validTokens(3600), testUser())

	f.controller.CheckStatus(context.Background())

	state := f.controller.State()
	require.Equal(t, models.PhaseAuthenticated, state.Phase)
	assert.Equal(t, "user-1", state.User.ID)
	assert.Zero(t, f.exchanger.refreshCalls, "valid tokens must not trigger a refresh")
}

func TestCheckStatusExpiredTokensRefreshSucceeds(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	f.seedSession(t, f.expiredTokens(), testUser())

	refreshed := f.validTokens(3600)
	refreshed.AccessToken = "at-new"
	f.exchanger.refreshFn = func(rt string, p models.IdentityProvider) (*models.AuthTokens, error) {
		assert.Equal(t, "rt-456", rt)
		return &refreshed, nil
	}

	f.controller.CheckStatus(context.Background())

	assertPhase(t, f.controller, models.PhaseAuthenticated)
	assert.Equal(t, 1, f.exchanger.refreshCalls)

	var stored models.AuthTokens
	require.NoError(t, f.store.Retrieve(context.Background(), securestore.KeyAuthTokens, &stored))
	assert.Equal(t, "at-new", stored.AccessToken)
}

func TestCheckStatusExpiredTokensRefreshFails(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	f.seedSession(t, f.expiredTokens(), testUser())

	f.exchanger.refreshFn = func(rt string, p models.IdentityProvider) (*models.AuthTokens, error) {
		return nil, models.NewTokenExpiredError()
	}

	f.controller.CheckStatus(context.Background())

	assertErrorKind(t, f.controller, models.ErrTokenExpired)
}

func TestCheckStatusExpiredWithoutRefreshToken(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	tokens := f.expiredTokens()
	tokens.RefreshToken = ""
	f.seedSession(t, tokens, testUser())

	f.controller.CheckStatus(context.Background())

	assertErrorKind(t, f.controller, models.ErrTokenExpired)
	assert.Zero(t, f.exchanger.refreshCalls)
}

func TestCheckStatusCorruptUserRecord(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	ctx := context.Background()
	require.NoError(t, f.store.Store(ctx, securestore.KeyAuthTokens, f.validTokens(3600)))
	// No user record alongside the tokens.

	f.controller.CheckStatus(ctx)

	assertPhase(t, f.controller, models.PhaseUnauthenticated)
}

func TestAuthenticateSuccess(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))

	tokens := f.validTokens(3600)
	user := testUser()
	f.exchanger.authFn = func(creds models.Credentials, p models.IdentityProvider) (*models.AuthTokens, error) {
		assert.Equal(t, "jdoe", creds.Username)
		assert.Equal(t, "corp", p.ID)
		return &tokens, nil
	}
	f.exchanger.userInfoFn = func(at string, p models.IdentityProvider) (*models.User, error) {
		assert.Equal(t, "at-123", at)
		return &user, nil
	}

	states, cancel := f.controller.Subscribe()
	defer cancel()

	f.controller.Authenticate(context.Background(), models.Credentials{Username: "jdoe", Password: "hunter2"})

	assert.Equal(t, models.PhaseAuthenticating, (<-states).Phase)
	assert.Equal(t, models.PhaseAuthenticated, (<-states).Phase)

	ctx := context.Background()
	var storedTokens models.AuthTokens
	require.NoError(t, f.store.Retrieve(ctx, securestore.KeyAuthTokens, &storedTokens))
	var storedUser models.User
	require.NoError(t, f.store.Retrieve(ctx, securestore.KeyUser, &storedUser))
	var storedProvider string
	require.NoError(t, f.store.Retrieve(ctx, securestore.KeySelectedProvider, &storedProvider))
	assert.Equal(t, "corp", storedProvider)

	// Refresh and inactivity timers are both armed.
	require.Len(t, f.timers.live(), 2)
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))

	f.exchanger.authFn = func(creds models.Credentials, p models.IdentityProvider) (*models.AuthTokens, error) {
		return nil, models.NewInvalidCredentialsError()
	}

	f.controller.Authenticate(context.Background(), models.Credentials{Username: "invalid", Password: "invalid"})

	assertErrorKind(t, f.controller, models.ErrInvalidCredentials)

	var tokens models.AuthTokens
	err := f.store.Retrieve(context.Background(), securestore.KeyAuthTokens, &tokens)
	assert.ErrorIs(t, err, securestore.ErrNotFound, "no tokens may be persisted on failure")
}

func TestAuthenticateNetworkError(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))

	f.exchanger.authFn = func(creds models.Credentials, p models.IdentityProvider) (*models.AuthTokens, error) {
		return nil, models.NewNetworkError(errors.New("connection refused"))
	}

	f.controller.Authenticate(context.Background(), models.Credentials{Username: "jdoe", Password: "pw"})

	assertErrorKind(t, f.controller, models.ErrNetwork)
}

func TestBiometricFlowSuccess(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindFace, nil))
	ctx := context.Background()
	require.NoError(t, f.prefs.SetEnabled(ctx, true))
	f.seedSession(t, f.validTokens(3600), testUser())

	states, cancel := f.controller.Subscribe()
	defer cancel()

	f.controller.CheckStatus(ctx)

	assert.Equal(t, models.PhaseBiometricPrompt, (<-states).Phase)
	assert.Equal(t, models.PhaseAuthenticated, (<-states).Phase)
}

func TestBiometricCancelledIsSilent(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindFace, biometric.ErrCancelled))
	ctx := context.Background()
	require.NoError(t, f.prefs.SetEnabled(ctx, true))
	f.seedSession(t, f.validTokens(3600), testUser())

	states, cancel := f.controller.Subscribe()
	defer cancel()

	f.controller.AuthenticateWithBiometrics(ctx)

	assertPhase(t, f.controller, models.PhaseUnauthenticated)

	// No Error state may have been observed along the way.
	cancel()
	for state := range states {
		assert.NotEqual(t, models.PhaseError, state.Phase)
	}
}

func TestBiometricFailureModes(t *testing.T) {
	tests := []struct {
		name    string
		verdict error
	}{
		{"lockout", biometric.ErrLockout},
		{"failed", biometric.ErrFailed},
		{"not available mid-cycle", biometric.ErrNotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, biometric.NewStaticGate(biometric.KindFingerprint, tt.verdict))
			ctx := context.Background()
			require.NoError(t, f.prefs.SetEnabled(ctx, true))
			f.seedSession(t, f.validTokens(3600), testUser())

			f.controller.AuthenticateWithBiometrics(ctx)

			assertErrorKind(t, f.controller, models.ErrBiometricFailed)
		})
	}
}

func TestBiometricUnavailableSensor(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))

	f.controller.AuthenticateWithBiometrics(context.Background())

	assertErrorKind(t, f.controller, models.ErrBiometricFailed)
}

func TestLogoutWipesStorage(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	ctx := context.Background()
	f.seedSession(t, f.validTokens(3600), testUser())
	f.controller.CheckStatus(ctx)
	assertPhase(t, f.controller, models.PhaseAuthenticated)

	f.controller.Logout(ctx)

	assertPhase(t, f.controller, models.PhaseUnauthenticated)
	for _, key := range []string{securestore.KeyAuthTokens, securestore.KeyUser, securestore.KeySelectedProvider} {
		var raw interface{}
		assert.ErrorIs(t, f.store.Retrieve(ctx, key, &raw), securestore.ErrNotFound, key)
	}

	// Both timers are gone.
	assert.Empty(t, f.timers.live())
}

func TestLogoutWinsOverInFlightRefresh(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	ctx := context.Background()
	f.seedSession(t, f.expiredTokens(), testUser())

	refreshStarted := make(chan struct{})
	releaseRefresh := make(chan struct{})
	refreshed := f.validTokens(3600)
	f.exchanger.refreshFn = func(rt string, p models.IdentityProvider) (*models.AuthTokens, error) {
		close(refreshStarted)
		<-releaseRefresh
		return &refreshed, nil
	}

	done := make(chan struct{})
	go func() {
		f.controller.CheckStatus(ctx)
		close(done)
	}()

	<-refreshStarted

	logoutDone := make(chan struct{})
	go func() {
		f.controller.Logout(ctx)
		close(logoutDone)
	}()

	close(releaseRefresh)
	<-done
	<-logoutDone

	assertPhase(t, f.controller, models.PhaseUnauthenticated)
	for _, key := range []string{securestore.KeyAuthTokens, securestore.KeyUser, securestore.KeySelectedProvider} {
		var raw interface{}
		assert.ErrorIs(t, f.store.Retrieve(ctx, key, &raw), securestore.ErrNotFound, key)
	}
}

func TestRefreshTimerSupersedes(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	f.seedSession(t, f.validTokens(3600), testUser())
	ctx := context.Background()

	f.controller.CheckStatus(ctx)
	first := f.timers.all()[0]
	require.False(t, first.stopped)

	// A second establishment must replace, not duplicate, the timer.
	f.controller.CheckStatus(ctx)

	var refreshTimers []*fakeTimer
	for _, tm := range f.timers.live() {
		if tm.delay == refreshDelay(3600) {
			refreshTimers = append(refreshTimers, tm)
		}
	}
	assert.Len(t, refreshTimers, 1, "at most one refresh timer may be armed")
	assert.True(t, first.stopped)
}

func TestRefreshDelayPolicy(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn int64
		want      time.Duration
	}{
		{"long-lived token", 3600, 55 * time.Minute},
		{"exactly at lead", 300, time.Minute},
		{"short-lived token", 90, time.Minute},
		{"already expired", 0, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, refreshDelay(tt.expiresIn))
		})
	}
}

func TestRefreshTimerFires(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	f.seedSession(t, f.validTokens(3600), testUser())
	ctx := context.Background()
	f.controller.CheckStatus(ctx)

	refreshed := f.validTokens(7200)
	refreshed.AccessToken = "at-new"
	f.exchanger.refreshFn = func(rt string, p models.IdentityProvider) (*models.AuthTokens, error) {
		return &refreshed, nil
	}

	var refreshTimer *fakeTimer
	for _, tm := range f.timers.live() {
		if tm.delay == refreshDelay(3600) {
			refreshTimer = tm
		}
	}
	require.NotNil(t, refreshTimer)

	refreshTimer.fn()

	assert.Equal(t, 1, f.exchanger.refreshCalls)
	var stored models.AuthTokens
	require.NoError(t, f.store.Retrieve(ctx, securestore.KeyAuthTokens, &stored))
	assert.Equal(t, "at-new", stored.AccessToken)
}

func TestRefreshTimerIgnoredAfterLogout(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	f.seedSession(t, f.validTokens(3600), testUser())
	ctx := context.Background()
	f.controller.CheckStatus(ctx)

	var refreshTimer *fakeTimer
	for _, tm := range f.timers.live() {
		if tm.delay == refreshDelay(3600) {
			refreshTimer = tm
		}
	}
	require.NotNil(t, refreshTimer)

	f.controller.Logout(ctx)

	// A dangling callback from before logout must not resurrect the session.
	refreshTimer.fn()

	assertPhase(t, f.controller, models.PhaseUnauthenticated)
	assert.Zero(t, f.exchanger.refreshCalls)
}

func TestInactivityTimeoutLogsOut(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	f.seedSession(t, f.validTokens(3600), testUser())
	ctx := context.Background()
	f.controller.CheckStatus(ctx)

	var timeoutTimer *fakeTimer
	for _, tm := range f.timers.live() {
		if tm.delay == inactivityTimeout {
			timeoutTimer = tm
		}
	}
	require.NotNil(t, timeoutTimer)

	f.clock.Advance(inactivityTimeout)
	timeoutTimer.fn()

	assertPhase(t, f.controller, models.PhaseUnauthenticated)
	var raw interface{}
	assert.ErrorIs(t, f.store.Retrieve(ctx, securestore.KeyAuthTokens, &raw), securestore.ErrNotFound)
}

func TestInactivityTimeoutRearmsWhenFiredEarly(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	f.seedSession(t, f.validTokens(3600), testUser())
	ctx := context.Background()
	f.controller.CheckStatus(ctx)

	var timeoutTimer *fakeTimer
	for _, tm := range f.timers.live() {
		if tm.delay == inactivityTimeout {
			timeoutTimer = tm
		}
	}
	require.NotNil(t, timeoutTimer)

	// Activity happened 10 minutes in; the timer fires anyway (coalescing).
	f.clock.Advance(10 * time.Minute)
	f.controller.RefreshUserActivity()
	f.clock.Advance(10 * time.Minute)
	timeoutTimer.fn()

	// Still authenticated, rearmed for the remaining 20 minutes.
	assertPhase(t, f.controller, models.PhaseAuthenticated)

	var rearmed *fakeTimer
	for _, tm := range f.timers.live() {
		if tm.delay == 20*time.Minute {
			rearmed = tm
		}
	}
	assert.NotNil(t, rearmed, "timer must rearm for the remaining delta")
}

func TestRefreshUserActivityIgnoredWhenUnauthenticated(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))

	f.controller.RefreshUserActivity()

	assert.Empty(t, f.timers.all())
}

func TestForegroundResumeRefreshesNearExpiry(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	f.seedSession(t, f.validTokens(3600), testUser())
	ctx := context.Background()
	f.controller.CheckStatus(ctx)

	refreshed := f.validTokens(3600)
	f.exchanger.refreshFn = func(rt string, p models.IdentityProvider) (*models.AuthTokens, error) {
		return &refreshed, nil
	}

	// 55 minutes later the token has 5 minutes left, under the 10 minute
	// readiness window.
	f.clock.Advance(55 * time.Minute)
	f.controller.HandleForegroundResume(ctx)

	assert.Equal(t, 1, f.exchanger.refreshCalls)
}

func TestForegroundResumeNoopWithFreshTokens(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	f.seedSession(t, f.validTokens(3600), testUser())
	ctx := context.Background()
	f.controller.CheckStatus(ctx)

	f.controller.HandleForegroundResume(ctx)

	assert.Zero(t, f.exchanger.refreshCalls)
}

func TestForegroundResumeNoopWhenUnauthenticated(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))

	f.controller.HandleForegroundResume(context.Background())

	assert.Zero(t, f.exchanger.refreshCalls)
}

func TestSelectProviderPersists(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	ctx := context.Background()

	require.NoError(t, f.controller.SelectProvider(ctx, "staging"))
	assert.Equal(t, "staging", f.controller.SelectedProvider().ID)
	assertPhase(t, f.controller, models.PhaseUnauthenticated)

	// A fresh controller over the same store restores the selection.
	restored := New(ctx, f.store, biometric.NewStaticGate(biometric.KindNone, nil), f.prefs, testCatalog(t), f.exchanger)
	assert.Equal(t, "staging", restored.SelectedProvider().ID)
}

func TestSelectProviderUnknown(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))

	err := f.controller.SelectProvider(context.Background(), "missing")
	require.Error(t, err)

	var authErr *models.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, models.ErrConfiguration, authErr.Kind)
	assert.Equal(t, "corp", f.controller.SelectedProvider().ID)
}

func TestDefaultProviderSelectedAtStartup(t *testing.T) {
	f := newFixture(t, biometric.NewStaticGate(biometric.KindNone, nil))
	assert.Equal(t, "corp", f.controller.SelectedProvider().ID)
}
