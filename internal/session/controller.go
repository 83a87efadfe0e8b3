// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package session implements the authentication state machine. The
// controller owns the current auth state, the selected provider, the token
// refresh timer, and the inactivity timer, and is the only writer of the
// persisted session records.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/idpkit/idpkit/internal/biometric"
	"github.com/idpkit/idpkit/internal/models"
	"github.com/idpkit/idpkit/internal/providers"
	"github.com/idpkit/idpkit/internal/securestore"
	"github.com/idpkit/idpkit/internal/tokenexchange"
)

const (
	// Tokens are refreshed five minutes before expiry, but never sooner
	// than one minute out to avoid thrashing on short-lived tokens.
	refreshLead     = 5 * time.Minute
	minRefreshDelay = time.Minute

	// The session ends after thirty minutes without user activity.
	inactivityTimeout = 30 * time.Minute

	// On foreground resume, tokens this close to expiry are refreshed
	// immediately rather than waiting for the timer.
	resumeRefreshWindow = 10 * time.Minute
)

// Controller is the session controller. All public operations are
// serialized: a login racing a scheduled refresh runs after it, never
// interleaved with it.
type Controller struct {
	store    securestore.Store
	gate     biometric.Gate
	prefs    *biometric.Prefs
	catalog  *providers.Catalog
	exchange tokenexchange.Exchanger

	// opMu serializes whole operations; mu guards the fields below and is
	// never held across network or storage calls.
	opMu sync.Mutex
	mu   sync.Mutex

	state        models.AuthState
	provider     *models.IdentityProvider
	generation   uint64
	refreshTimer timer
	timeoutTimer timer
	lastActivity time.Time

	broadcast *broadcaster
	refreshSF singleflight.Group

	newTimer timerFactory
	now      func() time.Time
}

// New builds a controller and restores the provider selection persisted
// from a previous run, falling back to the catalog default.
func New(ctx context.Context, store securestore.Store, gate biometric.Gate, prefs *biometric.Prefs, catalog *providers.Catalog, exchange tokenexchange.Exchanger) *Controller {
	c := &Controller{
		store:     store,
		gate:      gate,
		prefs:     prefs,
		catalog:   catalog,
		exchange:  exchange,
		state:     models.Unauthenticated(),
		broadcast: newBroadcaster(),
		newTimer:  defaultTimerFactory,
		now:       time.Now,
	}

	c.restoreProvider(ctx)
	return c
}

func (c *Controller) restoreProvider(ctx context.Context) {
	var storedID string
	err := c.store.Retrieve(ctx, securestore.KeySelectedProvider, &storedID)
	if err == nil {
		if p, ok := c.catalog.ByID(storedID); ok {
			c.provider = &p
			return
		}
		log.Warn().Str("provider", storedID).Msg("Stored provider no longer in catalog, using default")
	} else if !errors.Is(err, securestore.ErrNotFound) {
		log.Error().Err(err).Msg("Failed to read stored provider selection")
	}

	p := c.catalog.Default()
	c.provider = &p
}

// State returns the current authentication state.
func (c *Controller) State() models.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel receiving every state transition and a cancel
// func releasing it.
func (c *Controller) Subscribe() (<-chan models.AuthState, func()) {
	return c.broadcast.subscribe()
}

// SelectedProvider returns the currently selected provider.
func (c *Controller) SelectedProvider() models.IdentityProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.provider
}

// Providers returns the catalog in load order.
func (c *Controller) Providers() []models.IdentityProvider {
	return c.catalog.All()
}

// CheckStatus restores a prior session on startup. With no stored tokens it
// leaves the state unauthenticated; with biometrics enabled and available
// it routes through the biometric prompt first.
func (c *Controller) CheckStatus(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var tokens models.AuthTokens
	if err := c.store.Retrieve(ctx, securestore.KeyAuthTokens, &tokens); err != nil {
		if !errors.Is(err, securestore.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to read stored tokens")
		}
		c.setState(models.Unauthenticated())
		return
	}

	if c.prefs.Enabled(ctx) && c.gate.Available() {
		c.biometricFlow(ctx)
		return
	}

	c.performCheck(ctx)
}

// Authenticate runs the password grant for the selected provider.
// Credentials are used for this one exchange and discarded.
func (c *Controller) Authenticate(ctx context.Context, creds models.Credentials) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	provider := c.provider
	c.mu.Unlock()

	if provider == nil {
		c.setState(models.ErrorState(models.NewConfigurationError("no provider selected")))
		return
	}

	c.setState(models.Authenticating())

	tokens, err := c.exchange.Authenticate(ctx, creds, *provider)
	if err != nil {
		c.setState(models.ErrorState(asAuthError(err)))
		return
	}

	user, err := c.exchange.UserInfo(ctx, tokens.AccessToken, *provider)
	if err != nil {
		c.setState(models.ErrorState(asAuthError(err)))
		return
	}

	if err := c.persistSession(ctx, tokens, user, provider.ID); err != nil {
		c.setState(models.ErrorState(models.NewStorageError(err)))
		return
	}

	log.Info().Str("provider", provider.ID).Msg("Authentication succeeded")
	c.establishSession(*user, *tokens)
}

// AuthenticateWithBiometrics runs one sensor verify cycle and, on success,
// restores the stored session. Cancellation returns to unauthenticated
// without surfacing an error.
func (c *Controller) AuthenticateWithBiometrics(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.biometricFlow(ctx)
}

func (c *Controller) biometricFlow(ctx context.Context) {
	if !c.gate.Available() || !c.prefs.Enabled(ctx) {
		c.setState(models.ErrorState(models.NewBiometricFailedError()))
		return
	}

	c.setState(models.BiometricPrompt())

	err := c.gate.Verify(ctx)
	switch {
	case err == nil:
		c.performCheck(ctx)
	case errors.Is(err, biometric.ErrCancelled):
		// Cancelling is a deliberate choice, not a failure.
		c.setState(models.Unauthenticated())
	default:
		log.Debug().Err(err).Msg("Biometric verification failed")
		c.setState(models.ErrorState(models.NewBiometricFailedError()))
	}
}

// performCheck validates the stored session: valid tokens authenticate
// immediately, expired tokens with a refresh token go through the refresh
// flow, anything missing or corrupt lands unauthenticated.
func (c *Controller) performCheck(ctx context.Context) {
	var tokens models.AuthTokens
	if err := c.store.Retrieve(ctx, securestore.KeyAuthTokens, &tokens); err != nil {
		if !errors.Is(err, securestore.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to read stored tokens")
		}
		c.setState(models.Unauthenticated())
		return
	}

	var user models.User
	if err := c.store.Retrieve(ctx, securestore.KeyUser, &user); err != nil {
		if !errors.Is(err, securestore.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to read stored user")
		}
		c.setState(models.Unauthenticated())
		return
	}

	if !tokens.IsExpired(c.now()) {
		c.establishSession(user, tokens)
		return
	}

	c.refresh(ctx, tokens)
}

// refresh exchanges the refresh token for a new token set. Any failure ends
// the session with a token-expired error; concurrent triggers collapse into
// one upstream call.
func (c *Controller) refresh(ctx context.Context, tokens models.AuthTokens) {
	c.mu.Lock()
	provider := c.provider
	gen := c.generation
	c.mu.Unlock()

	if tokens.RefreshToken == "" || provider == nil {
		c.setState(models.ErrorState(models.NewTokenExpiredError()))
		return
	}

	result, err, _ := c.refreshSF.Do("refresh", func() (interface{}, error) {
		return c.exchange.Refresh(ctx, tokens.RefreshToken, *provider)
	})
	if err != nil {
		log.Debug().Err(err).Str("provider", provider.ID).Msg("Token refresh failed")
		c.setState(models.ErrorState(models.NewTokenExpiredError()))
		return
	}
	newTokens := result.(*models.AuthTokens)

	// A logout while the exchange was in flight wins: drop the result.
	if c.staleGeneration(gen) {
		log.Debug().Msg("Discarding refresh result after logout")
		return
	}

	if err := c.store.Store(ctx, securestore.KeyAuthTokens, newTokens); err != nil {
		c.setState(models.ErrorState(models.NewStorageError(err)))
		return
	}

	var user models.User
	if err := c.store.Retrieve(ctx, securestore.KeyUser, &user); err != nil {
		if !errors.Is(err, securestore.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to read stored user")
		}
		c.setState(models.Unauthenticated())
		return
	}

	log.Debug().Str("provider", provider.ID).Msg("Token refresh succeeded")
	c.establishSession(user, *newTokens)
}

// Logout ends the session: both timers are cancelled, in-flight refresh
// results are invalidated, and every stored credential is wiped.
func (c *Controller) Logout(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.logout(ctx)
}

func (c *Controller) logout(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	c.stopTimersLocked()
	c.mu.Unlock()

	if err := c.store.DeleteAll(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to wipe stored credentials")
	}

	c.setState(models.Unauthenticated())
}

// SelectProvider switches the active provider and persists the selection.
// The authentication state is unchanged.
func (c *Controller) SelectProvider(ctx context.Context, id string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	p, ok := c.catalog.ByID(id)
	if !ok {
		return models.NewConfigurationError("unknown provider " + id)
	}

	c.mu.Lock()
	c.provider = &p
	c.mu.Unlock()

	if err := c.store.Store(ctx, securestore.KeySelectedProvider, p.ID); err != nil {
		log.Error().Err(err).Str("provider", p.ID).Msg("Failed to persist provider selection")
		return models.NewStorageError(err)
	}
	return nil
}

// RefreshUserActivity records user interaction and rearms the inactivity
// timer. No-op unless authenticated.
func (c *Controller) RefreshUserActivity() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != models.PhaseAuthenticated {
		return
	}
	c.lastActivity = c.now()
	c.armTimeoutLocked(inactivityTimeout)
}

// HandleForegroundResume covers the window where the refresh timer could
// not fire while the process was suspended: tokens close to expiry are
// refreshed immediately.
func (c *Controller) HandleForegroundResume(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	authenticated := c.state.Phase == models.PhaseAuthenticated
	c.mu.Unlock()
	if !authenticated {
		return
	}

	var tokens models.AuthTokens
	if err := c.store.Retrieve(ctx, securestore.KeyAuthTokens, &tokens); err != nil {
		if !errors.Is(err, securestore.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to read stored tokens")
		}
		return
	}

	if tokens.TimeToExpiry(c.now()) < resumeRefreshWindow {
		log.Debug().Msg("Refreshing tokens on foreground resume")
		c.refresh(ctx, tokens)
	}
}

// Biometric preference passthroughs.

func (c *Controller) BiometricsEnabled(ctx context.Context) bool {
	return c.prefs.Enabled(ctx)
}

func (c *Controller) SetBiometricsEnabled(ctx context.Context, enabled bool) error {
	return c.prefs.SetEnabled(ctx, enabled)
}

func (c *Controller) ShouldOfferBiometricSetup(ctx context.Context) bool {
	return c.prefs.ShouldOfferSetup(ctx, c.gate)
}

func (c *Controller) MarkBiometricSetupOffered(ctx context.Context) error {
	return c.prefs.MarkSetupOffered(ctx)
}

func (c *Controller) BiometricKind() biometric.Kind {
	return c.gate.Kind()
}

// Close stops outstanding timers. The store is owned by the caller.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimersLocked()
}

// establishSession transitions to authenticated and arms both timers.
func (c *Controller) establishSession(user models.User, tokens models.AuthTokens) {
	c.setState(models.Authenticated(user))

	c.mu.Lock()
	c.scheduleRefreshLocked(tokens)
	c.lastActivity = c.now()
	c.armTimeoutLocked(inactivityTimeout)
	c.mu.Unlock()
}

func (c *Controller) persistSession(ctx context.Context, tokens *models.AuthTokens, user *models.User, providerID string) error {
	if err := c.store.Store(ctx, securestore.KeyAuthTokens, tokens); err != nil {
		return err
	}
	if err := c.store.Store(ctx, securestore.KeyUser, user); err != nil {
		return err
	}
	return c.store.Store(ctx, securestore.KeySelectedProvider, providerID)
}

// scheduleRefreshLocked arms the one-shot refresh timer, superseding any
// prior one. Caller holds mu.
func (c *Controller) scheduleRefreshLocked(tokens models.AuthTokens) {
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}

	delay := refreshDelay(tokens.ExpiresIn)
	gen := c.generation
	c.refreshTimer = c.newTimer(delay, func() {
		c.onRefreshTimer(gen)
	})
	log.Debug().Dur("delay", delay).Msg("Scheduled token refresh")
}

// refreshDelay computes the refresh timer delay: five minutes before
// expiry, floored at one minute.
func refreshDelay(expiresIn int64) time.Duration {
	delay := time.Duration(expiresIn)*time.Second - refreshLead
	if delay < minRefreshDelay {
		delay = minRefreshDelay
	}
	return delay
}

func (c *Controller) onRefreshTimer(gen uint64) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.staleGeneration(gen) {
		return
	}
	c.mu.Lock()
	authenticated := c.state.Phase == models.PhaseAuthenticated
	c.mu.Unlock()
	if !authenticated {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), securestore.DefaultTimeout)
	defer cancel()

	var tokens models.AuthTokens
	if err := c.store.Retrieve(ctx, securestore.KeyAuthTokens, &tokens); err != nil {
		if !errors.Is(err, securestore.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to read stored tokens")
		}
		return
	}
	c.refresh(ctx, tokens)
}

// armTimeoutLocked arms the inactivity timer, superseding any prior one.
// Caller holds mu.
func (c *Controller) armTimeoutLocked(delay time.Duration) {
	if c.timeoutTimer != nil {
		c.timeoutTimer.Stop()
	}

	gen := c.generation
	c.timeoutTimer = c.newTimer(delay, func() {
		c.onTimeoutTimer(gen)
	})
}

// onTimeoutTimer recomputes elapsed inactivity when the timer fires. Firing
// late (timer coalescing, suspend) never logs an active user out: if
// activity happened in the meantime the timer rearms for the remainder.
func (c *Controller) onTimeoutTimer(gen uint64) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.staleGeneration(gen) {
		return
	}

	c.mu.Lock()
	if c.state.Phase != models.PhaseAuthenticated {
		c.mu.Unlock()
		return
	}
	elapsed := c.now().Sub(c.lastActivity)
	if elapsed < inactivityTimeout {
		c.armTimeoutLocked(inactivityTimeout - elapsed)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	log.Info().Dur("inactive", elapsed).Msg("Session timed out from inactivity")

	ctx, cancel := context.WithTimeout(context.Background(), securestore.DefaultTimeout)
	defer cancel()
	c.logout(ctx)
}

func (c *Controller) staleGeneration(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen != c.generation
}

// stopTimersLocked cancels both timers. Caller holds mu.
func (c *Controller) stopTimersLocked() {
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	if c.timeoutTimer != nil {
		c.timeoutTimer.Stop()
		c.timeoutTimer = nil
	}
}

// setState publishes a transition. Equal states (same user id, same error
// kind) do not re-notify.
func (c *Controller) setState(state models.AuthState) {
	c.mu.Lock()
	if c.state.Equal(state) {
		c.mu.Unlock()
		return
	}
	prev := c.state.Phase
	c.state = state
	c.mu.Unlock()

	log.Debug().
		Str("from", string(prev)).
		Str("to", string(state.Phase)).
		Msg("Auth state transition")

	c.broadcast.publish(state)
}

// asAuthError normalizes any failure into the taxonomy.
func asAuthError(err error) *models.AuthError {
	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return models.NewUnknownError(err)
}
