// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idpkit/idpkit/internal/models"
	"github.com/idpkit/idpkit/internal/session"
)

// SessionHandler exposes the session controller commands over HTTP. Every
// command responds with the resulting auth state so clients never need a
// follow-up poll.
type SessionHandler struct {
	controller *session.Controller
}

func NewSessionHandler(controller *session.Controller) *SessionHandler {
	return &SessionHandler{controller: controller}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GetState returns the current auth state.
func (h *SessionHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.State())
}

// Check restores a prior session from storage.
func (h *SessionHandler) Check(c *gin.Context) {
	h.controller.CheckStatus(c.Request.Context())
	respondState(c, h.controller.State())
}

// Login runs the password grant. The credentials are used for this one
// exchange and never logged or stored.
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	h.controller.Authenticate(c.Request.Context(), models.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	respondState(c, h.controller.State())
}

// Biometric runs one sensor verify cycle against the stored session.
func (h *SessionHandler) Biometric(c *gin.Context) {
	h.controller.AuthenticateWithBiometrics(c.Request.Context())
	respondState(c, h.controller.State())
}

// Logout ends the session and wipes stored credentials.
func (h *SessionHandler) Logout(c *gin.Context) {
	h.controller.Logout(c.Request.Context())
	c.JSON(http.StatusOK, h.controller.State())
}

// Activity records user interaction for the inactivity timeout.
func (h *SessionHandler) Activity(c *gin.Context) {
	h.controller.RefreshUserActivity()
	c.Status(http.StatusNoContent)
}

// Resume handles a foreground transition, refreshing tokens close to expiry.
func (h *SessionHandler) Resume(c *gin.Context) {
	h.controller.HandleForegroundResume(c.Request.Context())
	respondState(c, h.controller.State())
}

// respondState maps the auth state to an HTTP status: error states carry a
// meaningful code, everything else is a plain 200.
func respondState(c *gin.Context, state models.AuthState) {
	status := http.StatusOK
	if state.Phase == models.PhaseError && state.Err != nil {
		switch state.Err.Kind {
		case models.ErrInvalidCredentials, models.ErrTokenExpired, models.ErrBiometricFailed:
			status = http.StatusUnauthorized
		case models.ErrNetwork, models.ErrServer:
			status = http.StatusBadGateway
		default:
			status = http.StatusInternalServerError
		}
	}
	c.JSON(status, state)
}
