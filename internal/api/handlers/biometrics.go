// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idpkit/idpkit/internal/session"
)

// BiometricsHandler exposes the sensor capability and the user's enable
// preference.
type BiometricsHandler struct {
	controller *session.Controller
}

func NewBiometricsHandler(controller *session.Controller) *BiometricsHandler {
	return &BiometricsHandler{controller: controller}
}

type biometricsRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Get returns the sensor capability and current preferences.
func (h *BiometricsHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"kind":               h.controller.BiometricKind(),
		"enabled":            h.controller.BiometricsEnabled(ctx),
		"should_offer_setup": h.controller.ShouldOfferBiometricSetup(ctx),
	})
}

// Set updates the enable preference.
func (h *BiometricsHandler) Set(c *gin.Context) {
	var req biometricsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled flag is required"})
		return
	}

	if err := h.controller.SetBiometricsEnabled(c.Request.Context(), *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist preference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}

// MarkOffered records that the enrollment prompt was shown, so it is never
// shown again.
func (h *BiometricsHandler) MarkOffered(c *gin.Context) {
	if err := h.controller.MarkBiometricSetupOffered(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist preference"})
		return
	}
	c.Status(http.StatusNoContent)
}
