// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idpkit/idpkit/internal/session"
)

// ProvidersHandler exposes the provider catalog and the active selection.
type ProvidersHandler struct {
	controller *session.Controller
}

func NewProvidersHandler(controller *session.Controller) *ProvidersHandler {
	return &ProvidersHandler{controller: controller}
}

type selectProviderRequest struct {
	ID string `json:"id" binding:"required"`
}

// List returns the catalog and the currently selected provider id.
func (h *ProvidersHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": h.controller.Providers(),
		"selected":  h.controller.SelectedProvider().ID,
	})
}

// Select switches the active provider. Selecting an unknown id leaves the
// current selection untouched.
func (h *ProvidersHandler) Select(c *gin.Context) {
	var req selectProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider id is required"})
		return
	}

	if err := h.controller.SelectProvider(c.Request.Context(), req.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"selected": req.ID})
}
