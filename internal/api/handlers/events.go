// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/idpkit/idpkit/internal/models"
	"github.com/idpkit/idpkit/internal/session"
)

const keepAliveInterval = 15 * time.Second

// EventsHandler streams auth state transitions over SSE.
type EventsHandler struct {
	controller *session.Controller
}

func NewEventsHandler(controller *session.Controller) *EventsHandler {
	return &EventsHandler{controller: controller}
}

// StreamState handles SSE connections for real-time auth state updates. The
// current state is sent immediately so clients never render from nothing,
// then every transition follows as it happens.
func (h *EventsHandler) StreamState(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable proxy buffering

	states, cancel := h.controller.Subscribe()
	defer cancel()

	log.Debug().Str("ip", c.ClientIP()).Msg("SSE client connected")

	if !h.sendState(c, h.controller.State()) {
		return
	}

	ctx := c.Request.Context()
	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("ip", c.ClientIP()).Msg("SSE client disconnected")
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			if !h.sendState(c, state) {
				return
			}
		case <-keepAliveTicker.C:
			c.SSEvent("keepalive", time.Now().Unix())
			c.Writer.Flush()
		}
	}
}

func (h *EventsHandler) sendState(c *gin.Context, state models.AuthState) bool {
	data, err := json.Marshal(state)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal auth state")
		return false
	}
	c.SSEvent("state", string(data))
	c.Writer.Flush()
	return true
}
