// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/idpkit/idpkit/internal/api/handlers"
	"github.com/idpkit/idpkit/internal/api/middleware"
	"github.com/idpkit/idpkit/internal/session"
)

// SetupRoutes configures all routes for the session API.
func SetupRoutes(r *gin.Engine, controller *session.Controller) {
	gin.SetMode(gin.ReleaseMode)

	r.Use(middleware.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.SetupCORS())
	r.Use(middleware.Secure(nil))

	sessionHandler := handlers.NewSessionHandler(controller)
	providersHandler := handlers.NewProvidersHandler(controller)
	biometricsHandler := handlers.NewBiometricsHandler(controller)
	eventsHandler := handlers.NewEventsHandler(controller)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		sess := api.Group("/session")
		{
			sess.GET("", sessionHandler.GetState)
			sess.POST("/check", sessionHandler.Check)
			sess.POST("/login", sessionHandler.Login)
			sess.POST("/biometric", sessionHandler.Biometric)
			sess.POST("/logout", sessionHandler.Logout)
			sess.POST("/activity", sessionHandler.Activity)
			sess.POST("/resume", sessionHandler.Resume)
		}

		api.GET("/providers", providersHandler.List)
		api.POST("/providers/select", providersHandler.Select)

		biometrics := api.Group("/biometrics")
		{
			biometrics.GET("", biometricsHandler.Get)
			biometrics.PUT("", biometricsHandler.Set)
			biometrics.POST("/offered", biometricsHandler.MarkOffered)
		}

		api.GET("/events", eventsHandler.StreamState)
	}
}
