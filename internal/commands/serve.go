// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/idpkit/idpkit/internal/api/routes"
	"github.com/idpkit/idpkit/internal/biometric"
	"github.com/idpkit/idpkit/internal/buildinfo"
	"github.com/idpkit/idpkit/internal/config"
	"github.com/idpkit/idpkit/internal/providers"
	"github.com/idpkit/idpkit/internal/securestore"
	"github.com/idpkit/idpkit/internal/session"
	"github.com/idpkit/idpkit/internal/tokenexchange"
)

func ServeCommand() *cobra.Command {
	var (
		configPath string
		listenAddr string
	)

	command := &cobra.Command{
		Use:   "serve",
		Short: "run the session API server",
		Example: `  idpkit serve
  idpkit serve --config /etc/idpkit/config.toml`,
	}

	command.Flags().StringVar(&configPath, "config", "config.toml", "path to config file")
	command.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (overrides config)")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		return runServer(configPath, listenAddr)
	}

	return command
}

func runServer(configPath, listenAddr string) error {
	log.Info().
		Str("version", buildinfo.Version).
		Str("commit", buildinfo.Commit).
		Str("build_date", buildinfo.Date).
		Msg("Starting idpkit")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load configuration file, using defaults")
		cfg, _ = config.Load("")
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	ctx, cancel := context.WithTimeout(context.Background(), securestore.DefaultTimeout)
	store, err := securestore.InitStore(ctx, cfg.SecureStoreConfig(), securestore.NamespaceSession)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize secure store")
	}
	defer store.Close()

	catalog, err := providers.Load(cfg.Providers.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Providers.Path).Msg("Failed to load provider catalog")
	}

	gate := biometric.NewStaticGate(biometric.Kind(cfg.Biometric.Kind), nil)
	prefs := biometric.NewPrefs(store.Namespace(securestore.NamespacePrefs))

	controller := session.New(context.Background(), store, gate, prefs, catalog, tokenexchange.NewOAuthExchanger())
	defer controller.Close()

	if os.Getenv("GIN_MODE") == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	if gin.Mode() == gin.DebugMode {
		err = r.SetTrustedProxies(nil)
	} else {
		err = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to set trusted proxies")
	}

	routes.SetupRoutes(r, controller)

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      r,
		ReadTimeout: 15 * time.Second,
		// No write timeout: /api/events holds SSE streams open indefinitely.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("address", cfg.Server.ListenAddr).
			Str("mode", gin.Mode()).
			Str("store", cfg.Store.Type).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
	return nil
}
