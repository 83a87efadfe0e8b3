// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/idpkit/idpkit/internal/config"
	"github.com/idpkit/idpkit/internal/providers"
)

func CheckCommand() *cobra.Command {
	var configPath string

	command := &cobra.Command{
		Use:   "check",
		Short: "validate the configuration and provider catalog",
		Example: `  idpkit check
  idpkit check --config /etc/idpkit/config.toml`,
	}

	command.Flags().StringVar(&configPath, "config", "config.toml", "path to config file")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}

		catalog, err := providers.Load(cfg.Providers.Path)
		if err != nil {
			return fmt.Errorf("provider catalog: %w", err)
		}

		fmt.Printf("config OK (store: %s, listen: %s)\n", cfg.Store.Type, cfg.Server.ListenAddr)
		fmt.Printf("provider catalog OK (%d providers, default: %s)\n",
			len(catalog.All()), catalog.Default().ID)
		return nil
	}

	return command
}
