// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/idpkit/idpkit/internal/commands"
	"github.com/idpkit/idpkit/internal/logger"
)

func init() {
	logger.Init()
}

func main() {
	root := &cobra.Command{
		Use:   "idpkit",
		Short: "OAuth2 session core with secure credential storage",
	}

	root.AddCommand(commands.ServeCommand())
	root.AddCommand(commands.CheckCommand())
	root.AddCommand(commands.VersionCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
