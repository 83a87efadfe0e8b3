// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/idpkit/idpkit/internal/buildinfo"
)

type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func VersionCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "version",
		Short: "version",
		Example: `  idpkit version
  idpkit version --json`,
	}

	var outputJson bool
	command.Flags().BoolVar(&outputJson, "json", false, "output in JSON format")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		current := VersionInfo{
			Version: buildinfo.Version,
			Commit:  buildinfo.Commit,
			Date:    buildinfo.Date,
		}

		if outputJson {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(current)
		}

		fmt.Printf("idpkit version %s\n", current.Version)
		fmt.Printf("Commit: %s\n", current.Commit)
		fmt.Printf("Built: %s\n", current.Date)
		return nil
	}

	return command
}
