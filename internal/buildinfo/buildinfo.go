// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package buildinfo carries version metadata injected at link time.
package buildinfo

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)
