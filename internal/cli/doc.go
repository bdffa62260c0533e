// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the alphastream command line.
//
// # Commands
//
//	alphastream run                 Start the dashboard (default)
//	alphastream session status      Show the stored session and idle settings
//	alphastream session history     Show recent session audit events
//	alphastream session logout      End the stored session
//	alphastream config show         Print the effective configuration
//	alphastream version             Print version information
//
// Global flags:
//
//	--config PATH   Configuration file (default ~/.alphastream/config.toml)
//	--json          Machine-readable output
//
// # Usage
//
//	if err := cli.Execute(); err != nil {
//	    os.Exit(cli.ExitCode(err))
//	}
package cli
