// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/alphastream/alphastream-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	jsonOut    bool
}

// NewRootCommand builds the alphastream command tree. Running it without a
// subcommand starts the dashboard.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "alphastream",
		Short: "AlphaStream terminal dashboard",
		Long: `AlphaStream - terminal dashboard with idle session protection.

Signed-in sessions are signed out automatically after a period of inactivity.
A countdown appears before that happens; any key keeps the session alive.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			applyColorProfile()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is ~/.alphastream/config.toml)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "output in JSON format")

	root.AddCommand(newRunCommand(opts))
	root.AddCommand(newSessionCommand(opts))
	root.AddCommand(newConfigCommand(opts))
	root.AddCommand(newVersionCommand(opts))
	return root
}

// Execute runs the command line against os.Args.
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	root.SetArgs(os.Args[1:])
	return root.ExecuteContext(ctx)
}

func newVersionCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			return OutputJSON(cmd.OutOrStdout(), opts.jsonOut, "version", func() (interface{}, error) {
				if !opts.jsonOut {
					fmt.Fprintf(cmd.OutOrStdout(), "alphastream %s (%s, built %s) %s %s\n",
						data.Version, data.GitCommit, data.BuildDate, data.GoVersion, data.Platform)
				}
				return data, nil
			})
		},
	}
}

// loadConfig loads the configuration named by --config, or the default one.
func (o *globalOptions) loadConfig() (*config.Config, string, error) {
	path := o.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, "", &ConfigError{Path: "~/.alphastream/config.toml", Err: err}
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, &ConfigError{Path: path, Err: err}
	}
	return cfg, path, nil
}
