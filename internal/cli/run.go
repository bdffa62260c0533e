// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alphastream/alphastream-tui/internal/activity"
	"github.com/alphastream/alphastream-tui/internal/audit"
	"github.com/alphastream/alphastream-tui/internal/config"
	"github.com/alphastream/alphastream-tui/internal/logging"
	"github.com/alphastream/alphastream-tui/internal/metrics"
	"github.com/alphastream/alphastream-tui/internal/session"
	"github.com/alphastream/alphastream-tui/internal/storage"
	"github.com/alphastream/alphastream-tui/internal/ui/dashboard"
)

func newRunCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), opts)
		},
	}
}

// runDashboard wires configuration, logging, the audit trail, metrics and the
// session controller together and runs the TUI until the user quits.
func runDashboard(ctx context.Context, opts *globalOptions) error {
	if err := RequiresTTY("start the dashboard"); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, path, err := opts.loadConfig()
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := openLogFile(cfg.Log.Path)
	if err != nil {
		return &CommandError{Command: "run", Action: "start", Reason: "cannot open log file", Err: err}
	}
	defer logFile.Close()
	logging.Configure(logging.Config{Level: cfg.Log.Level, Output: logFile})
	logger := logging.WithComponent("app")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	auditStore, err := audit.Open(cfg.Storage.AuditPath)
	if err != nil {
		return &CommandError{Command: "run", Action: "start", Reason: "cannot open audit trail", Err: err}
	}
	defer auditStore.Close()

	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
			logger.Error().Err(err).Str("event", "metrics.serve_failed").Str("addr", cfg.Metrics.Addr).Msg("metrics listener stopped")
		}
	}()

	bus := activity.NewBus()
	sink := dashboard.NewEventSink(dashboard.DefaultEventBuffer)
	ctrl, err := session.NewController(session.Options{
		State:   session.NewState(storage.NewCredentialStoreAt(cfg.Storage.CredentialsPath), nil),
		Bus:     bus,
		Session: cfg.Session,
		Audit:   auditStore,
		Logger:  logging.WithComponent("session"),
		OnEvent: sink.Send,
	})
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	defer ctrl.Close()

	if err := ctrl.Start(ctx); err != nil {
		logger.Warn().Err(err).Str("event", "session.restore_failed").Msg("starting signed out")
	}

	holder := config.NewHolder(cfg, path, logging.WithComponent("config"))
	holder.OnReload(func(next *config.Config) {
		if err := ctrl.Reconfigure(next.Session); err != nil {
			logger.Error().Err(err).Str("event", "session.reconfigure_failed").Msg("keeping previous session settings")
		}
	})
	if err := holder.Watch(ctx); err != nil {
		logger.Warn().Err(err).Str("event", "config.watch_failed").Msg("config hot reload disabled")
	}

	logger.Info().
		Str("event", "app.started").
		Str("version", Version).
		Int("idle_timeout_secs", cfg.Session.IdleTimeoutSecs).
		Msg("dashboard started")

	model := dashboard.New(dashboard.Options{
		Context:    ctx,
		Controller: ctrl,
		Bus:        bus,
		Events:     sink,
		Logger:     logging.WithComponent("ui"),
	})
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", err)
	}

	logger.Info().Str("event", "app.stopped").Msg("dashboard stopped")
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}
