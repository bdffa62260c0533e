// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alphastream/alphastream-tui/internal/audit"
	"github.com/alphastream/alphastream-tui/internal/session"
	"github.com/alphastream/alphastream-tui/internal/storage"
)

// DefaultHistoryLimit is the number of audit events shown by "session history".
const DefaultHistoryLimit = 20

func newSessionCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Inspect or end the stored session",
	}
	cmd.AddCommand(newSessionStatusCommand(opts))
	cmd.AddCommand(newSessionHistoryCommand(opts))
	cmd.AddCommand(newSessionLogoutCommand(opts))
	return cmd
}

// =============================================================================
// SESSION STATUS
// =============================================================================

func newSessionStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session and idle settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return OutputJSON(out, opts.jsonOut, "session status", func() (interface{}, error) {
				data := SessionStatusData{
					IdleEnabled:     cfg.Session.Enabled,
					IdleTimeoutSecs: cfg.Session.IdleTimeoutSecs,
					WarningLeadSecs: cfg.Session.WarningLeadSecs,
				}
				state := session.NewState(storage.NewCredentialStoreAt(cfg.Storage.CredentialsPath), nil)
				if _, err := state.Init(); err != nil {
					return nil, &CommandError{Command: "session", Action: "status", Reason: "cannot read stored session", Err: err}
				}
				if creds, ok := state.Current(); ok {
					data.SignedIn = true
					data.User = creds.User
					data.SessionID = creds.SessionID
					data.SignedInAt = creds.SignedInAt.Format(time.RFC3339)
				}
				if !opts.jsonOut {
					printSessionStatus(out, data)
				}
				return data, nil
			})
		},
	}
}

func printSessionStatus(w io.Writer, data SessionStatusData) {
	fmt.Fprintln(w, TitleStyle.Render("Session Status"))
	if data.SignedIn {
		fmt.Fprintln(w, renderField("Signed in", SuccessStyle.Render("yes")))
		fmt.Fprintln(w, renderField("User", data.User))
		fmt.Fprintln(w, renderField("Session", data.SessionID))
		fmt.Fprintln(w, renderField("Since", data.SignedInAt))
	} else {
		fmt.Fprintln(w, renderField("Signed in", DimStyle.Render("no")))
	}

	idle := "off"
	if data.IdleEnabled {
		idle = fmt.Sprintf("sign out after %s idle", time.Duration(data.IdleTimeoutSecs)*time.Second)
		if data.WarningLeadSecs > 0 {
			idle += fmt.Sprintf(", warn %s before", time.Duration(data.WarningLeadSecs)*time.Second)
		}
	}
	fmt.Fprintln(w, renderField("Idle timeout", idle))
}

// =============================================================================
// SESSION HISTORY
// =============================================================================

func newSessionHistoryCommand(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent session audit events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return &UsageError{Message: "--limit must be positive"}
			}
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return OutputJSON(out, opts.jsonOut, "session history", func() (interface{}, error) {
				store, err := audit.Open(cfg.Storage.AuditPath)
				if err != nil {
					return nil, &CommandError{Command: "session", Action: "history", Reason: "cannot open audit trail", Err: err}
				}
				defer store.Close()

				events, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return nil, &CommandError{Command: "session", Action: "history", Reason: "cannot read audit trail", Err: err}
				}
				rows := make([]AuditEventData, 0, len(events))
				for _, ev := range events {
					rows = append(rows, AuditEventData{
						OccurredAt: ev.OccurredAt.Format(time.RFC3339),
						SessionID:  ev.SessionID,
						User:       ev.User,
						Type:       ev.Type,
						Metadata:   ev.Metadata,
					})
				}
				if !opts.jsonOut {
					printHistory(out, rows)
				}
				return rows, nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultHistoryLimit, "number of events to show")
	return cmd
}

func printHistory(w io.Writer, rows []AuditEventData) {
	fmt.Fprintln(w, TitleStyle.Render("Session History"))
	if len(rows) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No session events recorded."))
		return
	}
	for _, row := range rows {
		line := fmt.Sprintf("%s  %-18s %-10s %s", row.OccurredAt, row.Type, row.User, row.SessionID)
		if reason, ok := row.Metadata["reason"]; ok {
			line += "  reason=" + reason
		}
		if row.Type == audit.EventExpired || row.Type == audit.EventWarning {
			line = WarningStyle.Render(line)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// =============================================================================
// SESSION LOGOUT
// =============================================================================

func newSessionLogoutCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return OutputJSON(out, opts.jsonOut, "session logout", func() (interface{}, error) {
				state := session.NewState(storage.NewCredentialStoreAt(cfg.Storage.CredentialsPath), nil)
				restored, err := state.Init()
				if err != nil {
					return nil, &CommandError{Command: "session", Action: "logout", Reason: "cannot read stored session", Err: err}
				}
				if !restored {
					if !opts.jsonOut {
						fmt.Fprintln(out, DimStyle.Render("No active session."))
					}
					return map[string]bool{"signed_out": false}, nil
				}

				ended, err := state.SignOut()
				if err != nil {
					return nil, &CommandError{Command: "session", Action: "logout", Reason: "cannot clear stored session", Err: err}
				}

				store, err := audit.Open(cfg.Storage.AuditPath)
				if err == nil {
					err = store.Record(cmd.Context(), audit.Event{
						SessionID: ended.SessionID,
						User:      ended.User,
						Type:      audit.EventEnded,
						Metadata:  map[string]string{"reason": string(session.ReasonLogout), "source": "cli"},
					})
					store.Close()
				}
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("audit write failed: "+err.Error()))
				}

				if !opts.jsonOut {
					fmt.Fprintln(out, SuccessStyle.Render("Signed out "+ended.User+"."))
				}
				return map[string]interface{}{"signed_out": true, "user": ended.User, "session_id": ended.SessionID}, nil
			})
		},
	}
}
