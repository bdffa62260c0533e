// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultReloadDebounce collapses the burst of events editors emit on save.
const DefaultReloadDebounce = 500 * time.Millisecond

// Holder holds the live configuration and reloads it when the file changes.
// A reload that fails to load or validate leaves the previous configuration in place.
type Holder struct {
	mu      sync.RWMutex
	current *Config
	path    string
	logger  zerolog.Logger

	debounce time.Duration

	listenersMu sync.RWMutex
	listeners   []func(*Config)
}

// NewHolder creates a holder for the configuration loaded from path.
func NewHolder(initial *Config, path string, logger zerolog.Logger) *Holder {
	return &Holder{
		current:  initial,
		path:     path,
		logger:   logger,
		debounce: DefaultReloadDebounce,
	}
}

// Get returns the current configuration. Callers must not mutate it.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// OnReload registers fn to be called with every successfully reloaded configuration.
func (h *Holder) OnReload(fn func(*Config)) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload re-reads the file. Either the full new configuration is applied or none of it.
func (h *Holder) Reload() error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("new configuration rejected")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	h.mu.Unlock()

	if prev != nil && prev.Session != next.Session {
		h.logger.Info().
			Str("event", "config.session_changed").
			Int("idle_timeout_secs", next.Session.IdleTimeoutSecs).
			Int("warning_lead_secs", next.Session.WarningLeadSecs).
			Msg("session settings changed")
	}

	h.listenersMu.RLock()
	listeners := append([]func(*Config){}, h.listeners...)
	h.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

// Watch reloads the configuration whenever the file is written, until ctx is canceled.
// The parent directory is watched so editors that replace the file are handled.
func (h *Holder) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.path).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	target := filepath.Clean(h.path)
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			// Debounce: reset timer on each event
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(h.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				_ = h.Reload()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str("event", "config.watcher_error").Msg("config watcher error")
		}
	}
}
