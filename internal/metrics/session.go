// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes Prometheus counters for session lifecycle events.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphastream_sessions_started_total",
		Help: "Total number of sessions started",
	})

	sessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alphastream_sessions_ended_total",
		Help: "Total number of sessions ended by reason",
	}, []string{"reason"}) // reason=logout|idle_timeout|shutdown

	idleWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphastream_idle_warnings_total",
		Help: "Total number of idle warnings shown",
	})

	idleExtensions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphastream_idle_extensions_total",
		Help: "Total number of sessions continued from the idle warning",
	})

	activityResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alphastream_activity_signals_total",
		Help: "Activity signals by kind and whether they reset the idle cycle",
	}, []string{"kind", "outcome"}) // outcome=reset|coalesced

	sessionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alphastream_session_active",
		Help: "Whether a user is signed in (1) or not (0)",
	})
)

// RecordSessionStarted counts a sign-in.
func RecordSessionStarted() {
	sessionsStarted.Inc()
	sessionActive.Set(1)
}

// RecordSessionEnded counts a sign-out.
func RecordSessionEnded(reason string) {
	sessionsEnded.WithLabelValues(reason).Inc()
	sessionActive.Set(0)
}

// RecordIdleWarning counts a warning.
func RecordIdleWarning() {
	idleWarnings.Inc()
}

// RecordIdleExtension counts an explicit continue.
func RecordIdleExtension() {
	idleExtensions.Inc()
}

// RecordActivity counts one activity signal.
func RecordActivity(kind string, reset bool) {
	outcome := "coalesced"
	if reset {
		outcome = "reset"
	}
	activityResets.WithLabelValues(kind, outcome).Inc()
}

// Serve exposes /metrics on addr until ctx is canceled.
// An empty addr disables the listener.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
