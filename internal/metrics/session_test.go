// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCounters(t *testing.T) {
	startedBefore := testutil.ToFloat64(sessionsStarted)
	endedBefore := testutil.ToFloat64(sessionsEnded.WithLabelValues("idle_timeout"))

	RecordSessionStarted()
	assert.Equal(t, startedBefore+1, testutil.ToFloat64(sessionsStarted))
	assert.Equal(t, float64(1), testutil.ToFloat64(sessionActive))

	RecordSessionEnded("idle_timeout")
	assert.Equal(t, endedBefore+1, testutil.ToFloat64(sessionsEnded.WithLabelValues("idle_timeout")))
	assert.Equal(t, float64(0), testutil.ToFloat64(sessionActive))
}

func TestRecordActivity(t *testing.T) {
	resetBefore := testutil.ToFloat64(activityResets.WithLabelValues("key", "reset"))
	coalescedBefore := testutil.ToFloat64(activityResets.WithLabelValues("key", "coalesced"))

	RecordActivity("key", true)
	RecordActivity("key", false)
	RecordActivity("key", false)

	assert.Equal(t, resetBefore+1, testutil.ToFloat64(activityResets.WithLabelValues("key", "reset")))
	assert.Equal(t, coalescedBefore+2, testutil.ToFloat64(activityResets.WithLabelValues("key", "coalesced")))
}

func TestPromhttpExposure(t *testing.T) {
	RecordIdleWarning()
	RecordIdleExtension()

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "alphastream_idle_warnings_total"))
	assert.True(t, strings.Contains(body, "alphastream_idle_extensions_total"))
}

func TestServe_EmptyAddrIsNoop(t *testing.T) {
	assert.NoError(t, Serve(context.Background(), ""))
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
