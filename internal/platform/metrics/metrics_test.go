// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alfurqan/internal/platform/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()

	m.Decisions.WithLabelValues("note", "approved").Inc()
	m.Decisions.WithLabelValues("note", "approved").Inc()
	m.ObserveRequest(http.MethodGet, "/api/v1/moderation/queue", http.StatusOK, 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("note", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/moderation/queue", "200")))
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.Submissions.WithLabelValues("tafsir", "pending").Inc()

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `alfurqan_moderation_submissions_total{content_type="tafsir",status="pending"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.New()
		metrics.New()
	})
}
