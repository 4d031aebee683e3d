package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VCPSentinel/internal/model"
)

func TestObserveTicker(t *testing.T) {
	m := New()

	m.ObserveTicker(&model.ScreenResult{
		Mode:   model.ModeFull,
		Signal: true,
		Trend:  model.TrendCheck{Passed: true},
		Volume: model.VolumeCheck{Passed: true},
		Pivot:  model.PivotCheck{Good: true},
	})
	m.ObserveTicker(&model.ScreenResult{Mode: model.ModeQuick, Trend: model.TrendCheck{Passed: true}})
	m.ObserveTicker(&model.ScreenResult{Mode: model.ModeFull, Error: "no data"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TickersScreened.WithLabelValues("FULL", OutcomeSignal)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TickersScreened.WithLabelValues("QUICK", OutcomeNoSignal)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TickersScreened.WithLabelValues("FULL", OutcomeError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilterPassed.WithLabelValues("trend")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilterPassed.WithLabelValues("pivot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilterPassed.WithLabelValues("correction")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FilterPassed.WithLabelValues("position")))
}

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun(model.ModeFull, 3*time.Second, 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("FULL")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.LastCandidates))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTicker(&model.ScreenResult{})
		m.ObserveRun(model.ModeQuick, time.Second, 0)
	})
}

func TestRouter(t *testing.T) {
	m := New()
	m.ObserveRun(model.ModeQuick, time.Second, 2)
	srv := httptest.NewServer(NewRouter(m, func() map[string]interface{} {
		return map[string]interface{}{"last_run": "2024-01-02"}
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "vcp_last_run_candidates 2"))

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `"last_run":"2024-01-02"`)

	resp, err = http.Get(srv.URL + "/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
