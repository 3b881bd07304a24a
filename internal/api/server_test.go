package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityLens/internal/collector"
	"EquityLens/internal/config"
	"EquityLens/internal/dashboard"
	"EquityLens/internal/model"
)

type stubLoader struct {
	data *collector.Data
	err  error
}

func (s *stubLoader) Load(context.Context) (*collector.Data, error) {
	return s.data, s.err
}

func fixtureData() *collector.Data {
	return &collector.Data{
		Datasets: []model.Dataset{{
			ID:        "s1",
			Label:     "Strat",
			PnLColumn: "pnl_usd_100",
			Rows: []model.Row{
				{"market_end_time_utc": "2025-01-01T21:00:00Z", "asset": "spx", "stake_usd": "100", "base_pnl_usd": "50"},
				{"market_end_time_utc": "2025-01-15T21:00:00Z", "asset": "ndx", "stake_usd": "100", "base_pnl_usd": "-20"},
			},
		}},
		MonteCarlo: model.MonteCarloData{
			Stats: []model.Row{{"median_return_pct": "10", "probability_loss_pct": "4"}},
			Paths: []model.Row{
				{"trade_number": "1", "equity_p1_path": "9900", "equity_p5_path": "9950", "equity_p95_path": "10100"},
			},
			Percentiles: []model.Row{
				{"day": "1", "p50": "10000"},
				{"day": "2", "p50": "10100"},
			},
		},
	}
}

func newTestServer(t *testing.T, l dashboard.Loader, load bool) *Server {
	t.Helper()
	m := dashboard.NewManager(l, dashboard.Options{
		Defaults: config.BuiltinSettings(),
		Now:      func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) },
	})
	if load {
		require.NoError(t, m.Reload(context.Background()))
	}
	s := NewServer(m, ":0")
	gin.SetMode(gin.TestMode)
	return s
}

func do(t *testing.T, s *Server, method, path string, body []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestHealthAndNotLoaded(t *testing.T) {
	s := newTestServer(t, &stubLoader{err: collector.ErrNoBacktestData}, false)

	w, body := do(t, s, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "loading", body["status"])

	w, body = do(t, s, http.MethodGet, "/api/summary", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dashboard.ErrNotLoaded.Error(), body["error"])

	w, _ = do(t, s, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, &stubLoader{data: fixtureData()}, false)
	w, _ := do(t, s, http.MethodOptions, "/api/settings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, &stubLoader{data: fixtureData()}, true)

	w, body := do(t, s, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := body["summary"].(map[string]interface{})
	assert.InDelta(t, 10030.0, summary["ending_equity"], 1e-9)
	assert.InDelta(t, 2.5, summary["profit_factor"], 1e-9)
	assert.Equal(t, 2.0, summary["trades"])
	assert.Equal(t, "Historical Backtest", summary["scenario_label"])
	assert.Equal(t, "2025-01-01", body["window_start"])
	assert.Equal(t, "2025-03-01", body["window_end"])

	w, _ = do(t, s, http.MethodGet, "/api/summary?scenario=mc_p50", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = do(t, s, http.MethodGet, "/api/summary?scenario=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "unknown scenario")

	w, body = do(t, s, http.MethodGet, "/api/backtests", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["backtests"], 1)
}

func TestUpdateSettings(t *testing.T) {
	s := newTestServer(t, &stubLoader{data: fixtureData()}, true)

	w, body := do(t, s, http.MethodPut, "/api/settings", []byte(`{"bet_size":200}`))
	require.Equal(t, http.StatusOK, w.Code)
	settings := body["settings"].(map[string]interface{})
	assert.Equal(t, 200.0, settings["bet_size"])
	assert.Equal(t, 10000.0, settings["starting_capital"])
	assert.Empty(t, body["reverted"])

	_, body = do(t, s, http.MethodGet, "/api/summary", nil)
	assert.InDelta(t, 10060.0, body["summary"].(map[string]interface{})["ending_equity"], 1e-9)

	w, body = do(t, s, http.MethodPut, "/api/settings", []byte(`{"scenario":"nope","asset_filter":"spx"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"scenario"}, body["reverted"])

	w, _ = do(t, s, http.MethodPut, "/api/settings", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, body = do(t, s, http.MethodGet, "/api/settings", nil)
	settings = body["settings"].(map[string]interface{})
	assert.Equal(t, "spx", settings["asset_filter"])
	assert.Equal(t, "backtest", settings["scenario"])
}

func TestTradesAndMonthly(t *testing.T) {
	s := newTestServer(t, &stubLoader{data: fixtureData()}, true)

	w, body := do(t, s, http.MethodGet, "/api/trades?page=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, body["total_rows"])
	assert.Equal(t, 1.0, body["total_pages"])
	trades := body["trades"].([]interface{})
	require.Len(t, trades, 2)
	assert.Equal(t, "2025-01-15", trades[0].(map[string]interface{})["date"])

	w, _ = do(t, s, http.MethodGet, "/api/trades?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(t, s, http.MethodGet, "/api/monthly", nil)
	require.Equal(t, http.StatusOK, w.Code)
	months := body["months"].([]interface{})
	require.Len(t, months, 1)
	jan := months[0].(map[string]interface{})
	assert.Equal(t, "2025-01", jan["month"])
	assert.InDelta(t, 0.3, jan["return_pct"], 1e-9)
	year := body["years"].([]interface{})[0].(map[string]interface{})
	assert.Nil(t, year["months"].([]interface{})[1])

	w, body = do(t, s, http.MethodGet, "/api/equity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := body["series_stats"].(map[string]interface{})
	assert.InDelta(t, 10030.0, stats["ending_equity"], 1e-9)
}

func TestMonteCarlo(t *testing.T) {
	s := newTestServer(t, &stubLoader{data: fixtureData()}, true)

	w, body := do(t, s, http.MethodGet, "/api/montecarlo/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10.0, body["median_return_pct"])

	w, body = do(t, s, http.MethodGet, "/api/montecarlo/fan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["fan"], 1)

	w, body = do(t, s, http.MethodGet, "/api/montecarlo/path-stats?path=p50&start=2025-01-01&end=2025-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, body["days_used"])
	assert.InDelta(t, 1.0, body["return_pct"], 1e-9)

	w, _ = do(t, s, http.MethodGet, "/api/montecarlo/path-stats?start=2025-02-01&end=2025-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateSettings_LenientValues(t *testing.T) {
	s := newTestServer(t, &stubLoader{data: fixtureData()}, true)

	w, body := do(t, s, http.MethodPut, "/api/settings", []byte(`{"bet_size":"250"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 250.0, body["settings"].(map[string]interface{})["bet_size"])

	w, body = do(t, s, http.MethodPut, "/api/settings", []byte(`{"bet_size":"abc","starting_capital":{},"scenario":"mc_p50"}`))
	require.Equal(t, http.StatusOK, w.Code)
	settings := body["settings"].(map[string]interface{})
	assert.Equal(t, 100.0, settings["bet_size"])
	assert.Equal(t, 10000.0, settings["starting_capital"])
	assert.Equal(t, "mc_p50", settings["scenario"])
	assert.ElementsMatch(t, []interface{}{"starting_capital", "bet_size"}, body["reverted"])

	// The summary reflects the scenario of the snapshot it was read from.
	_, body = do(t, s, http.MethodGet, "/api/summary", nil)
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, "50% Percentile MC Sim (Middle Ground)", summary["scenario_label"])
}
