package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"EquityLens/internal/analytics"
	"EquityLens/internal/config"
	"EquityLens/internal/dashboard"
	"EquityLens/internal/model"
)

// writeError maps domain errors to status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dashboard.ErrNotLoaded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, analytics.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// scenarioResult resolves the "scenario" query parameter against a single
// snapshot, defaulting to the scenario the snapshot was computed with.
func (s *Server) scenarioResult(c *gin.Context) (dashboard.Snapshot, model.MetricsResult, bool) {
	snap, err := s.manager.Snapshot()
	if err != nil {
		writeError(c, err)
		return dashboard.Snapshot{}, model.MetricsResult{}, false
	}
	raw := c.Query("scenario")
	if raw == "" {
		return snap, snap.Active(), true
	}
	sc, ok := analytics.ParseScenario(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown scenario: " + raw})
		return dashboard.Snapshot{}, model.MetricsResult{}, false
	}
	return snap, snap.Source(sc), true
}

func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
	if snap, err := s.manager.Snapshot(); err == nil {
		status["snapshot"] = snap.ID
		status["computed_at"] = snap.ComputedAt.Format(time.RFC3339)
	} else {
		status["status"] = "loading"
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"settings":         s.manager.Settings(),
		"supported_assets": config.SupportedAssets,
		"scenarios":        analytics.Scenarios,
	})
}

// handleUpdateSettings merges the request body over the active settings.
// Unusable values are reverted to defaults and reported, not rejected.
func (s *Server) handleUpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, reverted, err := s.manager.Apply(req.merge(s.manager.Settings()))
	if err != nil {
		writeError(c, err)
		return
	}
	if reverted == nil {
		reverted = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"settings": snap.Settings,
		"reverted": reverted,
		"snapshot": snap.ID,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	if err := s.manager.Reload(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	snap, err := s.manager.Snapshot()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snap.ID, "computed_at": snap.ComputedAt.Format(time.RFC3339)})
}

func (s *Server) handleSummary(c *gin.Context) {
	snap, res, ok := s.scenarioResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":       toSummaryDTO(res),
		"dataset_start": snap.DatasetStart,
		"dataset_end":   snap.DatasetEnd,
		"window_start":  snap.Window.StartIso(),
		"window_end":    snap.Window.EndIso(),
	})
}

func (s *Server) handleBacktests(c *gin.Context) {
	snap, err := s.manager.Snapshot()
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]summaryDTO, len(snap.Backtests))
	for i, res := range snap.Backtests {
		out[i] = toSummaryDTO(res)
	}
	c.JSON(http.StatusOK, gin.H{"backtests": out})
}

func (s *Server) handleEquity(c *gin.Context) {
	_, res, ok := s.scenarioResult(c)
	if !ok {
		return
	}
	stats := analytics.ComputeSeriesStats(analytics.EquityPoints(res))
	c.JSON(http.StatusOK, gin.H{
		"label":        res.Label,
		"labels":       res.Labels,
		"equity":       nums(res.Equity),
		"drawdown_pct": nums(res.DrawdownPct),
		"series_stats": toSeriesStatsDTO(stats),
	})
}

func (s *Server) handleMonthly(c *gin.Context) {
	_, res, ok := s.scenarioResult(c)
	if !ok {
		return
	}
	months := make([]monthlyDTO, len(res.MonthlyReturns))
	for i, m := range res.MonthlyReturns {
		months[i] = monthlyDTO{
			MonthKey:    m.MonthKey,
			StartEquity: num(m.StartEquity),
			PnL:         num(m.PnL),
			ReturnPct:   num(m.ReturnPct),
		}
	}
	rows := analytics.MonthlyMatrix(res.MonthlyReturns)
	years := make([]yearDTO, len(rows))
	for i, r := range rows {
		years[i] = yearDTO{Year: r.Year, Months: nums(r.Months[:]), YTDPct: num(r.YTDPct)}
	}
	c.JSON(http.StatusOK, gin.H{"months": months, "years": years})
}

func (s *Server) handleTrades(c *gin.Context) {
	_, res, ok := s.scenarioResult(c)
	if !ok {
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	p := analytics.PageTrades(res.TradeLog, page)
	c.JSON(http.StatusOK, gin.H{
		"page":        p.Page,
		"total_pages": p.TotalPages,
		"total_rows":  p.TotalRows,
		"trades":      toTradeDTOs(p.Entries),
	})
}

func (s *Server) handleAddTriggers(c *gin.Context) {
	_, res, ok := s.scenarioResult(c)
	if !ok {
		return
	}
	pattern := res.AddTriggerPattern
	if pattern == nil {
		pattern = []model.AddTrigger{}
	}
	c.JSON(http.StatusOK, gin.H{"pattern": pattern})
}

func (s *Server) handleMCSummary(c *gin.Context) {
	snap, err := s.manager.Snapshot()
	if err != nil {
		writeError(c, err)
		return
	}
	m := snap.MCSummary
	c.JSON(http.StatusOK, gin.H{
		"median_return_pct":    num(m.MedianReturnPct),
		"p05_return_pct":       num(m.P05ReturnPct),
		"p95_return_pct":       num(m.P95ReturnPct),
		"probability_loss_pct": num(m.ProbabilityLossPct),
	})
}

func (s *Server) handleMCFan(c *gin.Context) {
	snap, err := s.manager.Snapshot()
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]fanDTO, len(snap.Fan))
	for i, f := range snap.Fan {
		out[i] = fanDTO{Step: f.Step, P1: num(f.P1), P5: num(f.P5), P25: num(f.P25), P50: num(f.P50), P75: num(f.P75), P95: num(f.P95)}
	}
	c.JSON(http.StatusOK, gin.H{"fan": out})
}

func (s *Server) handlePathStats(c *gin.Context) {
	ps, err := s.manager.PathStats(c.Query("path"), c.Query("start"), c.Query("end"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPathStatsDTO(ps))
}
