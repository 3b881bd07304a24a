package api

import (
	"math"
	"strconv"
	"strings"

	"EquityLens/internal/analytics"
	"EquityLens/internal/calculator"
	"EquityLens/internal/config"
	"EquityLens/internal/model"
)

// num maps non-finite values to JSON null.
func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nums(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = num(v)
	}
	return out
}

type drawdownDTO struct {
	AmountUSD    *float64 `json:"amount_usd"`
	Pct          *float64 `json:"pct"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	DurationDays *float64 `json:"duration_days"`
}

func toDrawdownDTO(d model.Drawdown) drawdownDTO {
	return drawdownDTO{
		AmountUSD:    num(d.AmountUSD),
		Pct:          num(d.Pct),
		Start:        d.Start,
		End:          d.End,
		DurationDays: num(d.DurationDays),
	}
}

type returnDTO struct {
	Label    string   `json:"label"`
	ValuePct *float64 `json:"value_pct"`
}

type summaryDTO struct {
	Label            string      `json:"label"`
	ScenarioLabel    string      `json:"scenario_label"`
	StartingEquity   *float64    `json:"starting_equity"`
	BetSizeUSD       *float64    `json:"bet_size_usd"`
	EndingEquity     *float64    `json:"ending_equity"`
	NetPnL           *float64    `json:"net_pnl"`
	NetProfitPct     *float64    `json:"net_profit_pct"`
	Trades           int         `json:"trades"`
	Wins             int         `json:"wins"`
	Losses           int         `json:"losses"`
	WinRatePct       *float64    `json:"win_rate_pct"`
	ProfitFactor     *float64    `json:"profit_factor"`
	ProfitFactorInf  bool        `json:"profit_factor_infinite"`
	CAGRPct          *float64    `json:"cagr_pct"`
	Return           returnDTO   `json:"return"`
	MaxDrawdown      drawdownDTO `json:"max_drawdown"`
	ProfitableMonths int         `json:"profitable_months"`
	TotalMonths      int         `json:"total_months"`
	PeriodStart      string      `json:"period_start"`
	PeriodEnd        string      `json:"period_end"`
}

func toSummaryDTO(res model.MetricsResult) summaryDTO {
	k := analytics.ComputeKPIs(res)
	return summaryDTO{
		Label:            res.Label,
		ScenarioLabel:    res.ScenarioLabel,
		StartingEquity:   num(res.StartingEquity),
		BetSizeUSD:       num(res.BetSizeUSD),
		EndingEquity:     num(res.EndingEquity),
		NetPnL:           num(res.NetPnL),
		NetProfitPct:     num(k.NetProfitPct),
		Trades:           res.Trades,
		Wins:             res.Wins,
		Losses:           res.Losses,
		WinRatePct:       num(res.WinRatePct),
		ProfitFactor:     num(res.ProfitFactor),
		ProfitFactorInf:  math.IsInf(res.ProfitFactor, 1),
		CAGRPct:          num(res.CAGRPct),
		Return:           returnDTO{Label: k.Return.Label, ValuePct: num(k.Return.ValuePct)},
		MaxDrawdown:      toDrawdownDTO(res.MaxDrawdown),
		ProfitableMonths: k.ProfitableMonths,
		TotalMonths:      k.TotalMonths,
		PeriodStart:      res.PeriodStart,
		PeriodEnd:        res.PeriodEnd,
	}
}

type monthlyDTO struct {
	MonthKey    string   `json:"month"`
	StartEquity *float64 `json:"start_equity"`
	PnL         *float64 `json:"pnl"`
	ReturnPct   *float64 `json:"return_pct"`
}

type yearDTO struct {
	Year   string     `json:"year"`
	Months []*float64 `json:"months"`
	YTDPct *float64   `json:"ytd_pct"`
}

type seriesStatsDTO struct {
	Trades       int         `json:"trades"`
	NetPnL       *float64    `json:"net_pnl"`
	ProfitFactor *float64    `json:"profit_factor"`
	WinRatePct   *float64    `json:"win_rate_pct"`
	MaxDrawdown  drawdownDTO `json:"max_drawdown"`
	EndingEquity *float64    `json:"ending_equity"`
	CAGRPct      *float64    `json:"cagr_pct"`
}

func toSeriesStatsDTO(s analytics.SeriesStats) seriesStatsDTO {
	return seriesStatsDTO{
		Trades:       s.Trades,
		NetPnL:       num(s.NetPnL),
		ProfitFactor: num(s.ProfitFactor),
		WinRatePct:   num(s.WinRatePct),
		MaxDrawdown:  toDrawdownDTO(s.MaxDrawdown),
		EndingEquity: num(s.EndingEquity),
		CAGRPct:      num(s.CAGRPct),
	}
}

type tradeDTO struct {
	Date       string   `json:"date"`
	Market     string   `json:"market"`
	Direction  string   `json:"direction"`
	BetSizeUSD *float64 `json:"bet_size_usd"`
	EntryPrice *float64 `json:"entry_price"`
	Result     string   `json:"result"`
	PnLUSD     *float64 `json:"pnl_usd"`
	Synthetic  bool     `json:"synthetic"`
}

func toTradeDTOs(entries []model.TradeLogEntry) []tradeDTO {
	out := make([]tradeDTO, len(entries))
	for i, e := range entries {
		out[i] = tradeDTO{
			Date:       e.Date,
			Market:     e.Market,
			Direction:  e.Direction,
			BetSizeUSD: num(e.BetSizeUSD),
			EntryPrice: num(e.EntryPrice),
			Result:     string(e.Result),
			PnLUSD:     num(e.PnLUSD),
			Synthetic:  e.Synthetic,
		}
	}
	return out
}

type pathStatsDTO struct {
	PathKey        string   `json:"path_key"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	StartEquity    *float64 `json:"start_equity"`
	EndEquity      *float64 `json:"end_equity"`
	ReturnPct      *float64 `json:"return_pct"`
	MaxDrawdownPct *float64 `json:"max_drawdown_pct"`
	CAGRPct        *float64 `json:"cagr_pct"`
	DaysUsed       int      `json:"days_used"`
}

func toPathStatsDTO(ps model.PathStats) pathStatsDTO {
	return pathStatsDTO{
		PathKey:        ps.PathKey,
		Start:          ps.Start,
		End:            ps.End,
		StartEquity:    num(ps.StartEquity),
		EndEquity:      num(ps.EndEquity),
		ReturnPct:      num(ps.ReturnPct),
		MaxDrawdownPct: num(ps.MaxDrawdownPct),
		CAGRPct:        num(ps.CAGRPct),
		DaysUsed:       ps.DaysUsed,
	}
}

type fanDTO struct {
	Step int      `json:"step"`
	P1   *float64 `json:"p1"`
	P5   *float64 `json:"p5"`
	P25  *float64 `json:"p25"`
	P50  *float64 `json:"p50"`
	P75  *float64 `json:"p75"`
	P95  *float64 `json:"p95"`
}

// lenientNumber accepts a JSON number or any other value. Values that do not
// parse become NaN so Settings.Normalize reverts them.
type lenientNumber float64

func (n *lenientNumber) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	*n = lenientNumber(calculator.ParseNumber(strings.TrimPrefix(strings.TrimSpace(raw), "$")))
	return nil
}

// lenientString accepts a JSON string or the raw text of any other value.
type lenientString string

func (s *lenientString) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	*s = lenientString(raw)
	return nil
}

// settingsRequest is a partial settings update. Absent fields keep their
// current value.
type settingsRequest struct {
	StartingCapital *lenientNumber `json:"starting_capital"`
	BetSize         *lenientNumber `json:"bet_size"`
	AssetFilter     *lenientString `json:"asset_filter"`
	Scenario        *lenientString `json:"scenario"`
	MCPathKey       *lenientString `json:"mc_path_key"`
}

func (r settingsRequest) merge(cur config.Settings) config.Settings {
	if r.StartingCapital != nil {
		cur.StartingCapital = float64(*r.StartingCapital)
	}
	if r.BetSize != nil {
		cur.BetSize = float64(*r.BetSize)
	}
	if r.AssetFilter != nil {
		cur.AssetFilter = string(*r.AssetFilter)
	}
	if r.Scenario != nil {
		cur.Scenario = analytics.Scenario(*r.Scenario)
	}
	if r.MCPathKey != nil {
		cur.MCPathKey = string(*r.MCPathKey)
	}
	return cur
}
