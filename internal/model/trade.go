package model

import "time"

// Row is one CSV data line keyed by header name.
type Row map[string]string

// Leg is one sub-position of a trade as recorded in the source file.
type Leg struct {
	Triggered  bool
	Stake      float64
	PnL        float64
	EntryPrice float64
}

// Trade is a normalized trade log row. Numeric fields are NaN when the
// source value is missing or malformed.
type Trade struct {
	Row           Row
	Date          string // YYYY-MM-DD of resolution, "" when unknown
	EnteredAt     time.Time
	ResolvedAt    time.Time
	Asset         string
	Signal        string
	ResolvedLabel string
	Slug          string
	MarketID      string
	Base          Leg
	Add1230       Leg
	Add1430       Leg
}

// ScaleMode records which path the position scaler took.
type ScaleMode int

const (
	ScaleByLeg ScaleMode = iota
	ScaleByTotalStake
	ScaleByDefaultBet
)

func (m ScaleMode) String() string {
	switch m {
	case ScaleByLeg:
		return "leg"
	case ScaleByTotalStake:
		return "total_stake"
	case ScaleByDefaultBet:
		return "default_bet"
	default:
		return "unknown"
	}
}

// ScaledTrade is a trade resized to a target bet.
type ScaledTrade struct {
	PnLUSD        float64
	TotalStakeUSD float64
	EntryPrice    float64
	Mode          ScaleMode
	// Scale is the fallback multiplier; 0 when legs were scaled individually.
	Scale float64
}

// AddTrigger is the add-leg trigger pattern of one contributing trade.
type AddTrigger struct {
	Add1230 bool `json:"add_1230"`
	Add1430 bool `json:"add_1430"`
}

// TradeResult classifies a trade log entry.
type TradeResult string

const (
	ResultWin  TradeResult = "Win"
	ResultLoss TradeResult = "Loss"
	ResultOpen TradeResult = "Open"
)

// TradeLogEntry is one line of the rendered trade table.
type TradeLogEntry struct {
	Date       string
	Market     string
	Direction  string
	BetSizeUSD float64
	EntryPrice float64
	Result     TradeResult
	PnLUSD     float64
	Synthetic  bool
}
