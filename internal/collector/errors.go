package collector

import (
	"errors"
	"fmt"
)

// ErrNoBacktestData means no configured backtest source could be loaded.
var ErrNoBacktestData = errors.New("no backtest trade files could be loaded")

// ErrNoPnLColumn means none of a source's P&L columns is in its header.
var ErrNoPnLColumn = errors.New("no configured pnl column in header")

// ErrEmptySource means a source parsed to zero rows.
var ErrEmptySource = errors.New("source has no rows")

// SourceError wraps a failure to load one configured source.
type SourceError struct {
	Source string
	Op     string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
