package config

import (
	"strings"

	"github.com/shopspring/decimal"

	"EquityLens/internal/analytics"
	"EquityLens/internal/calculator"
)

// SupportedAssets are the accepted asset filter values.
var SupportedAssets = []string{analytics.AssetBoth, "spx", "ndx"}

// Settings are the inputs a user may change at runtime.
type Settings struct {
	StartingCapital float64            `json:"starting_capital"`
	BetSize         float64            `json:"bet_size"`
	AssetFilter     string             `json:"asset_filter"`
	Scenario        analytics.Scenario `json:"scenario"`
	MCPathKey       string             `json:"mc_path_key"`
}

// DefaultSettings are the configured startup values.
func (c *Config) DefaultSettings() Settings {
	s := Settings{
		StartingCapital: c.Analytics.StartingCapital,
		BetSize:         c.Analytics.BetSize,
		AssetFilter:     c.Analytics.AssetFilter,
		Scenario:        analytics.Scenario(c.Analytics.Scenario),
		MCPathKey:       c.Analytics.MCPathKey,
	}
	s.Normalize(BuiltinSettings())
	return s
}

// BuiltinSettings are the hard defaults used when nothing else is valid.
func BuiltinSettings() Settings {
	return Settings{
		StartingCapital: analytics.DefaultStartingEquity,
		BetSize:         analytics.DefaultBetSize,
		AssetFilter:     analytics.AssetBoth,
		Scenario:        analytics.ScenarioBacktest,
		MCPathKey:       "p50",
	}
}

// Normalize reverts invalid fields to defaults and rounds money to cents.
// It returns the names of the reverted fields.
func (s *Settings) Normalize(defaults Settings) []string {
	var reverted []string

	if !calculator.Finite(s.StartingCapital) || s.StartingCapital <= 0 {
		s.StartingCapital = defaults.StartingCapital
		reverted = append(reverted, "starting_capital")
	}
	if !calculator.Finite(s.BetSize) || s.BetSize <= 0 {
		s.BetSize = defaults.BetSize
		reverted = append(reverted, "bet_size")
	}
	s.StartingCapital = roundCents(s.StartingCapital)
	s.BetSize = roundCents(s.BetSize)

	asset := strings.ToLower(strings.TrimSpace(s.AssetFilter))
	if !isSupportedAsset(asset) {
		asset = defaults.AssetFilter
		reverted = append(reverted, "asset_filter")
	}
	s.AssetFilter = asset

	if sc, ok := analytics.ParseScenario(string(s.Scenario)); ok {
		s.Scenario = sc
	} else {
		s.Scenario = defaults.Scenario
		reverted = append(reverted, "scenario")
	}

	s.MCPathKey = strings.TrimSpace(s.MCPathKey)
	if s.MCPathKey == "" {
		s.MCPathKey = defaults.MCPathKey
		reverted = append(reverted, "mc_path_key")
	}
	return reverted
}

func isSupportedAsset(a string) bool {
	for _, s := range SupportedAssets {
		if a == s {
			return true
		}
	}
	return false
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
