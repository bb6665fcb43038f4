package types

import "strings"

// Side is the direction of a position
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ParseSide accepts long/short as well as buy/sell
func ParseSide(s string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return SideLong, true
	case "short", "sell":
		return SideShort, true
	}
	return "", false
}

// IsLong returns true for long positions
func (s Side) IsLong() bool {
	return s == SideLong
}

// MarketRegime is a categorical label describing current price action
type MarketRegime string

const (
	RegimeTrending MarketRegime = "trending"
	RegimeRanging  MarketRegime = "ranging"
	RegimeVolatile MarketRegime = "volatile"
	RegimeQuiet    MarketRegime = "quiet"
	RegimeUnknown  MarketRegime = ""
)

// ParseRegime parses a regime label; unrecognized labels map to RegimeUnknown
func ParseRegime(s string) MarketRegime {
	switch r := MarketRegime(strings.ToLower(strings.TrimSpace(s))); r {
	case RegimeTrending, RegimeRanging, RegimeVolatile, RegimeQuiet:
		return r
	}
	return RegimeUnknown
}
