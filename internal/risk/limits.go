package risk

import (
	"fmt"

	"github.com/ducminhle1904/position-risk-engine/internal/config"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// OpenPosition is the minimal view of an open position needed for limit checks
type OpenPosition struct {
	Symbol string
	Side   types.Side
}

// CheckPositionLimits reports whether a new position on side may be opened.
// A zero limit disables that check.
func CheckPositionLimits(limits config.PositionLimitsConfig, open []OpenPosition, symbol string, side types.Side) (bool, string) {
	if limits.MaxPositions > 0 && len(open) >= limits.MaxPositions {
		return false, fmt.Sprintf("max positions reached (%d/%d)", len(open), limits.MaxPositions)
	}

	sameSide := 0
	for _, p := range open {
		if p.Symbol == symbol && p.Side == side {
			return false, fmt.Sprintf("%s %s position already open", symbol, side)
		}
		if p.Side == side {
			sameSide++
		}
	}

	if limits.MaxPositionsPerDirection > 0 && sameSide >= limits.MaxPositionsPerDirection {
		return false, fmt.Sprintf("max %s positions reached (%d/%d)", side, sameSide, limits.MaxPositionsPerDirection)
	}
	return true, ""
}
