package exchange

import (
	"context"

	"github.com/ducminhle1904/position-risk-engine/internal/risk"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// CandleProvider returns candles oldest first
type CandleProvider interface {
	GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]types.OHLCV, error)
}

// OrderBookProvider returns a depth snapshot with the symbol's 24h quote volume filled in
type OrderBookProvider interface {
	GetOrderBook(ctx context.Context, symbol string, depth int) (*types.OrderBook, error)
}

// InstrumentProvider returns exchange quantization rules for a symbol
type InstrumentProvider interface {
	GetSymbolSpec(ctx context.Context, symbol string) (risk.SymbolSpec, error)
}

// MarketData is everything the risk engine reads from an exchange
type MarketData interface {
	CandleProvider
	OrderBookProvider
	InstrumentProvider
	GetName() string
}
