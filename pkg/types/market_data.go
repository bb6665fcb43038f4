package types

import "time"

type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// OrderBookLevel represents a single price depth
type OrderBookLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Notional returns price x quantity for the level
func (l OrderBookLevel) Notional() float64 {
	return l.Price * l.Quantity
}

// OrderBook is a depth snapshot plus the 24h quote volume of the symbol.
// Bids are sorted high to low, asks low to high.
type OrderBook struct {
	Symbol         string           `json:"symbol"`
	Bids           []OrderBookLevel `json:"bids"`
	Asks           []OrderBookLevel `json:"asks"`
	QuoteVolume24h float64          `json:"quote_volume_24h"`
	Timestamp      time.Time        `json:"timestamp"`
}

// BidDepth returns the summed notional of all bid levels
func (b *OrderBook) BidDepth() float64 {
	return sideDepth(b.Bids)
}

// AskDepth returns the summed notional of all ask levels
func (b *OrderBook) AskDepth() float64 {
	return sideDepth(b.Asks)
}

// IsStale reports whether the snapshot is older than maxAge at now.
// A zero timestamp is always stale.
func (b *OrderBook) IsStale(now time.Time, maxAge time.Duration) bool {
	if b == nil || b.Timestamp.IsZero() {
		return true
	}
	return now.Sub(b.Timestamp) > maxAge
}

func sideDepth(levels []OrderBookLevel) float64 {
	total := 0.0
	for _, l := range levels {
		total += l.Notional()
	}
	return total
}
