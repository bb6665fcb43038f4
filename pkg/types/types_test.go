package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSide(t *testing.T) {
	for in, want := range map[string]Side{"long": SideLong, "BUY": SideLong, " short ": SideShort, "sell": SideShort} {
		got, ok := ParseSide(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseSide("flat")
	assert.False(t, ok)
}

func TestParseRegime(t *testing.T) {
	assert.Equal(t, RegimeTrending, ParseRegime("Trending"))
	assert.Equal(t, RegimeQuiet, ParseRegime("quiet"))
	assert.Equal(t, RegimeUnknown, ParseRegime("sideways"))
	assert.Equal(t, RegimeUnknown, ParseRegime(""))
}

func TestOrderBookDepthAndStaleness(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	book := &OrderBook{
		Bids:      []OrderBookLevel{{Price: 100, Quantity: 2}, {Price: 99, Quantity: 1}},
		Asks:      []OrderBookLevel{{Price: 101, Quantity: 3}},
		Timestamp: now.Add(-2 * time.Second),
	}
	assert.Equal(t, 299.0, book.BidDepth())
	assert.Equal(t, 303.0, book.AskDepth())

	assert.False(t, book.IsStale(now, 5*time.Second))
	assert.True(t, book.IsStale(now, time.Second))

	var nilBook *OrderBook
	assert.True(t, nilBook.IsStale(now, time.Hour))
	assert.True(t, (&OrderBook{}).IsStale(now, time.Hour))
}
