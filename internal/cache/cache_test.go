package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestMemoryCache_NamespacesAreIndependent(t *testing.T) {
	c := NewMemoryCache()
	c.Set("volatility", "BTCUSDT:1h", 0.02, 0)
	c.Set("atr", "BTCUSDT:1h", 850.0, 0)

	v, ok := c.Get("volatility", "BTCUSDT:1h")
	assert.True(t, ok)
	assert.Equal(t, 0.02, v)

	v, ok = c.Get("atr", "BTCUSDT:1h")
	assert.True(t, ok)
	assert.Equal(t, 850.0, v)

	_, ok = c.Get("orderbook", "BTCUSDT:1h")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache().WithClock(clock.Now)

	c.Set("volatility", "ETHUSDT:4h", 0.03, 15*time.Minute)

	clock.Advance(14 * time.Minute)
	_, ok := c.Get("volatility", "ETHUSDT:4h")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.Get("volatility", "ETHUSDT:4h")
	assert.False(t, ok, "entry must expire exactly at ttl")

	assert.Equal(t, 1, c.Size())
	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_OverwriteAndDelete(t *testing.T) {
	c := NewMemoryCache()
	c.Set("atr", "k", 1.0, time.Hour)
	c.Set("atr", "k", 2.0, time.Hour)

	v, ok := c.Get("atr", "k")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	c.Delete("atr", "k")
	_, ok = c.Get("atr", "k")
	assert.False(t, ok)

	// deleting from an unknown namespace is a no-op
	c.Delete("missing", "k")
}
