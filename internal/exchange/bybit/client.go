package bybit

import (
	"context"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/position-risk-engine/internal/cache"
	"github.com/ducminhle1904/position-risk-engine/internal/logger"
	"github.com/ducminhle1904/position-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/position-risk-engine/internal/safety"
)

// Client-side request budget; Bybit market endpoints allow 600 requests per 5s per IP
const (
	requestBurst = 10
	requestRate  = 20
)

// Client is a read-only Bybit market data client for the risk engine
type Client struct {
	httpClient  *bybit_api.Client
	category    string
	testnet     bool
	retry       RetryConfig
	limiter     *safety.RateLimiter
	breaker     *safety.CircuitBreaker
	instruments *InstrumentManager
	log         *logger.Logger
}

// Config holds the configuration for the Bybit client
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Category  string // "spot", "linear", "inverse"; defaults to linear
}

// NewClient creates a new Bybit client. Public market endpoints work
// without credentials.
func NewClient(config Config, log *logger.Logger) *Client {
	baseURL := bybit_api.MAINNET
	if config.Testnet {
		baseURL = bybit_api.TESTNET
	}
	if config.Category == "" {
		config.Category = "linear"
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	c := &Client{
		httpClient: httpClient,
		category:   config.Category,
		testnet:    config.Testnet,
		retry:      DefaultRetryConfig(),
		limiter:    safety.NewRateLimiter("bybit", requestBurst, requestRate),
		breaker:    safety.NewCircuitBreaker("bybit", safety.CircuitBreakerConfig{}),
		log:        logger.OrNop(log).With("exchange", "bybit"),
	}
	c.breaker.SetStateChangeCallback(func(name string, from, to safety.CircuitBreakerState) {
		c.log.Warning("%s circuit breaker %s -> %s", name, from, to)
		if to == safety.StateOpen {
			monitoring.RecordError("exchange_circuit_open")
		}
	})
	c.instruments = NewInstrumentManager(c, cache.NewMemoryCache(), time.Hour)
	return c
}

// GetName returns the exchange name
func (c *Client) GetName() string {
	return "bybit"
}

// Category returns the product category used for every request
func (c *Client) Category() string {
	return c.category
}

// GetEnvironment returns "testnet" or "mainnet"
func (c *Client) GetEnvironment() string {
	if c.testnet {
		return "testnet"
	}
	return "mainnet"
}

// call runs one REST request through the rate limiter, the circuit breaker
// and the retry loop, in that order
func (c *Client) call(ctx context.Context, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.breaker.Call(func() error {
		return withRetry(ctx, c.retry, fn)
	})
}
