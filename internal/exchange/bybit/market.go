package bybit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// KlineInterval represents the time interval for kline data
type KlineInterval string

const (
	Interval1m  KlineInterval = "1"
	Interval3m  KlineInterval = "3"
	Interval5m  KlineInterval = "5"
	Interval15m KlineInterval = "15"
	Interval30m KlineInterval = "30"
	Interval1h  KlineInterval = "60"
	Interval2h  KlineInterval = "120"
	Interval4h  KlineInterval = "240"
	Interval6h  KlineInterval = "360"
	Interval12h KlineInterval = "720"
	Interval1d  KlineInterval = "D"
	Interval1w  KlineInterval = "W"
	Interval1M  KlineInterval = "M"
)

var timeframeIntervals = map[string]KlineInterval{
	"1m": Interval1m, "3m": Interval3m, "5m": Interval5m,
	"15m": Interval15m, "30m": Interval30m,
	"1h": Interval1h, "2h": Interval2h, "4h": Interval4h,
	"6h": Interval6h, "12h": Interval12h,
	"1d": Interval1d, "1w": Interval1w, "1M": Interval1M,
}

// IntervalFor maps a timeframe such as "1h" or "4h" to the Bybit interval
func IntervalFor(timeframe string) (KlineInterval, error) {
	if iv, ok := timeframeIntervals[timeframe]; ok {
		return iv, nil
	}
	if iv, ok := timeframeIntervals[strings.ToLower(timeframe)]; ok {
		return iv, nil
	}
	return "", fmt.Errorf("unsupported timeframe %q", timeframe)
}

// GetCandles fetches up to limit klines, oldest first
func (c *Client) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]types.OHLCV, error) {
	interval, err := IntervalFor(timeframe)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 200
	}
	if limit > 1000 {
		limit = 1000
	}

	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
		"interval": string(interval),
		"limit":    limit,
	}

	var candles []types.OHLCV
	err = c.call(ctx, func() error {
		result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
		if err != nil {
			return err
		}
		candles, err = parseKlines(result)
		return err
	})
	if err != nil {
		return nil, WrapAPIError("get klines "+symbol, err)
	}

	c.log.Debug("fetched %d %s candles for %s", len(candles), timeframe, symbol)
	return candles, nil
}

// parseKlines converts a kline response to candles sorted oldest first.
// Bybit returns the newest kline first.
func parseKlines(response interface{}) ([]types.OHLCV, error) {
	var res klineResult
	if err := decodeResult(response, &res); err != nil {
		return nil, err
	}

	candles := make([]types.OHLCV, 0, len(res.List))
	for _, item := range res.List {
		if len(item) < 6 {
			continue
		}
		candles = append(candles, types.OHLCV{
			Timestamp: parseTimestamp(item[0]),
			Open:      parseFloat64(item[1]),
			High:      parseFloat64(item[2]),
			Low:       parseFloat64(item[3]),
			Close:     parseFloat64(item[4]),
			Volume:    parseFloat64(item[5]),
		})
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

// GetOrderBook fetches a depth snapshot and fills in the 24h turnover
// from the ticker endpoint
func (c *Client) GetOrderBook(ctx context.Context, symbol string, depth int) (*types.OrderBook, error) {
	if depth <= 0 {
		depth = 50
	}

	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
		"limit":    depth,
	}

	var book *types.OrderBook
	err := c.call(ctx, func() error {
		result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetOrderBookInfo(ctx)
		if err != nil {
			return err
		}
		book, err = parseOrderBook(result)
		return err
	})
	if err != nil {
		return nil, WrapAPIError("get order book "+symbol, err)
	}
	if book.Symbol == "" {
		book.Symbol = symbol
	}

	turnover, err := c.GetTurnover24h(ctx, symbol)
	if err != nil {
		// the guard treats zero volume as a low-volume failure
		c.log.Warning("24h turnover unavailable for %s: %v", symbol, err)
	}
	book.QuoteVolume24h = turnover

	return book, nil
}

// GetTurnover24h returns the 24h quote volume of symbol
func (c *Client) GetTurnover24h(ctx context.Context, symbol string) (float64, error) {
	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
	}

	var turnover float64
	err := c.call(ctx, func() error {
		result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
		if err != nil {
			return err
		}
		turnover, err = parseTurnover(result, symbol)
		return err
	})
	if err != nil {
		return 0, WrapAPIError("get ticker "+symbol, err)
	}
	return turnover, nil
}

func parseOrderBook(response interface{}) (*types.OrderBook, error) {
	var res orderBookResult
	if err := decodeResult(response, &res); err != nil {
		return nil, err
	}

	book := &types.OrderBook{
		Symbol:    res.Symbol,
		Bids:      parseLevels(res.Bids),
		Asks:      parseLevels(res.Asks),
		Timestamp: time.UnixMilli(res.Timestamp),
	}
	if res.Timestamp == 0 {
		book.Timestamp = time.Now()
	}

	sort.SliceStable(book.Bids, func(i, j int) bool { return book.Bids[i].Price > book.Bids[j].Price })
	sort.SliceStable(book.Asks, func(i, j int) bool { return book.Asks[i].Price < book.Asks[j].Price })
	return book, nil
}

func parseLevels(rows [][]string) []types.OrderBookLevel {
	levels := make([]types.OrderBookLevel, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		level := types.OrderBookLevel{Price: parseFloat64(row[0]), Quantity: parseFloat64(row[1])}
		if level.Price <= 0 || level.Quantity <= 0 {
			continue
		}
		levels = append(levels, level)
	}
	return levels
}

func parseTurnover(response interface{}, symbol string) (float64, error) {
	var res tickerResult
	if err := decodeResult(response, &res); err != nil {
		return 0, err
	}
	for _, t := range res.List {
		if t.Symbol == symbol {
			return parseFloat64(t.Turnover24h), nil
		}
	}
	if len(res.List) == 1 {
		return parseFloat64(res.List[0].Turnover24h), nil
	}
	return 0, fmt.Errorf("no ticker data for %s", symbol)
}
