package bybit

import (
	"context"
	"fmt"
	"time"

	"github.com/ducminhle1904/position-risk-engine/internal/cache"
	"github.com/ducminhle1904/position-risk-engine/internal/risk"
)

const namespaceInstruments = "bybit_instruments"

// InstrumentInfo is the subset of /v5/market/instruments-info the risk engine reads
type InstrumentInfo struct {
	Symbol      string `json:"symbol"`
	Status      string `json:"status"`
	BaseCoin    string `json:"baseCoin"`
	QuoteCoin   string `json:"quoteCoin"`
	PriceFilter struct {
		TickSize string `json:"tickSize"`
	} `json:"priceFilter"`
	LotSizeFilter struct {
		MinNotionalValue string `json:"minNotionalValue"`
		MinOrderAmt      string `json:"minOrderAmt"`
		MinOrderQty      string `json:"minOrderQty"`
		MaxOrderQty      string `json:"maxOrderQty"`
		QtyStep          string `json:"qtyStep"`
		BasePrecision    string `json:"basePrecision"`
	} `json:"lotSizeFilter"`
}

// SymbolSpec converts the lot size filter to quantization rules. Linear
// contracts publish qtyStep and minNotionalValue; spot publishes
// basePrecision and minOrderAmt.
func (i InstrumentInfo) SymbolSpec() risk.SymbolSpec {
	spec := risk.DefaultSymbolSpec

	step := parseFloat64(i.LotSizeFilter.QtyStep)
	if step <= 0 {
		step = parseFloat64(i.LotSizeFilter.BasePrecision)
	}
	if step > 0 {
		spec.StepSize = step
	}

	minNotional := parseFloat64(i.LotSizeFilter.MinNotionalValue)
	if minNotional <= 0 {
		minNotional = parseFloat64(i.LotSizeFilter.MinOrderAmt)
	}
	if minNotional > 0 {
		spec.MinNotional = minNotional
	}
	return spec
}

type instrumentsResult struct {
	Category string           `json:"category"`
	List     []InstrumentInfo `json:"list"`
}

// InstrumentManager fetches and caches instrument information
type InstrumentManager struct {
	client *Client
	cache  cache.Cache
	ttl    time.Duration
}

// NewInstrumentManager creates a new instrument manager
func NewInstrumentManager(client *Client, c cache.Cache, ttl time.Duration) *InstrumentManager {
	return &InstrumentManager{client: client, cache: c, ttl: ttl}
}

// GetInstrumentInfo retrieves and caches instrument information
func (im *InstrumentManager) GetInstrumentInfo(ctx context.Context, symbol string) (InstrumentInfo, error) {
	if v, ok := im.cache.Get(namespaceInstruments, symbol); ok {
		if info, ok := v.(InstrumentInfo); ok {
			return info, nil
		}
	}

	params := map[string]interface{}{
		"category": im.client.category,
		"symbol":   symbol,
	}

	var info InstrumentInfo
	err := im.client.call(ctx, func() error {
		result, err := im.client.httpClient.NewUtaBybitServiceWithParams(params).GetInstrumentInfo(ctx)
		if err != nil {
			return err
		}
		info, err = parseInstrument(result, symbol)
		return err
	})
	if err != nil {
		return InstrumentInfo{}, WrapAPIError("get instrument info "+symbol, err)
	}

	im.cache.Set(namespaceInstruments, symbol, info, im.ttl)
	return info, nil
}

// GetSymbolSpec returns the quantization rules for symbol
func (c *Client) GetSymbolSpec(ctx context.Context, symbol string) (risk.SymbolSpec, error) {
	info, err := c.instruments.GetInstrumentInfo(ctx, symbol)
	if err != nil {
		return risk.SymbolSpec{}, err
	}
	return info.SymbolSpec(), nil
}

func parseInstrument(response interface{}, symbol string) (InstrumentInfo, error) {
	var res instrumentsResult
	if err := decodeResult(response, &res); err != nil {
		return InstrumentInfo{}, err
	}
	for _, item := range res.List {
		if item.Symbol == symbol {
			return item, nil
		}
	}
	return InstrumentInfo{}, NewBybitError(ErrCodeSymbolNotFound, fmt.Sprintf("instrument %s not found", symbol))
}
