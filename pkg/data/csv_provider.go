package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ducminhle1904/position-risk-engine/internal/logger"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// ErrDataNotFound is returned when no candle file exists for a symbol
var ErrDataNotFound = errors.New("candle data not found")

// CSVProvider serves candles from CSV files under a data root. It
// satisfies the exchange candle provider for offline runs.
type CSVProvider struct {
	root    string
	format  CSVColumnMapping
	locator FileLocator
	log     *logger.Logger
}

// NewCSVProvider creates a new CSV data provider with default format
func NewCSVProvider(root string, log *logger.Logger) *CSVProvider {
	return &CSVProvider{
		root:    root,
		format:  DefaultCSVFormat,
		locator: NewDefaultFileLocator(),
		log:     logger.OrNop(log).With("provider", "csv"),
	}
}

// WithFormat overrides the column mapping
func (p *CSVProvider) WithFormat(format CSVColumnMapping) *CSVProvider {
	p.format = format
	return p
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "csv"
}

// GetCandles returns the last limit candles of symbol/timeframe, oldest first.
// limit <= 0 returns everything.
func (p *CSVProvider) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]types.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := p.locator.FindDataFile(p.root, symbol, timeframe)
	if path == "" {
		return nil, fmt.Errorf("%w: %s %s under %s", ErrDataNotFound, symbol, timeframe, p.root)
	}

	candles, err := p.LoadData(path)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// LoadData loads and validates candles from one CSV file. Malformed rows
// are skipped with a warning.
func (p *CSVProvider) LoadData(filename string) ([]types.OHLCV, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	var data []types.OHLCV
	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}

		candle, err := p.parseRecord(record)
		if err != nil {
			p.log.Warning("%s line %d skipped: %v", filename, lineNum, err)
			continue
		}
		data = append(data, candle)
	}

	if err := ValidateData(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return data, nil
}

func (p *CSVProvider) parseRecord(record []string) (types.OHLCV, error) {
	f := p.format
	if len(record) < f.MinColumns {
		return types.OHLCV{}, fmt.Errorf("expected %d columns, got %d", f.MinColumns, len(record))
	}

	timestamp, err := parseTime(record[f.TimestampCol], f.DateFormat)
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid timestamp %q: %w", record[f.TimestampCol], err)
	}

	var values [5]float64
	for i, col := range []int{f.OpenCol, f.HighCol, f.LowCol, f.CloseCol, f.VolumeCol} {
		v, err := strconv.ParseFloat(record[col], 64)
		if err != nil {
			return types.OHLCV{}, fmt.Errorf("invalid number %q in column %d", record[col], col)
		}
		values[i] = v
	}

	c := types.OHLCV{
		Timestamp: timestamp,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return types.OHLCV{}, fmt.Errorf("non-positive price")
	}
	if c.High < c.Low || c.High < c.Open || c.High < c.Close || c.Low > c.Open || c.Low > c.Close {
		return types.OHLCV{}, fmt.Errorf("inconsistent high/low")
	}
	return c, nil
}

func parseTime(value, layout string) (time.Time, error) {
	if layout == "" {
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Parse(layout, value)
}

// ValidateData checks that candles are in chronological order
func ValidateData(data []types.OHLCV) error {
	for i := 1; i < len(data); i++ {
		if data[i].Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be in chronological order", i)
		}
	}
	return nil
}
