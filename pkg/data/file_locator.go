package data

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultFileLocator looks for candle files in the layouts the data
// downloader writes
type DefaultFileLocator struct {
	// Exchange and categories searched by the nested layout
	Exchange   string
	Categories []string
}

// NewDefaultFileLocator creates a locator for Bybit dumps
func NewDefaultFileLocator() *DefaultFileLocator {
	return &DefaultFileLocator{
		Exchange:   "bybit",
		Categories: []string{"linear", "spot", "inverse"},
	}
}

// ConvertIntervalToMinutes converts interval strings like "5m", "1h", "4h" to minute numbers
func ConvertIntervalToMinutes(interval string) string {
	if _, err := strconv.Atoi(interval); err == nil {
		return interval
	}

	interval = strings.ToLower(strings.TrimSpace(interval))
	if len(interval) < 2 {
		return interval
	}

	num, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil {
		return interval
	}

	switch interval[len(interval)-1:] {
	case "m":
		return strconv.Itoa(num)
	case "h":
		return strconv.Itoa(num * 60)
	case "d":
		return strconv.Itoa(num * 24 * 60)
	case "w":
		return strconv.Itoa(num * 7 * 24 * 60)
	default:
		return interval
	}
}

// Candidates lists the paths tried for symbol/timeframe, in order:
//
//	{root}/{SYMBOL}/{timeframe}.csv
//	{root}/{exchange}/{category}/{SYMBOL}/{minutes}/candles.csv
func (f *DefaultFileLocator) Candidates(dataRoot, symbol, timeframe string) []string {
	symbol = strings.ToUpper(symbol)
	paths := []string{filepath.Join(dataRoot, symbol, timeframe+".csv")}

	minutes := ConvertIntervalToMinutes(timeframe)
	for _, category := range f.Categories {
		paths = append(paths, filepath.Join(dataRoot, f.Exchange, category, symbol, minutes, "candles.csv"))
	}
	return paths
}

// FindDataFile returns the first existing candidate, or "" when none exists
func (f *DefaultFileLocator) FindDataFile(dataRoot, symbol, timeframe string) string {
	for _, path := range f.Candidates(dataRoot, symbol, timeframe) {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
