package data

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `timestamp,open,high,low,close,volume
2024-07-01 00:00:00,100,110,95,105,1000
2024-07-01 01:00:00,105,112,104,110,1200
2024-07-01 02:00:00,110,111,90,95,800
2024-07-01 03:00:00,95,abc,90,95,800
2024-07-01 04:00:00,95,99,94,98,900
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCSVProvider_GetCandles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "BTCUSDT", "1h.csv"), sampleCSV)

	p := NewCSVProvider(root, nil)

	all, err := p.GetCandles(context.Background(), "btcusdt", "1h", 0)
	require.NoError(t, err)
	require.Len(t, all, 4, "malformed row is skipped")
	assert.Equal(t, 100.0, all[0].Open)
	assert.Equal(t, 98.0, all[3].Close)

	last, err := p.GetCandles(context.Background(), "BTCUSDT", "1h", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, 95.0, last[0].Close)

	_, err = p.GetCandles(context.Background(), "ETHUSDT", "1h", 10)
	assert.True(t, errors.Is(err, ErrDataNotFound))
}

func TestCSVProvider_NestedLayoutAndMillis(t *testing.T) {
	root := t.TempDir()
	rows := "start,open,high,low,close,volume\n1719792000000,10,11,9,10.5,100\n1719795600000,10.5,12,10,11,150\n"
	writeFile(t, filepath.Join(root, "bybit", "spot", "SOLUSDT", "60", "candles.csv"), rows)

	p := NewCSVProvider(root, nil).WithFormat(BybitCSVFormat)
	candles, err := p.GetCandles(context.Background(), "SOLUSDT", "1h", 0)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1719792000000), candles[0].Timestamp.UnixMilli())
}

func TestCSVProvider_OutOfOrder(t *testing.T) {
	root := t.TempDir()
	rows := strings.Join([]string{
		"timestamp,open,high,low,close,volume",
		"2024-07-01 01:00:00,100,110,95,105,1000",
		"2024-07-01 00:00:00,100,110,95,105,1000",
	}, "\n")
	writeFile(t, filepath.Join(root, "BTCUSDT", "1h.csv"), rows)

	_, err := NewCSVProvider(root, nil).GetCandles(context.Background(), "BTCUSDT", "1h", 0)
	assert.Error(t, err)
}

func TestCSVProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCSVProvider(t.TempDir(), nil).GetCandles(ctx, "BTCUSDT", "1h", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertIntervalToMinutes(t *testing.T) {
	cases := map[string]string{"5m": "5", "1h": "60", "4h": "240", "1d": "1440", "1w": "10080", "15": "15", "x": "x"}
	for in, want := range cases {
		assert.Equal(t, want, ConvertIntervalToMinutes(in), in)
	}
}
