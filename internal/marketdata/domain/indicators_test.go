package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		period int
		want   []float64
	}{
		{
			name:   "basic window",
			values: []float64{10, 20, 30, 40},
			period: 3,
			want:   []float64{20, 30},
		},
		{
			name:   "period equals length",
			values: []float64{2, 4, 6},
			period: 3,
			want:   []float64{4},
		},
		{
			name:   "not enough data",
			values: []float64{1, 2},
			period: 3,
			want:   nil,
		},
		{
			name:   "zero period",
			values: []float64{1, 2, 3},
			period: 0,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SMA(tt.values, tt.period)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEMA(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}
	got := EMA(values, 3)

	require.Len(t, got, 3)
	// 首个值为前三个数据的 SMA
	assert.InDelta(t, 20.0, got[0], 1e-9)
	// 乘数 2/(3+1)=0.5
	assert.InDelta(t, 30.0, got[1], 1e-9)
	assert.InDelta(t, 40.0, got[2], 1e-9)
}

func TestRSI(t *testing.T) {
	t.Run("all gains yields 100", func(t *testing.T) {
		prices := []float64{1, 2, 3, 4, 5, 6}
		got := RSI(prices, 3)
		require.NotEmpty(t, got)
		for _, v := range got {
			assert.InDelta(t, 100.0, v, 1e-9)
		}
	})

	t.Run("alternating moves stay in range", func(t *testing.T) {
		prices := []float64{10, 12, 11, 13, 12, 14, 13, 15}
		got := RSI(prices, 4)
		require.NotEmpty(t, got)
		for _, v := range got {
			assert.Greater(t, v, 0.0)
			assert.Less(t, v, 100.0)
		}
	})

	t.Run("insufficient data", func(t *testing.T) {
		assert.Nil(t, RSI([]float64{1, 2, 3}, 3))
	})
}

func TestMACD(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	got := MACD(prices, 12, 26, 9)

	// 慢线 EMA 长度为 len-26+1，对齐后 MACD 等长
	require.Len(t, got.MACD, len(prices)-26+1)
	require.Len(t, got.Signal, len(got.MACD)-9+1)
	require.Len(t, got.Histogram, len(got.Signal))

	// 稳定上升序列中快线高于慢线
	for _, v := range got.MACD[10:] {
		assert.Greater(t, v, 0.0)
	}
}

func TestMACDInsufficientData(t *testing.T) {
	got := MACD([]float64{1, 2, 3}, 12, 26, 9)
	assert.Empty(t, got.MACD)
	assert.Empty(t, got.Signal)
	assert.Empty(t, got.Histogram)
}

func TestBollinger(t *testing.T) {
	t.Run("constant prices collapse bands", func(t *testing.T) {
		prices := []float64{50, 50, 50, 50, 50}
		got := Bollinger(prices, 3, 2)

		require.Len(t, got.Middle, 3)
		for i := range got.Middle {
			assert.InDelta(t, 50.0, got.Middle[i], 1e-9)
			assert.InDelta(t, 50.0, got.Upper[i], 1e-9)
			assert.InDelta(t, 50.0, got.Lower[i], 1e-9)
		}
	})

	t.Run("bands bracket the middle", func(t *testing.T) {
		prices := []float64{10, 12, 11, 14, 13, 16, 15}
		got := Bollinger(prices, 4, 2)

		require.Len(t, got.Middle, 4)
		for i := range got.Middle {
			assert.Greater(t, got.Upper[i], got.Middle[i])
			assert.Less(t, got.Lower[i], got.Middle[i])
		}
	})
}

func TestStochastic(t *testing.T) {
	t.Run("close at high yields 100", func(t *testing.T) {
		highs := []float64{10, 11, 12, 13, 14}
		lows := []float64{8, 9, 10, 11, 12}
		closes := []float64{10, 11, 12, 13, 14}

		got := Stochastic(highs, lows, closes, 3, 3)
		require.NotEmpty(t, got.K)
		for _, v := range got.K {
			assert.InDelta(t, 100.0, v, 1e-9)
		}
	})

	t.Run("flat window yields 50", func(t *testing.T) {
		highs := []float64{10, 10, 10}
		lows := []float64{10, 10, 10}
		closes := []float64{10, 10, 10}

		got := Stochastic(highs, lows, closes, 3, 3)
		require.Len(t, got.K, 1)
		assert.InDelta(t, 50.0, got.K[0], 1e-9)
	})
}

func TestVolatility(t *testing.T) {
	t.Run("constant prices have zero volatility", func(t *testing.T) {
		prices := []float64{100, 100, 100, 100, 100}
		got := Volatility(prices, 3)
		require.NotEmpty(t, got)
		for _, v := range got {
			assert.InDelta(t, 0.0, v, 1e-9)
		}
	})

	t.Run("volatile prices are positive", func(t *testing.T) {
		prices := []float64{100, 110, 95, 120, 90, 115}
		got := Volatility(prices, 3)
		require.NotEmpty(t, got)
		for _, v := range got {
			assert.Greater(t, v, 0.0)
		}
	})
}

func TestParseIndicatorType(t *testing.T) {
	for _, valid := range []string{"sma", "ema", "rsi", "macd", "bollinger", "stochastic", "volatility"} {
		got, err := ParseIndicatorType(valid)
		assert.NoError(t, err)
		assert.Equal(t, IndicatorType(valid), got)
	}

	_, err := ParseIndicatorType("fibonacci")
	assert.ErrorIs(t, err, ErrInvalidIndicator)
}
