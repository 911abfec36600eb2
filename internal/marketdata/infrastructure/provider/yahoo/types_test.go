package yahoo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/wyfcoding/edutrading/pkg/utils"
)

func TestToQuoteFieldFallbacks(t *testing.T) {
	t.Run("primary fields win", func(t *testing.T) {
		q := toQuote(&quotePayload{
			Symbol:             "AAPL",
			ShortName:          utils.StringPtr("Apple Inc."),
			RegularMarketPrice: utils.Float64Ptr(150.25),
			Price:              utils.Float64Ptr(1.0),
		})
		assert.True(t, q.Price.Equal(decimal.NewFromFloat(150.25)))
		assert.Equal(t, "Apple Inc.", q.Name)
	})

	t.Run("zero primary falls through to alternate", func(t *testing.T) {
		q := toQuote(&quotePayload{
			Symbol:             "AAPL",
			RegularMarketPrice: utils.Float64Ptr(0),
			Price:              utils.Float64Ptr(99.5),
		})
		assert.True(t, q.Price.Equal(decimal.NewFromFloat(99.5)))
	})

	t.Run("missing fields default to zero", func(t *testing.T) {
		q := toQuote(&quotePayload{Symbol: "AAPL"})
		assert.True(t, q.Price.IsZero())
		assert.True(t, q.Change.IsZero())
		assert.Empty(t, q.Name)
		assert.Zero(t, q.Volume)
	})

	t.Run("name falls back to long name", func(t *testing.T) {
		q := toQuote(&quotePayload{
			Symbol:   "AAPL",
			LongName: utils.StringPtr("Apple Inc. Common Stock"),
		})
		assert.Equal(t, "Apple Inc. Common Stock", q.Name)
	})

	t.Run("volume falls back to alternate field", func(t *testing.T) {
		q := toQuote(&quotePayload{
			Symbol: "AAPL",
			Volume: utils.Int64Ptr(5000),
		})
		assert.Equal(t, int64(5000), q.Volume)
	})
}
