package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/edutrading/internal/marketdata/domain"
	"github.com/wyfcoding/edutrading/internal/marketdata/infrastructure/persistence/memory"
)

// fakeProvider 可编程的行情源
type fakeProvider struct {
	mu         sync.Mutex
	quotes     map[string]*domain.Quote
	bars       []domain.Bar
	matches    []domain.SymbolMatch
	err        error
	fetchCount int32
}

func (f *fakeProvider) FetchQuote(_ context.Context, symbol string) (*domain.Quote, error) {
	atomic.AddInt32(&f.fetchCount, 1)
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, domain.ErrSymbolNotFound
	}
	return q, nil
}

func (f *fakeProvider) FetchQuotes(ctx context.Context, symbols []string) ([]*domain.Quote, error) {
	out := make([]*domain.Quote, len(symbols))
	for i, s := range symbols {
		q, err := f.FetchQuote(ctx, s)
		if err != nil {
			continue
		}
		out[i] = q
	}
	return out, nil
}

func (f *fakeProvider) FetchHistory(_ context.Context, _ string, _ domain.Interval, _, _ time.Time) ([]domain.Bar, error) {
	atomic.AddInt32(&f.fetchCount, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func (f *fakeProvider) Search(_ context.Context, _ string, _ int) ([]domain.SymbolMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func quoteFor(symbol string, price int64) *domain.Quote {
	return &domain.Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromInt(price),
		Timestamp: time.Now().UTC(),
	}
}

func dailyBars(n int, start time.Time) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = domain.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price,
			High:      price + 2,
			Low:       price - 2,
			Close:     price + 1,
			Volume:    1000,
		}
	}
	return bars
}

func TestGetQuoteCaching(t *testing.T) {
	clock := time.Now()
	cache := memory.NewMarketCacheWithClock(func() time.Time { return clock })
	provider := &fakeProvider{quotes: map[string]*domain.Quote{
		"AAPL": quoteFor("AAPL", 150),
	}}
	svc := NewMarketDataService(provider, cache, nil, nil, 0)
	ctx := context.Background()

	quote, err := svc.GetQuote(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.fetchCount))

	// 缓存命中不再回源
	_, err = svc.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.fetchCount))

	// 缓存到期后重新回源
	clock = clock.Add(domain.QuoteCacheTTL + time.Second)
	_, err = svc.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&provider.fetchCount))
}

func TestGetQuoteInvalidSymbol(t *testing.T) {
	svc := NewMarketDataService(&fakeProvider{}, memory.NewMarketCache(), nil, nil, 0)

	_, err := svc.GetQuote(context.Background(), "not a symbol")
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)
}

func TestGetQuotesPartialFailure(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]*domain.Quote{
		"AAPL": quoteFor("AAPL", 150),
		"MSFT": quoteFor("MSFT", 300),
	}}
	svc := NewMarketDataService(provider, memory.NewMarketCache(), nil, nil, 4)

	results, err := svc.GetQuotes(context.Background(), []string{"AAPL", "NOPE", "MSFT"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "AAPL", results[0].Symbol)
	require.NotNil(t, results[0].Quote)
	assert.NoError(t, results[0].Err)

	assert.Equal(t, "NOPE", results[1].Symbol)
	assert.Nil(t, results[1].Quote)
	assert.ErrorIs(t, results[1].Err, domain.ErrSymbolNotFound)

	require.NotNil(t, results[2].Quote)
	assert.True(t, results[2].Quote.Price.Equal(decimal.NewFromInt(300)))
}

func TestGetQuotesLimits(t *testing.T) {
	svc := NewMarketDataService(&fakeProvider{}, memory.NewMarketCache(), nil, nil, 0)
	ctx := context.Background()

	_, err := svc.GetQuotes(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrEmptySymbols)

	symbols := make([]string, domain.MaxBatchSymbols+1)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("S%d", i)
	}
	_, err = svc.GetQuotes(ctx, symbols)
	assert.ErrorIs(t, err, domain.ErrTooManySymbols)
}

func TestGetHistory(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{bars: dailyBars(10, start)}
	svc := NewMarketDataService(provider, memory.NewMarketCache(), nil, nil, 0)
	ctx := context.Background()

	bars, err := svc.GetHistory(ctx, "AAPL", domain.Interval1Day, start, start.AddDate(0, 0, 10), 0)
	require.NoError(t, err)
	assert.Len(t, bars, 10)

	// limit 仅保留最近的若干根
	bars, err = svc.GetHistory(ctx, "AAPL", domain.Interval1Day, start, start.AddDate(0, 0, 10), 3)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, start.AddDate(0, 0, 9), bars[2].Timestamp)

	// 第二次命中缓存
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.fetchCount))
}

func TestGetHistoryInvalidRange(t *testing.T) {
	svc := NewMarketDataService(&fakeProvider{}, memory.NewMarketCache(), nil, nil, 0)

	now := time.Now().UTC()
	_, err := svc.GetHistory(context.Background(), "AAPL", domain.Interval1Day, now, now.Add(-time.Hour), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestSearchSymbols(t *testing.T) {
	provider := &fakeProvider{matches: []domain.SymbolMatch{
		{Symbol: "AAPL", Name: "Apple Inc."},
	}}
	svc := NewMarketDataService(provider, memory.NewMarketCache(), nil, nil, 0)
	ctx := context.Background()

	matches, err := svc.SearchSymbols(ctx, "apple", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "AAPL", matches[0].Symbol)

	_, err = svc.SearchSymbols(ctx, "   ", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestSearchSymbolsUpstreamError(t *testing.T) {
	provider := &fakeProvider{err: domain.ErrUpstreamUnavailable}
	// 无参考数据仓储时上游故障直接透传
	svc := NewMarketDataService(provider, memory.NewMarketCache(), nil, nil, 0)

	_, err := svc.SearchSymbols(context.Background(), "apple", 10)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestCalculateIndicator(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{bars: dailyBars(60, start)}
	svc := NewMarketDataService(provider, memory.NewMarketCache(), nil, nil, 0)
	ctx := context.Background()

	report, err := svc.CalculateIndicator(ctx, "AAPL", domain.IndicatorSMA, 14)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", report.Symbol)
	assert.Equal(t, domain.IndicatorSMA, report.Type)
	assert.Equal(t, 14, report.Period)
	assert.Equal(t, "SMA(14)", report.Indicator.Name)
	require.Len(t, report.Indicator.Values, 60-14+1)
	// 时间戳与数值尾部对齐
	require.Len(t, report.Indicator.Timestamps, len(report.Indicator.Values))
	assert.Equal(t, start.AddDate(0, 0, 59), report.Indicator.Timestamps[len(report.Indicator.Timestamps)-1])
}

func TestCalculateIndicatorPeriodBounds(t *testing.T) {
	svc := NewMarketDataService(&fakeProvider{}, memory.NewMarketCache(), nil, nil, 0)
	ctx := context.Background()

	_, err := svc.CalculateIndicator(ctx, "AAPL", domain.IndicatorSMA, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = svc.CalculateIndicator(ctx, "AAPL", domain.IndicatorSMA, domain.MaxIndicatorPeriod+1)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestCalculateIndicatorInsufficientData(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{bars: dailyBars(5, start)}
	svc := NewMarketDataService(provider, memory.NewMarketCache(), nil, nil, 0)

	_, err := svc.CalculateIndicator(context.Background(), "AAPL", domain.IndicatorSMA, 50)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestCacheDegradesToMissOnError(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]*domain.Quote{
		"AAPL": quoteFor("AAPL", 150),
	}}
	svc := NewMarketDataService(provider, &failingCache{}, nil, nil, 0)

	// 缓存故障不影响行情获取
	quote, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, quote.Price.Equal(decimal.NewFromInt(150)))
}

// failingCache 所有操作均返回错误
type failingCache struct{}

func (f *failingCache) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("cache down")
}

func (f *failingCache) Set(context.Context, string, any, time.Duration) error {
	return errors.New("cache down")
}

func (f *failingCache) Delete(context.Context, ...string) error {
	return errors.New("cache down")
}

func TestSearchQueryNormalizationInCacheKey(t *testing.T) {
	provider := &fakeProvider{matches: []domain.SymbolMatch{{Symbol: "AAPL", Name: "Apple Inc."}}}
	cache := memory.NewMarketCache()
	svc := NewMarketDataService(provider, cache, nil, nil, 0)
	ctx := context.Background()

	_, err := svc.SearchSymbols(ctx, "Apple", 10)
	require.NoError(t, err)

	// 大小写不同的同一查询命中同一缓存项
	provider.err = domain.ErrUpstreamUnavailable
	matches, err := svc.SearchSymbols(ctx, strings.ToUpper("Apple"), 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
