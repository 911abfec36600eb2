// Package application 实现行情服务的用例编排
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/wyfcoding/edutrading/internal/marketdata/domain"
	"github.com/wyfcoding/edutrading/pkg/logger"
	"github.com/wyfcoding/edutrading/pkg/metrics"
)

// 指标计算所需的历史数据回看区间
const indicatorLookback = 365 * 24 * time.Hour

// MarketDataService 行情服务
type MarketDataService struct {
	provider       domain.QuoteProvider
	cache          domain.CacheStore
	instruments    domain.InstrumentRepository
	metrics        *metrics.Metrics
	group          singleflight.Group
	maxConcurrency int
}

// NewMarketDataService 创建行情服务
// instruments 与 m 允许为 nil，分别关闭参考数据回填与指标上报
func NewMarketDataService(
	provider domain.QuoteProvider,
	cache domain.CacheStore,
	instruments domain.InstrumentRepository,
	m *metrics.Metrics,
	maxConcurrency int,
) *MarketDataService {
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}
	return &MarketDataService{
		provider:       provider,
		cache:          cache,
		instruments:    instruments,
		metrics:        m,
		maxConcurrency: maxConcurrency,
	}
}

// GetQuote 获取单个标的实时行情，优先读缓存
func (s *MarketDataService) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	normalized, err := domain.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}

	cacheKey := "quote:" + normalized

	var cached domain.Quote
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	// singleflight 合并同一标的的并发回源
	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		quote, err := s.fetchQuote(ctx, normalized)
		if err != nil {
			return nil, err
		}
		s.cacheSet(ctx, cacheKey, quote, domain.QuoteCacheTTL)
		return quote, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Quote), nil
}

// GetQuotes 批量获取实时行情，逐标的并发执行并捕获单项错误
func (s *MarketDataService) GetQuotes(ctx context.Context, symbols []string) ([]domain.QuoteResult, error) {
	if len(symbols) == 0 {
		return nil, domain.ErrEmptySymbols
	}
	if len(symbols) > domain.MaxBatchSymbols {
		return nil, fmt.Errorf("%w: %d symbols, maximum is %d", domain.ErrTooManySymbols, len(symbols), domain.MaxBatchSymbols)
	}

	results := make([]domain.QuoteResult, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, symbol := range symbols {
		g.Go(func() error {
			quote, err := s.GetQuote(gctx, symbol)
			results[i] = domain.QuoteResult{
				Symbol: domain.NormalizeSymbol(symbol),
				Quote:  quote,
				Err:    err,
			}
			// 单项失败不影响其余标的
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// SearchSymbols 按关键字搜索标的，上游不可用时回退参考数据表
func (s *MarketDataService) SearchSymbols(ctx context.Context, query string, limit int) ([]domain.SymbolMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidQuery
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > domain.MaxSearchResults {
		limit = domain.MaxSearchResults
	}

	cacheKey := fmt.Sprintf("search:%s:%d", strings.ToLower(query), limit)

	var cached []domain.SymbolMatch
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		matches, err := s.provider.Search(ctx, query, limit)
		s.recordUpstream(err)
		if err != nil {
			if errors.Is(err, domain.ErrUpstreamUnavailable) {
				return s.searchFallback(ctx, query, limit, err)
			}
			return nil, err
		}

		s.rememberInstruments(ctx, matches)
		s.cacheSet(ctx, cacheKey, matches, domain.SearchCacheTTL)
		return matches, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.SymbolMatch), nil
}

// GetHistory 获取历史 K 线，limit 大于零时仅保留最近的 limit 根
func (s *MarketDataService) GetHistory(ctx context.Context, symbol string, interval domain.Interval, from, to time.Time, limit int) ([]domain.Bar, error) {
	normalized, err := domain.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}

	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-domain.DefaultHistoryRange)
	}
	if !from.Before(to) {
		return nil, domain.ErrInvalidRange
	}

	cacheKey := fmt.Sprintf("history:%s:%s:%d:%d", normalized, interval, from.Unix(), to.Unix())

	var bars []domain.Bar
	if !s.cacheGet(ctx, cacheKey, &bars) {
		v, err, _ := s.group.Do(cacheKey, func() (any, error) {
			fetched, err := s.provider.FetchHistory(ctx, normalized, interval, from, to)
			s.recordUpstream(err)
			if err != nil {
				return nil, err
			}
			s.cacheSet(ctx, cacheKey, fetched, interval.HistoryTTL())
			return fetched, nil
		})
		if err != nil {
			return nil, err
		}
		bars = v.([]domain.Bar)
	}

	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// IndicatorReport 指标计算结果
type IndicatorReport struct {
	Symbol    string                 `json:"symbol"`
	Type      domain.IndicatorType   `json:"type"`
	Period    int                    `json:"period"`
	Indicator domain.IndicatorSeries `json:"indicator"`
}

// CalculateIndicator 基于一年日线数据计算技术指标
func (s *MarketDataService) CalculateIndicator(ctx context.Context, symbol string, indicatorType domain.IndicatorType, period int) (*IndicatorReport, error) {
	normalized, err := domain.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if period < domain.MinIndicatorPeriod || period > domain.MaxIndicatorPeriod {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidPeriod, period)
	}

	now := time.Now().UTC()
	bars, err := s.GetHistory(ctx, normalized, domain.Interval1Day, now.Add(-indicatorLookback), now, 0)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, domain.ErrInsufficientData
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	timestamps := make([]time.Time, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
		highs[i] = bar.High
		lows[i] = bar.Low
		timestamps[i] = bar.Timestamp
	}

	var values []float64
	switch indicatorType {
	case domain.IndicatorSMA:
		values = domain.SMA(closes, period)
	case domain.IndicatorEMA:
		values = domain.EMA(closes, period)
	case domain.IndicatorRSI:
		values = domain.RSI(closes, period)
	case domain.IndicatorMACD:
		values = domain.MACD(closes, 12, 26, 9).MACD
	case domain.IndicatorBollinger:
		values = domain.Bollinger(closes, period, 2).Middle
	case domain.IndicatorStochastic:
		values = domain.Stochastic(highs, lows, closes, period, 3).K
	case domain.IndicatorVolatility:
		values = domain.Volatility(closes, period)
	default:
		return nil, domain.ErrInvalidIndicator
	}

	if len(values) == 0 {
		return nil, domain.ErrInsufficientData
	}

	return &IndicatorReport{
		Symbol: normalized,
		Type:   indicatorType,
		Period: period,
		Indicator: domain.IndicatorSeries{
			Name:       domain.IndicatorName(indicatorType, period),
			Values:     values,
			Timestamps: timestamps[len(timestamps)-len(values):],
		},
	}, nil
}

// fetchQuote 回源获取行情并回填参考数据
func (s *MarketDataService) fetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	quote, err := s.provider.FetchQuote(ctx, symbol)
	s.recordUpstream(err)
	if err != nil {
		return nil, err
	}

	if s.instruments != nil {
		instrument := &domain.Instrument{
			Symbol:   quote.Symbol,
			Name:     quote.Name,
			Exchange: quote.Exchange,
			Currency: quote.Currency,
		}
		if err := s.instruments.Upsert(ctx, instrument); err != nil {
			logger.Warn(ctx, "failed to store instrument reference", "symbol", quote.Symbol, "error", err)
		}
	}

	return quote, nil
}

// searchFallback 上游不可用时查询参考数据表
func (s *MarketDataService) searchFallback(ctx context.Context, query string, limit int, cause error) (any, error) {
	if s.instruments == nil {
		return nil, cause
	}

	instruments, err := s.instruments.Search(ctx, query, limit)
	if err != nil || len(instruments) == 0 {
		return nil, cause
	}

	logger.Warn(ctx, "search served from instrument reference fallback", "query", query)
	matches := make([]domain.SymbolMatch, 0, len(instruments))
	for _, inst := range instruments {
		matches = append(matches, domain.SymbolMatch{
			Symbol:   inst.Symbol,
			Name:     inst.Name,
			Exchange: inst.Exchange,
			Type:     inst.Type,
			Currency: inst.Currency,
		})
	}
	return matches, nil
}

// rememberInstruments 把搜索结果回填参考数据表
func (s *MarketDataService) rememberInstruments(ctx context.Context, matches []domain.SymbolMatch) {
	if s.instruments == nil {
		return
	}
	for _, match := range matches {
		instrument := &domain.Instrument{
			Symbol:   match.Symbol,
			Name:     match.Name,
			Exchange: match.Exchange,
			Type:     match.Type,
			Currency: match.Currency,
		}
		if err := s.instruments.Upsert(ctx, instrument); err != nil {
			logger.Warn(ctx, "failed to store instrument reference", "symbol", match.Symbol, "error", err)
			return
		}
	}
}

// cacheGet 读缓存，故障降级为未命中
func (s *MarketDataService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.Warn(ctx, "cache read failed", "key", key, "error", err)
		return false
	}
	if s.metrics != nil {
		if hit {
			s.metrics.CacheHitsTotal.Inc()
		} else {
			s.metrics.CacheMissesTotal.Inc()
		}
	}
	return hit
}

// cacheSet 写缓存，故障只记录日志
func (s *MarketDataService) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		logger.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
}

func (s *MarketDataService) recordUpstream(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.UpstreamRequestsTotal.Inc()
	if err != nil {
		s.metrics.UpstreamErrorsTotal.Inc()
	}
}
