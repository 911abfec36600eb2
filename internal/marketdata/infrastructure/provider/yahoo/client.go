// Package yahoo 实现基于 Yahoo Finance HTTP 接口的行情数据源
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/edutrading/internal/marketdata/domain"
	"github.com/wyfcoding/edutrading/pkg/logger"
	"github.com/wyfcoding/edutrading/pkg/utils"
)

// Client Yahoo Finance 行情客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建行情客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchQuote 获取单个标的实时行情
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	quotes, err := c.FetchQuotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	for _, q := range quotes {
		if q != nil && q.Symbol == symbol {
			return q, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
}

// FetchQuotes 批量获取实时行情，结果与入参顺序一致，缺失的标的为 nil
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) ([]*domain.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var resp quoteResponse
	if err := c.getJSON(ctx, "/v7/finance/quote", params, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamUnavailable, resp.QuoteResponse.Error.Description)
	}

	bySymbol := make(map[string]*quotePayload, len(resp.QuoteResponse.Result))
	for i := range resp.QuoteResponse.Result {
		payload := &resp.QuoteResponse.Result[i]
		bySymbol[payload.Symbol] = payload
	}

	quotes := make([]*domain.Quote, len(symbols))
	for i, symbol := range symbols {
		if payload, ok := bySymbol[symbol]; ok {
			quotes[i] = toQuote(payload)
		}
	}
	return quotes, nil
}

// FetchHistory 获取区间内的 K 线序列
func (c *Client) FetchHistory(ctx context.Context, symbol string, interval domain.Interval, from, to time.Time) ([]domain.Bar, error) {
	params := url.Values{}
	params.Set("interval", granularity(interval))
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	params.Set("includePrePost", "false")

	var resp chartResponse
	if err := c.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), params, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		if strings.EqualFold(resp.Chart.Error.Code, "Not Found") {
			return nil, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
		}
		return nil, fmt.Errorf("%w: %s - %s", domain.ErrUpstreamUnavailable, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}
	series := result.Indicators.Quote[0]

	bars := make([]domain.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// 跳过无收盘价的空数据点
		if i >= len(series.Close) || series.Close[i] == nil {
			continue
		}
		t := time.Unix(ts, 0).UTC()
		if t.Before(from) || t.After(to) {
			continue
		}
		bars = append(bars, domain.Bar{
			Timestamp: t,
			Open:      derefAt(series.Open, i),
			High:      derefAt(series.High, i),
			Low:       derefAt(series.Low, i),
			Close:     *series.Close[i],
			Volume:    int64(derefAt(series.Volume, i)),
		})
	}
	return bars, nil
}

// Search 按关键字搜索标的
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SymbolMatch, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("quotesCount", strconv.Itoa(limit))
	params.Set("newsCount", "0")

	var resp searchResponse
	if err := c.getJSON(ctx, "/v1/finance/search", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamUnavailable, resp.Error.Description)
	}

	matches := make([]domain.SymbolMatch, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := utils.DerefString(q.ShortName)
		if name == "" {
			name = utils.DerefString(q.LongName)
		}
		if name == "" {
			name = q.Symbol
		}
		matches = append(matches, domain.SymbolMatch{
			Symbol:   q.Symbol,
			Name:     name,
			Exchange: utils.DerefString(q.ExchDisp),
			Type:     utils.DerefString(q.TypeDisp),
			Currency: utils.DerefString(q.Currency),
		})
		if len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

// getJSON 发起 GET 请求并解析 JSON，对瞬时错误做退避重试
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var body []byte
	err := utils.RetryWithBackoff(3, 200*time.Millisecond, 2*time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "edutrading/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			// 标的不存在无须重试
			body = nil
			return nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		logger.Warn(ctx, "market data request failed", "url", path, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if body == nil {
		return domain.ErrSymbolNotFound
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: malformed response: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}

// granularity 将统一周期映射为上游词汇，上游无 4h 粒度时取最接近的 1h
func granularity(interval domain.Interval) string {
	switch interval {
	case domain.Interval1Hour, domain.Interval4Hour:
		return "60m"
	default:
		return string(interval)
	}
}

// toQuote 组装行情快照，兼容两套字段命名，缺失的字段取零值
func toQuote(payload *quotePayload) *domain.Quote {
	name := utils.DerefString(payload.ShortName)
	if name == "" {
		name = utils.DerefString(payload.LongName)
	}

	timestamp := time.Now().UTC()
	if ts := utils.DerefInt64(payload.RegularMarketTime); ts > 0 {
		timestamp = time.Unix(ts, 0).UTC()
	}

	volume := utils.DerefInt64(payload.RegularMarketVolume)
	if volume == 0 {
		volume = utils.DerefInt64(payload.Volume)
	}

	return &domain.Quote{
		Symbol:        payload.Symbol,
		Name:          name,
		Price:         firstDecimal(payload.RegularMarketPrice, payload.Price),
		Change:        firstDecimal(payload.RegularMarketChange, payload.Change),
		ChangePercent: firstDecimal(payload.RegularMarketChangePercent, payload.ChangePercent),
		Open:          firstDecimal(payload.RegularMarketOpen, payload.Open),
		High:          firstDecimal(payload.RegularMarketDayHigh, payload.DayHigh),
		Low:           firstDecimal(payload.RegularMarketDayLow, payload.DayLow),
		PreviousClose: firstDecimal(payload.RegularMarketPreviousClose, payload.PreviousClose),
		Volume:        volume,
		MarketCap:     utils.DerefInt64(payload.MarketCap),
		Currency:      utils.DerefString(payload.Currency),
		Exchange:      utils.DerefString(payload.FullExchangeName),
		Timestamp:     timestamp,
	}
}

// firstDecimal 取第一个非零候选值
func firstDecimal(candidates ...*float64) decimal.Decimal {
	for _, c := range candidates {
		if v := utils.DerefFloat64(c); v != 0 {
			return decimal.NewFromFloat(v)
		}
	}
	return decimal.Zero
}

func derefAt(values []*float64, i int) float64 {
	if i >= len(values) {
		return 0
	}
	return utils.DerefFloat64(values[i])
}
