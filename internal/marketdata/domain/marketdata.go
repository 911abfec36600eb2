package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 批量行情单次请求的最大标的数
const MaxBatchSymbols = 50

// 搜索结果数量上限
const MaxSearchResults = 50

// 技术指标周期范围
const (
	MinIndicatorPeriod = 1
	MaxIndicatorPeriod = 200
)

// 历史行情默认查询区间
const DefaultHistoryRange = 30 * 24 * time.Hour

// Quote 实时行情快照
type Quote struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	PreviousClose decimal.Decimal `json:"previousClose"`
	Volume        int64           `json:"volume"`
	MarketCap     int64           `json:"marketCap,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	Exchange      string          `json:"exchange,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Bar 单根 K 线，指标计算使用浮点序列
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// SymbolMatch 标的搜索结果
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
	Type     string `json:"type,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// QuoteResult 批量行情中单个标的的结果，Err 非空时 Quote 为 nil
type QuoteResult struct {
	Symbol string
	Quote  *Quote
	Err    error
}

// Interval K 线周期
type Interval string

const (
	Interval1Min   Interval = "1m"
	Interval5Min   Interval = "5m"
	Interval15Min  Interval = "15m"
	Interval1Hour  Interval = "1h"
	Interval4Hour  Interval = "4h"
	Interval1Day   Interval = "1d"
	Interval1Week  Interval = "1wk"
	Interval1Month Interval = "1mo"
)

// ParseInterval 解析周期字符串，接受 1w 作为 1wk 的别名
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1m":
		return Interval1Min, nil
	case "5m":
		return Interval5Min, nil
	case "15m":
		return Interval15Min, nil
	case "1h", "60m":
		return Interval1Hour, nil
	case "4h":
		return Interval4Hour, nil
	case "1d", "":
		return Interval1Day, nil
	case "1w", "1wk":
		return Interval1Week, nil
	case "1mo":
		return Interval1Month, nil
	default:
		return "", ErrInvalidInterval
	}
}

// Intraday 是否为日内周期
func (i Interval) Intraday() bool {
	switch i {
	case Interval1Min, Interval5Min, Interval15Min, Interval1Hour, Interval4Hour:
		return true
	}
	return false
}

// HistoryTTL 历史行情缓存时长，周期越粗缓存越久
func (i Interval) HistoryTTL() time.Duration {
	if i.Intraday() {
		return time.Hour
	}
	return 24 * time.Hour
}

// symbolPattern 标的代码格式：1-5 位字母，可带 1-2 位字母的交易所后缀
var symbolPattern = regexp.MustCompile(`^[A-Z]{1,5}(\.[A-Z]{1,2})?$`)

// NormalizeSymbol 清理并标准化标的代码
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol 标准化并校验标的代码
func ValidateSymbol(symbol string) (string, error) {
	normalized := NormalizeSymbol(symbol)
	if normalized == "" || !symbolPattern.MatchString(normalized) {
		return "", ErrInvalidSymbol
	}
	return normalized, nil
}
