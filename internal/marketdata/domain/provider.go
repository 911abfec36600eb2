package domain

import (
	"context"
	"time"
)

// QuoteProvider 上游行情数据源
type QuoteProvider interface {
	// FetchQuote 获取单个标的实时行情
	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
	// FetchQuotes 批量获取实时行情，返回顺序与入参一致
	FetchQuotes(ctx context.Context, symbols []string) ([]*Quote, error)
	// FetchHistory 获取区间内的 K 线序列，按时间升序
	FetchHistory(ctx context.Context, symbol string, interval Interval, from, to time.Time) ([]Bar, error)
	// Search 按关键字搜索标的
	Search(ctx context.Context, query string, limit int) ([]SymbolMatch, error)
}
