package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderExecutedEvent 订单成交事件
type OrderExecutedEvent struct {
	OrderID        string          `json:"orderId"`
	UserID         string          `json:"userId"`
	Symbol         string          `json:"symbol"`
	Side           OrderSide       `json:"side"`
	Type           OrderType       `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExecutionPrice decimal.Decimal `json:"executionPrice"`
	ExecutedAt     time.Time       `json:"executedAt"`
}

// PortfolioResetEvent 组合重置事件
type PortfolioResetEvent struct {
	UserID  string    `json:"userId"`
	ResetAt time.Time `json:"resetAt"`
}

// EventPublisher 交易事件发布接口
// 发布失败由调用方记录日志，账本数据为事实来源
type EventPublisher interface {
	PublishOrderExecuted(ctx context.Context, event *OrderExecutedEvent) error
	PublishPortfolioReset(ctx context.Context, event *PortfolioResetEvent) error
}
