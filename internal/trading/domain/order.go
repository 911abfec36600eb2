package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderSide 订单方向
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType 订单类型
type OrderType string

const (
	TypeMarket OrderType = "MARKET"
	TypeLimit  OrderType = "LIMIT"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusExecuted  OrderStatus = "EXECUTED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Order 订单记录
type Order struct {
	gorm.Model
	OrderID        string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"orderId"`
	PortfolioID    uint            `gorm:"index;not null" json:"-"`
	UserID         string          `gorm:"type:varchar(64);index;not null" json:"userId"`
	Symbol         string          `gorm:"type:varchar(16);not null" json:"symbol"`
	Side           OrderSide       `gorm:"type:varchar(8);not null" json:"side"`
	Type           OrderType       `gorm:"type:varchar(8);not null" json:"type"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"quantity"`
	Price          decimal.Decimal `gorm:"type:decimal(20,8)" json:"price"`
	ExecutionPrice decimal.Decimal `gorm:"type:decimal(20,8)" json:"executionPrice"`
	Status         OrderStatus     `gorm:"type:varchar(16);index;not null" json:"status"`
	ExecutedAt     *time.Time      `json:"executedAt,omitempty"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// ParseOrderSide 解析订单方向
func ParseOrderSide(s string) (OrderSide, error) {
	switch OrderSide(s) {
	case SideBuy, SideSell:
		return OrderSide(s), nil
	default:
		return "", fmt.Errorf("%w: side must be BUY or SELL", ErrInvalidOrder)
	}
}

// ParseOrderType 解析订单类型
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(s) {
	case TypeMarket, TypeLimit:
		return OrderType(s), nil
	default:
		return "", fmt.Errorf("%w: type must be MARKET or LIMIT", ErrInvalidOrder)
	}
}

// ParseOrderStatus 解析订单状态
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusExecuted, StatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown status %s", ErrInvalidOrder, s)
	}
}

// ValidateOrderParams 校验下单参数
// 限价单必须带正的限价，市价单忽略限价
func ValidateOrderParams(orderType OrderType, quantity, price decimal.Decimal) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	if orderType == TypeLimit && !price.IsPositive() {
		return fmt.Errorf("%w: limit orders require a positive price", ErrInvalidOrder)
	}
	return nil
}
