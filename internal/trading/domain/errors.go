package domain

import "errors"

// 领域错误定义
var (
	// ErrPortfolioNotFound 投资组合不存在
	ErrPortfolioNotFound = errors.New("portfolio not found")
	// ErrPositionNotFound 持仓不存在
	ErrPositionNotFound = errors.New("position not found")
	// ErrInsufficientFunds 现金不足
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientHoldings 持仓数量不足
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	// ErrInvalidOrder 下单参数非法
	ErrInvalidOrder = errors.New("invalid order")
	// ErrQuoteUnavailable 无法获取成交价
	ErrQuoteUnavailable = errors.New("quote unavailable for order execution")
)
