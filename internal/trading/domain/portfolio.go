package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultInitialCash 模拟账户初始资金
var DefaultInitialCash = decimal.NewFromInt(500000)

// Portfolio 模拟投资组合，每个用户一个
type Portfolio struct {
	gorm.Model
	UserID string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"userId"`
	Cash   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cash"`
}

// TableName 指定表名
func (Portfolio) TableName() string {
	return "portfolios"
}

// NewPortfolio 创建带初始资金的投资组合
func NewPortfolio(userID string) *Portfolio {
	return &Portfolio{
		UserID: userID,
		Cash:   DefaultInitialCash,
	}
}

// Debit 扣减现金，余额不足返回 ErrInsufficientFunds
func (p *Portfolio) Debit(amount decimal.Decimal) error {
	if p.Cash.LessThan(amount) {
		return ErrInsufficientFunds
	}
	p.Cash = p.Cash.Sub(amount)
	return nil
}

// Credit 增加现金
func (p *Portfolio) Credit(amount decimal.Decimal) {
	p.Cash = p.Cash.Add(amount)
}

// ResetCash 恢复初始资金
func (p *Portfolio) ResetCash() {
	p.Cash = DefaultInitialCash
}

// Position 持仓，同一组合内每个标的一条
type Position struct {
	gorm.Model
	PortfolioID uint            `gorm:"uniqueIndex:idx_portfolio_symbol;not null" json:"-"`
	Symbol      string          `gorm:"type:varchar(16);uniqueIndex:idx_portfolio_symbol;not null" json:"symbol"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"quantity"`
	AvgCost     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"avgCost"`
}

// TableName 指定表名
func (Position) TableName() string {
	return "positions"
}

// ApplyBuy 买入加仓并重算加权平均成本
func (p *Position) ApplyBuy(quantity, price decimal.Decimal) {
	totalCost := p.Quantity.Mul(p.AvgCost).Add(quantity.Mul(price))
	p.Quantity = p.Quantity.Add(quantity)
	p.AvgCost = totalCost.Div(p.Quantity)
}

// ApplySell 卖出减仓，平均成本保持不变
// 持仓不足返回 ErrInsufficientHoldings，返回是否已清仓
func (p *Position) ApplySell(quantity decimal.Decimal) (closed bool, err error) {
	if p.Quantity.LessThan(quantity) {
		return false, ErrInsufficientHoldings
	}
	p.Quantity = p.Quantity.Sub(quantity)
	return p.Quantity.IsZero(), nil
}

// MarketValue 按给定价格计算持仓市值
func (p *Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.Quantity.Mul(price)
}

// UnrealizedPnL 按给定价格计算浮动盈亏
func (p *Position) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	return price.Sub(p.AvgCost).Mul(p.Quantity)
}
