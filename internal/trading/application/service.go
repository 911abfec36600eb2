// Package application 实现模拟交易的用例编排
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	marketdomain "github.com/wyfcoding/edutrading/internal/marketdata/domain"
	"github.com/wyfcoding/edutrading/internal/trading/domain"
	"github.com/wyfcoding/edutrading/pkg/logger"
	"github.com/wyfcoding/edutrading/pkg/metrics"
	"github.com/wyfcoding/edutrading/pkg/utils"
)

// 组合快照中附带的最近订单数
const recentOrderCount = 10

// 订单列表默认返回条数
const defaultOrderListLimit = 50

// QuotePricer 提供成交定价所需的实时行情
type QuotePricer interface {
	GetQuote(ctx context.Context, symbol string) (*marketdomain.Quote, error)
}

// TradingService 模拟交易服务
type TradingService struct {
	repo      domain.PortfolioRepository
	pricer    QuotePricer
	publisher domain.EventPublisher
	idgen     *utils.SnowflakeID
	metrics   *metrics.Metrics
}

// NewTradingService 创建交易服务
// publisher 与 m 允许为 nil，分别关闭事件发布与指标上报
func NewTradingService(
	repo domain.PortfolioRepository,
	pricer QuotePricer,
	publisher domain.EventPublisher,
	idgen *utils.SnowflakeID,
	m *metrics.Metrics,
) *TradingService {
	return &TradingService{
		repo:      repo,
		pricer:    pricer,
		publisher: publisher,
		idgen:     idgen,
		metrics:   m,
	}
}

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Type     string          `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// PositionView 带行情的持仓视图
type PositionView struct {
	Symbol        string           `json:"symbol"`
	Quantity      decimal.Decimal  `json:"quantity"`
	AvgCost       decimal.Decimal  `json:"avgCost"`
	CurrentPrice  *decimal.Decimal `json:"currentPrice,omitempty"`
	MarketValue   *decimal.Decimal `json:"marketValue,omitempty"`
	UnrealizedPnL *decimal.Decimal `json:"unrealizedPnl,omitempty"`
}

// PortfolioView 组合快照
type PortfolioView struct {
	UserID       string          `json:"userId"`
	Cash         decimal.Decimal `json:"cash"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	Positions    []PositionView  `json:"positions"`
	RecentOrders []*domain.Order `json:"recentOrders"`
}

// GetPortfolio 获取组合快照，首次访问时惰性创建
// 行情获取失败时持仓视图省略市值字段，不阻塞快照返回
func (s *TradingService) GetPortfolio(ctx context.Context, userID string) (*PortfolioView, error) {
	portfolio, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	positions, err := s.repo.ListPositions(ctx, portfolio.ID)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListOrders(ctx, portfolio.ID, "", recentOrderCount)
	if err != nil {
		return nil, err
	}

	view := &PortfolioView{
		UserID:       userID,
		Cash:         portfolio.Cash,
		TotalValue:   portfolio.Cash,
		Positions:    make([]PositionView, 0, len(positions)),
		RecentOrders: orders,
	}

	for _, pos := range positions {
		pv := PositionView{
			Symbol:   pos.Symbol,
			Quantity: pos.Quantity,
			AvgCost:  pos.AvgCost,
		}
		if quote, err := s.pricer.GetQuote(ctx, pos.Symbol); err == nil {
			price := quote.Price
			marketValue := pos.MarketValue(price)
			pnl := pos.UnrealizedPnL(price)
			pv.CurrentPrice = &price
			pv.MarketValue = &marketValue
			pv.UnrealizedPnL = &pnl
			view.TotalValue = view.TotalValue.Add(marketValue)
		} else {
			logger.Warn(ctx, "quote unavailable for position valuation", "symbol", pos.Symbol, "error", err)
			// 行情缺失时按成本估值
			view.TotalValue = view.TotalValue.Add(pos.MarketValue(pos.AvgCost))
		}
		view.Positions = append(view.Positions, pv)
	}

	if s.metrics != nil {
		s.metrics.PositionsActive.Set(float64(len(positions)))
	}
	return view, nil
}

// PlaceOrder 下单并立即执行，现金、持仓与订单在同一事务内落库
func (s *TradingService) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*domain.Order, error) {
	symbol, err := marketdomain.ValidateSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	side, err := domain.ParseOrderSide(req.Side)
	if err != nil {
		return nil, err
	}
	orderType, err := domain.ParseOrderType(req.Type)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateOrderParams(orderType, req.Quantity, req.Price); err != nil {
		return nil, err
	}

	executionPrice, err := s.executionPrice(ctx, symbol, orderType, req.Price)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		OrderID:        fmt.Sprintf("ORD-%d", s.idgen.Generate()),
		UserID:         userID,
		Symbol:         symbol,
		Side:           side,
		Type:           orderType,
		Quantity:       req.Quantity,
		Price:          req.Price,
		ExecutionPrice: executionPrice,
		Status:         domain.StatusExecuted,
		ExecutedAt:     &now,
	}

	err = s.repo.InTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetOrCreate(txCtx, userID); err != nil {
			return err
		}

		portfolio, err := s.repo.GetByUserIDForUpdate(txCtx, userID)
		if err != nil {
			return err
		}
		order.PortfolioID = portfolio.ID

		total := executionPrice.Mul(req.Quantity)
		switch side {
		case domain.SideBuy:
			if err := s.applyBuy(txCtx, portfolio, symbol, req.Quantity, executionPrice, total); err != nil {
				return err
			}
		case domain.SideSell:
			if err := s.applySell(txCtx, portfolio, symbol, req.Quantity, total); err != nil {
				return err
			}
		}

		if err := s.repo.SavePortfolio(txCtx, portfolio); err != nil {
			return err
		}
		return s.repo.SaveOrder(txCtx, order)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersTotal.Inc()
		s.metrics.TradesTotal.Inc()
	}
	s.publishOrderExecuted(ctx, order, now)

	return order, nil
}

// ListOrders 查询订单，可按状态过滤
func (s *TradingService) ListOrders(ctx context.Context, userID, statusStr string, limit int) ([]*domain.Order, error) {
	var status domain.OrderStatus
	if statusStr != "" {
		parsed, err := domain.ParseOrderStatus(statusStr)
		if err != nil {
			return nil, err
		}
		status = parsed
	}
	if limit <= 0 {
		limit = defaultOrderListLimit
	}

	portfolio, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOrders(ctx, portfolio.ID, status, limit)
}

// Reset 清空持仓、取消待执行订单并恢复初始资金
func (s *TradingService) Reset(ctx context.Context, userID string) (*PortfolioView, error) {
	err := s.repo.InTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetOrCreate(txCtx, userID); err != nil {
			return err
		}

		portfolio, err := s.repo.GetByUserIDForUpdate(txCtx, userID)
		if err != nil {
			return err
		}

		if err := s.repo.DeleteAllPositions(txCtx, portfolio.ID); err != nil {
			return err
		}
		if err := s.repo.CancelPendingOrders(txCtx, portfolio.ID); err != nil {
			return err
		}

		portfolio.ResetCash()
		return s.repo.SavePortfolio(txCtx, portfolio)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PortfolioResetsTotal.Inc()
	}
	if s.publisher != nil {
		event := &domain.PortfolioResetEvent{UserID: userID, ResetAt: time.Now().UTC()}
		if err := s.publisher.PublishPortfolioReset(ctx, event); err != nil {
			logger.Error(ctx, "failed to publish portfolio reset event", "user_id", userID, "error", err)
		}
	}

	return s.GetPortfolio(ctx, userID)
}

// executionPrice 市价单按最新行情成交，限价单按限价立即成交
func (s *TradingService) executionPrice(ctx context.Context, symbol string, orderType domain.OrderType, limitPrice decimal.Decimal) (decimal.Decimal, error) {
	if orderType == domain.TypeLimit {
		return limitPrice, nil
	}

	quote, err := s.pricer.GetQuote(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	if !quote.Price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no price for %s", domain.ErrQuoteUnavailable, symbol)
	}
	return quote.Price, nil
}

func (s *TradingService) applyBuy(ctx context.Context, portfolio *domain.Portfolio, symbol string, quantity, price, total decimal.Decimal) error {
	if err := portfolio.Debit(total); err != nil {
		return err
	}

	position, err := s.repo.GetPosition(ctx, portfolio.ID, symbol)
	if err != nil {
		return err
	}
	if position == nil {
		position = &domain.Position{
			PortfolioID: portfolio.ID,
			Symbol:      symbol,
			Quantity:    decimal.Zero,
			AvgCost:     decimal.Zero,
		}
	}
	position.ApplyBuy(quantity, price)
	return s.repo.SavePosition(ctx, position)
}

func (s *TradingService) applySell(ctx context.Context, portfolio *domain.Portfolio, symbol string, quantity, total decimal.Decimal) error {
	position, err := s.repo.GetPosition(ctx, portfolio.ID, symbol)
	if err != nil {
		return err
	}
	if position == nil {
		return domain.ErrInsufficientHoldings
	}

	closed, err := position.ApplySell(quantity)
	if err != nil {
		return err
	}

	portfolio.Credit(total)

	if closed {
		return s.repo.DeletePosition(ctx, portfolio.ID, symbol)
	}
	return s.repo.SavePosition(ctx, position)
}

func (s *TradingService) publishOrderExecuted(ctx context.Context, order *domain.Order, executedAt time.Time) {
	if s.publisher == nil {
		return
	}
	event := &domain.OrderExecutedEvent{
		OrderID:        order.OrderID,
		UserID:         order.UserID,
		Symbol:         order.Symbol,
		Side:           order.Side,
		Type:           order.Type,
		Quantity:       order.Quantity,
		ExecutionPrice: order.ExecutionPrice,
		ExecutedAt:     executedAt,
	}
	if err := s.publisher.PublishOrderExecuted(ctx, event); err != nil {
		logger.Error(ctx, "failed to publish order executed event", "order_id", order.OrderID, "error", err)
	}
}
