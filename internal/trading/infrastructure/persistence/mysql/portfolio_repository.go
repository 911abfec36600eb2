// Package mysql 提供交易账本的 MySQL 仓储实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/edutrading/internal/trading/domain"
	pkgdb "github.com/wyfcoding/edutrading/pkg/db"
)

// PortfolioRepository 投资组合仓储
type PortfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository 创建仓储实例
func NewPortfolioRepository(db *gorm.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// getDB 优先使用 context 中的事务句柄
func (r *PortfolioRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := pkgdb.TxFromContext(ctx); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

// InTx 在单个数据库事务内执行 fn
func (r *PortfolioRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(pkgdb.ContextWithTx(ctx, tx))
	})
}

// GetOrCreate 返回用户的投资组合，不存在时以初始资金创建
// 并发创建时依赖 user_id 唯一索引去重
func (r *PortfolioRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Portfolio, error) {
	portfolio := domain.NewPortfolio(userID)
	err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(portfolio).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create portfolio for %s: %w", userID, err)
	}

	return r.GetByUserID(ctx, userID)
}

// GetByUserID 查询用户的投资组合
func (r *PortfolioRepository) GetByUserID(ctx context.Context, userID string) (*domain.Portfolio, error) {
	var portfolio domain.Portfolio
	err := r.getDB(ctx).Where("user_id = ?", userID).First(&portfolio).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to get portfolio for %s: %w", userID, err)
	}
	return &portfolio, nil
}

// GetByUserIDForUpdate 行锁查询，须在 InTx 内调用
func (r *PortfolioRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Portfolio, error) {
	var portfolio domain.Portfolio
	err := r.getDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&portfolio).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to lock portfolio for %s: %w", userID, err)
	}
	return &portfolio, nil
}

// SavePortfolio 保存投资组合
func (r *PortfolioRepository) SavePortfolio(ctx context.Context, portfolio *domain.Portfolio) error {
	if err := r.getDB(ctx).Save(portfolio).Error; err != nil {
		return fmt.Errorf("failed to save portfolio %d: %w", portfolio.ID, err)
	}
	return nil
}

// GetPosition 查询指定标的持仓，不存在时返回 nil, nil
func (r *PortfolioRepository) GetPosition(ctx context.Context, portfolioID uint, symbol string) (*domain.Position, error) {
	var position domain.Position
	err := r.getDB(ctx).
		Where("portfolio_id = ? AND symbol = ?", portfolioID, symbol).
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get position %s: %w", symbol, err)
	}
	return &position, nil
}

// ListPositions 查询组合内全部持仓
func (r *PortfolioRepository) ListPositions(ctx context.Context, portfolioID uint) ([]*domain.Position, error) {
	var positions []*domain.Position
	err := r.getDB(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("symbol ASC").
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return positions, nil
}

// SavePosition 保存持仓，同组合同标的冲突时更新
func (r *PortfolioRepository) SavePosition(ctx context.Context, position *domain.Position) error {
	err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "portfolio_id"}, {Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "avg_cost", "updated_at"}),
	}).Save(position).Error
	if err != nil {
		return fmt.Errorf("failed to save position %s: %w", position.Symbol, err)
	}
	return nil
}

// DeletePosition 物理删除持仓，保证清仓后可重新建仓
func (r *PortfolioRepository) DeletePosition(ctx context.Context, portfolioID uint, symbol string) error {
	err := r.getDB(ctx).
		Unscoped().
		Where("portfolio_id = ? AND symbol = ?", portfolioID, symbol).
		Delete(&domain.Position{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete position %s: %w", symbol, err)
	}
	return nil
}

// DeleteAllPositions 清空组合内全部持仓
func (r *PortfolioRepository) DeleteAllPositions(ctx context.Context, portfolioID uint) error {
	err := r.getDB(ctx).
		Unscoped().
		Where("portfolio_id = ?", portfolioID).
		Delete(&domain.Position{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete positions: %w", err)
	}
	return nil
}

// SaveOrder 保存订单
func (r *PortfolioRepository) SaveOrder(ctx context.Context, order *domain.Order) error {
	if err := r.getDB(ctx).Save(order).Error; err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.OrderID, err)
	}
	return nil
}

// ListOrders 按时间倒序查询订单，status 为空表示全部
func (r *PortfolioRepository) ListOrders(ctx context.Context, portfolioID uint, status domain.OrderStatus, limit int) ([]*domain.Order, error) {
	query := r.getDB(ctx).Where("portfolio_id = ?", portfolioID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var orders []*domain.Order
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// CancelPendingOrders 取消组合内的全部待执行订单
func (r *PortfolioRepository) CancelPendingOrders(ctx context.Context, portfolioID uint) error {
	err := r.getDB(ctx).
		Model(&domain.Order{}).
		Where("portfolio_id = ? AND status = ?", portfolioID, domain.StatusPending).
		Update("status", domain.StatusCancelled).Error
	if err != nil {
		return fmt.Errorf("failed to cancel pending orders: %w", err)
	}
	return nil
}
