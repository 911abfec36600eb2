package domain

import "context"

// PortfolioRepository 投资组合仓储接口
// InTx 内的 ctx 携带事务句柄，传回其余方法即可在同一事务内执行
type PortfolioRepository interface {
	// InTx 在单个数据库事务内执行 fn
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	// GetOrCreate 返回用户的投资组合，不存在时以初始资金创建，幂等
	GetOrCreate(ctx context.Context, userID string) (*Portfolio, error)
	// GetByUserID 查询用户的投资组合
	GetByUserID(ctx context.Context, userID string) (*Portfolio, error)
	// GetByUserIDForUpdate 行锁查询，须在 InTx 内调用
	GetByUserIDForUpdate(ctx context.Context, userID string) (*Portfolio, error)
	// SavePortfolio 保存投资组合
	SavePortfolio(ctx context.Context, portfolio *Portfolio) error

	// GetPosition 查询指定标的持仓，不存在时返回 nil, nil
	GetPosition(ctx context.Context, portfolioID uint, symbol string) (*Position, error)
	// ListPositions 查询组合内全部持仓
	ListPositions(ctx context.Context, portfolioID uint) ([]*Position, error)
	// SavePosition 保存持仓
	SavePosition(ctx context.Context, position *Position) error
	// DeletePosition 删除持仓
	DeletePosition(ctx context.Context, portfolioID uint, symbol string) error
	// DeleteAllPositions 清空组合内全部持仓
	DeleteAllPositions(ctx context.Context, portfolioID uint) error

	// SaveOrder 保存订单
	SaveOrder(ctx context.Context, order *Order) error
	// ListOrders 按时间倒序查询订单，status 为空表示全部
	ListOrders(ctx context.Context, portfolioID uint, status OrderStatus, limit int) ([]*Order, error)
	// CancelPendingOrders 取消组合内的全部待执行订单
	CancelPendingOrders(ctx context.Context, portfolioID uint) error
}
