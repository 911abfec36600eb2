// Package mysql 提供标的参考数据的 MySQL 仓储实现
package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/edutrading/internal/marketdata/domain"
)

// InstrumentRepository 标的参考数据仓储
type InstrumentRepository struct {
	db *gorm.DB
}

// NewInstrumentRepository 创建仓储实例
func NewInstrumentRepository(db *gorm.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

// Upsert 按 symbol 插入或更新
func (r *InstrumentRepository) Upsert(ctx context.Context, instrument *domain.Instrument) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "exchange", "type", "currency", "updated_at"}),
	}).Create(instrument).Error
	if err != nil {
		return fmt.Errorf("failed to upsert instrument %s: %w", instrument.Symbol, err)
	}
	return nil
}

// Search 按 symbol 或名称模糊查找
func (r *InstrumentRepository) Search(ctx context.Context, keyword string, limit int) ([]*domain.Instrument, error) {
	var instruments []*domain.Instrument
	pattern := "%" + keyword + "%"
	err := r.db.WithContext(ctx).
		Where("symbol LIKE ? OR name LIKE ?", pattern, pattern).
		Order("symbol ASC").
		Limit(limit).
		Find(&instruments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search instruments: %w", err)
	}
	return instruments, nil
}
