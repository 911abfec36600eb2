package domain

import (
	"context"

	"gorm.io/gorm"
)

// Instrument 标的参考数据，由成功的行情与搜索结果回填
// 上游不可用时作为搜索兜底数据源
type Instrument struct {
	gorm.Model
	Symbol   string `gorm:"type:varchar(16);uniqueIndex;not null" json:"symbol"`
	Name     string `gorm:"type:varchar(128)" json:"name"`
	Exchange string `gorm:"type:varchar(32)" json:"exchange"`
	Type     string `gorm:"type:varchar(16)" json:"type"`
	Currency string `gorm:"type:varchar(8)" json:"currency"`
}

// TableName 指定表名
func (Instrument) TableName() string {
	return "instruments"
}

// InstrumentRepository 标的参考数据仓储接口
type InstrumentRepository interface {
	// Upsert 按 symbol 插入或更新
	Upsert(ctx context.Context, instrument *Instrument) error
	// Search 按 symbol 或名称模糊查找
	Search(ctx context.Context, keyword string, limit int) ([]*Instrument, error)
}
