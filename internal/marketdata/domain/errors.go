package domain

import "errors"

// 领域错误定义
var (
	// ErrInvalidSymbol 标的代码格式非法
	ErrInvalidSymbol = errors.New("invalid symbol format")
	// ErrSymbolNotFound 上游无此标的数据
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrUpstreamUnavailable 上游行情服务不可用
	ErrUpstreamUnavailable = errors.New("market data provider unavailable")
	// ErrTooManySymbols 批量请求标的数超过上限
	ErrTooManySymbols = errors.New("too many symbols requested")
	// ErrEmptySymbols 批量请求标的列表为空
	ErrEmptySymbols = errors.New("no symbols provided")
	// ErrInvalidInterval 不支持的 K 线周期
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrInvalidRange 查询区间非法
	ErrInvalidRange = errors.New("invalid date range")
	// ErrInvalidPeriod 指标周期超出允许范围
	ErrInvalidPeriod = errors.New("invalid indicator period")
	// ErrInvalidIndicator 不支持的指标类型
	ErrInvalidIndicator = errors.New("invalid indicator type")
	// ErrInvalidQuery 搜索关键字为空
	ErrInvalidQuery = errors.New("invalid search query")
	// ErrInsufficientData 历史数据不足以计算指标
	ErrInsufficientData = errors.New("insufficient data for indicator")
)
