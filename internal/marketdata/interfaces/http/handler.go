// Package http 提供行情模块的 HTTP 接口
package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/edutrading/internal/marketdata/application"
	"github.com/wyfcoding/edutrading/internal/marketdata/domain"
	"github.com/wyfcoding/edutrading/pkg/response"
)

// 技术指标默认周期
const defaultIndicatorPeriod = 14

// MarketDataHandler 行情 HTTP 处理器
type MarketDataHandler struct {
	service *application.MarketDataService
}

// NewMarketDataHandler 创建行情处理器
func NewMarketDataHandler(service *application.MarketDataService) *MarketDataHandler {
	return &MarketDataHandler{service: service}
}

// RegisterRoutes 注册行情路由
func (h *MarketDataHandler) RegisterRoutes(group *gin.RouterGroup) {
	market := group.Group("/market")
	{
		market.GET("/quote", h.GetQuote)
		market.GET("/quotes", h.GetQuotes)
		market.POST("/quotes", h.GetQuotesBatch)
		market.GET("/search", h.Search)
		market.GET("/history", h.GetHistory)
		market.GET("/indicators", h.GetIndicators)
	}
}

// GetQuote 查询单个标的的实时行情
func (h *MarketDataHandler) GetQuote(c *gin.Context) {
	symbol := c.Query("symbol")
	if strings.TrimSpace(symbol) == "" {
		response.BadRequest(c, "MISSING_SYMBOL", "symbol query parameter is required")
		return
	}

	quote, err := h.service.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, quote)
}

// batchQuoteItem 批量行情里单标的的结果
type batchQuoteItem struct {
	Symbol string        `json:"symbol"`
	Quote  *domain.Quote `json:"quote,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// GetQuotes 以逗号分隔的 symbols 参数批量查询行情
func (h *MarketDataHandler) GetQuotes(c *gin.Context) {
	raw := c.Query("symbols")
	if strings.TrimSpace(raw) == "" {
		response.BadRequest(c, "MISSING_SYMBOLS", "symbols query parameter is required")
		return
	}

	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	h.respondQuotes(c, symbols)
}

// batchQuotesRequest POST 批量行情请求体
type batchQuotesRequest struct {
	Symbols []string `json:"symbols" binding:"required"`
}

// GetQuotesBatch 以 JSON 请求体批量查询行情
func (h *MarketDataHandler) GetQuotesBatch(c *gin.Context) {
	var req batchQuotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "request body must contain a symbols array")
		return
	}
	h.respondQuotes(c, req.Symbols)
}

func (h *MarketDataHandler) respondQuotes(c *gin.Context, symbols []string) {
	results, err := h.service.GetQuotes(c.Request.Context(), symbols)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]batchQuoteItem, 0, len(results))
	for _, r := range results {
		item := batchQuoteItem{Symbol: r.Symbol, Quote: r.Quote}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		items = append(items, item)
	}
	response.Success(c, gin.H{"quotes": items})
}

// Search 标的搜索
func (h *MarketDataHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		response.BadRequest(c, "MISSING_QUERY", "q query parameter is required")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	matches, err := h.service.SearchSymbols(c.Request.Context(), query, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"results": matches})
}

// GetHistory 查询历史 K 线
func (h *MarketDataHandler) GetHistory(c *gin.Context) {
	symbol := c.Query("symbol")
	if strings.TrimSpace(symbol) == "" {
		response.BadRequest(c, "MISSING_SYMBOL", "symbol query parameter is required")
		return
	}

	interval, err := domain.ParseInterval(c.Query("interval"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	from, err := parseUnixParam(c.Query("period1"))
	if err != nil {
		response.BadRequest(c, "INVALID_RANGE", "period1 must be a unix timestamp in seconds")
		return
	}
	to, err := parseUnixParam(c.Query("period2"))
	if err != nil {
		response.BadRequest(c, "INVALID_RANGE", "period2 must be a unix timestamp in seconds")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	bars, err := h.service.GetHistory(c.Request.Context(), symbol, interval, from, to, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Cache-Control", historyCacheControl(interval))
	response.Success(c, gin.H{
		"symbol":   domain.NormalizeSymbol(symbol),
		"interval": interval,
		"bars":     bars,
	})
}

// GetIndicators 计算技术指标
func (h *MarketDataHandler) GetIndicators(c *gin.Context) {
	symbol := c.Query("symbol")
	if strings.TrimSpace(symbol) == "" {
		response.BadRequest(c, "MISSING_SYMBOL", "symbol query parameter is required")
		return
	}

	indicatorType, err := domain.ParseIndicatorType(c.DefaultQuery("type", "sma"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	period := defaultIndicatorPeriod
	if raw := c.Query("period"); raw != "" {
		period, err = strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "INVALID_PERIOD", "period must be an integer")
			return
		}
	}
	if period > domain.MaxIndicatorPeriod {
		response.BadRequest(c, "PERIOD_TOO_HIGH",
			fmt.Sprintf("period must not exceed %d", domain.MaxIndicatorPeriod))
		return
	}

	report, err := h.service.CalculateIndicator(c.Request.Context(), symbol, indicatorType, period)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	response.Success(c, report)
}

// writeError 将领域错误映射为 HTTP 状态码与业务错误码
func (h *MarketDataHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol):
		response.BadRequest(c, "INVALID_SYMBOL", err.Error())
	case errors.Is(err, domain.ErrSymbolNotFound):
		response.NotFound(c, "SYMBOL_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrEmptySymbols):
		response.BadRequest(c, "MISSING_SYMBOLS", err.Error())
	case errors.Is(err, domain.ErrTooManySymbols):
		response.BadRequest(c, "TOO_MANY_SYMBOLS", err.Error())
	case errors.Is(err, domain.ErrInvalidInterval):
		response.BadRequest(c, "INVALID_INTERVAL", err.Error())
	case errors.Is(err, domain.ErrInvalidRange):
		response.BadRequest(c, "INVALID_RANGE", err.Error())
	case errors.Is(err, domain.ErrInvalidPeriod):
		response.BadRequest(c, "INVALID_PERIOD", err.Error())
	case errors.Is(err, domain.ErrInvalidIndicator):
		response.BadRequest(c, "INVALID_INDICATOR", err.Error())
	case errors.Is(err, domain.ErrInvalidQuery):
		response.BadRequest(c, "MISSING_QUERY", err.Error())
	case errors.Is(err, domain.ErrInsufficientData):
		response.BadRequest(c, "INSUFFICIENT_DATA", err.Error())
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		response.Error(c, http.StatusInternalServerError, "UPSTREAM_UNAVAILABLE", "market data provider is unavailable")
	default:
		response.InternalError(c, "failed to process market data request")
	}
}

func parseUnixParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}

// historyCacheControl 日线及日内缓存一小时，周线月线缓存一天
func historyCacheControl(interval domain.Interval) string {
	if interval.Intraday() || interval == domain.Interval1Day {
		return "public, max-age=3600"
	}
	return "public, max-age=86400"
}
