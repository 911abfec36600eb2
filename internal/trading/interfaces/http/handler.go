// Package http 提供模拟交易模块的 HTTP 接口
package http

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	marketdomain "github.com/wyfcoding/edutrading/internal/marketdata/domain"
	"github.com/wyfcoding/edutrading/internal/trading/application"
	"github.com/wyfcoding/edutrading/internal/trading/domain"
	"github.com/wyfcoding/edutrading/pkg/response"
)

// UserResolver 从请求上下文解析当前用户
type UserResolver func(c *gin.Context) (string, bool)

// TradingHandler 交易 HTTP 处理器
type TradingHandler struct {
	service     *application.TradingService
	currentUser UserResolver
}

// NewTradingHandler 创建交易处理器
func NewTradingHandler(service *application.TradingService, currentUser UserResolver) *TradingHandler {
	return &TradingHandler{service: service, currentUser: currentUser}
}

// RegisterRoutes 注册交易路由
func (h *TradingHandler) RegisterRoutes(group *gin.RouterGroup) {
	trading := group.Group("/trading")
	{
		trading.GET("/portfolio", h.GetPortfolio)
		trading.PUT("/portfolio", h.UpdatePortfolio)
		trading.POST("/orders", h.PlaceOrder)
		trading.GET("/orders", h.ListOrders)
	}
}

// GetPortfolio 获取当前用户的组合快照
func (h *TradingHandler) GetPortfolio(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	view, err := h.service.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// updatePortfolioRequest 组合操作请求体
type updatePortfolioRequest struct {
	Action string `json:"action" binding:"required"`
}

// UpdatePortfolio 执行组合操作，目前仅支持 reset
func (h *TradingHandler) UpdatePortfolio(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req updatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "request body must contain an action field")
		return
	}
	if req.Action != "reset" {
		response.BadRequest(c, "INVALID_ACTION", "unsupported action, expected reset")
		return
	}

	view, err := h.service.Reset(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// PlaceOrder 下单
func (h *TradingHandler) PlaceOrder(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req application.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST", "invalid order payload")
		return
	}

	order, err := h.service.PlaceOrder(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 查询订单列表，可按状态过滤
func (h *TradingHandler) ListOrders(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	orders, err := h.service.ListOrders(c.Request.Context(), userID, c.Query("status"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"orders": orders})
}

// writeError 将领域错误映射为 HTTP 状态码与业务错误码
func (h *TradingHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, marketdomain.ErrInvalidSymbol):
		response.BadRequest(c, "INVALID_SYMBOL", err.Error())
	case errors.Is(err, domain.ErrInvalidOrder):
		response.BadRequest(c, "INVALID_ORDER", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		response.BadRequest(c, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, domain.ErrInsufficientHoldings):
		response.BadRequest(c, "INSUFFICIENT_HOLDINGS", err.Error())
	case errors.Is(err, domain.ErrQuoteUnavailable):
		response.BadRequest(c, "QUOTE_UNAVAILABLE", err.Error())
	case errors.Is(err, domain.ErrPortfolioNotFound):
		response.NotFound(c, "PORTFOLIO_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrPositionNotFound):
		response.NotFound(c, "POSITION_NOT_FOUND", err.Error())
	default:
		response.InternalError(c, "failed to process trading request")
	}
}
