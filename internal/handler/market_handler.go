package handler

import (
	"errors"
	"invest-ai-go/pkg/log"
	"invest-ai-go/pkg/market"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultHistoryPeriod = "1mo"

// MarketHandler 直接暴露行情网关。
type MarketHandler struct {
	gateway market.Gateway
}

// NewMarketHandler 创建一个新的 MarketHandler。
func NewMarketHandler(gateway market.Gateway) *MarketHandler {
	return &MarketHandler{gateway: gateway}
}

// Snapshot 处理 GET /market/:symbol。
func (h *MarketHandler) Snapshot(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	snapshot, err := h.gateway.GetSnapshot(c.Request.Context(), symbol)
	if err != nil {
		log.Warnw("[MarketHandler] 获取行情失败", "symbol", symbol, "error", err)
	}
	if snapshot == nil {
		respondError(c, http.StatusNotFound, "No market data for "+symbol)
		return
	}
	c.JSON(http.StatusOK, toStockData(snapshot))
}

// History 处理 GET /market/:symbol/history?period=1mo。
func (h *MarketHandler) History(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	period := c.DefaultQuery("period", defaultHistoryPeriod)

	bars, err := h.gateway.GetHistory(c.Request.Context(), symbol, period)
	if errors.Is(err, market.ErrUnknownPeriod) {
		respondError(c, http.StatusBadRequest, "period must be one of "+strings.Join(market.Periods, ", "))
		return
	}
	if err != nil {
		log.Warnw("[MarketHandler] 获取历史行情失败", "symbol", symbol, "period", period, "error", err)
	}
	if len(bars) == 0 {
		respondError(c, http.StatusNotFound, "No historical data for "+symbol)
		return
	}
	c.JSON(http.StatusOK, toHistoryResponse(symbol, period, bars))
}

// Validate 处理 GET /market/:symbol/validate。
func (h *MarketHandler) Validate(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	c.JSON(http.StatusOK, gin.H{
		"symbol": symbol,
		"valid":  h.gateway.ValidateTicker(c.Request.Context(), symbol),
	})
}
