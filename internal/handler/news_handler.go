package handler

import (
	"errors"
	"invest-ai-go/internal/model"
	"invest-ai-go/internal/sentiment"
	"invest-ai-go/pkg/log"
	"invest-ai-go/pkg/news"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultMarketNewsLimit = 10
	maxMarketNewsLimit     = 50
)

// NewsHandler 提供大盘新闻及整体情绪。
type NewsHandler struct {
	gateway news.Gateway
	scorer  sentiment.Scorer
}

// NewNewsHandler 创建一个新的 NewsHandler。
func NewNewsHandler(gateway news.Gateway, scorer sentiment.Scorer) *NewsHandler {
	return &NewsHandler{gateway: gateway, scorer: scorer}
}

// MarketNews 处理 GET /news/market?limit=10。新闻源不可用时返回空列表。
func (h *NewsHandler) MarketNews(c *gin.Context) {
	limit := defaultMarketNewsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxMarketNewsLimit {
			respondError(c, http.StatusBadRequest, "limit must be an integer between 1 and 50")
			return
		}
		limit = n
	}

	items, err := h.gateway.GetMarketNews(c.Request.Context(), limit)
	if err != nil && !errors.Is(err, news.ErrNotConfigured) {
		log.Warnw("[NewsHandler] 获取大盘新闻失败", "provider", h.gateway.Name(), "error", err)
	}
	if items == nil {
		items = []model.NewsItem{}
	}

	texts := make([]string, 0, len(items))
	for _, item := range items {
		text := item.Title
		if item.Description != nil {
			text += " " + *item.Description
		}
		texts = append(texts, text)
	}
	agg := h.scorer.ScoreBatch(texts)
	c.JSON(http.StatusOK, MarketNewsResponse{
		News:        items,
		Sentiment:   agg,
		Description: sentiment.Describe(agg),
	})
}
