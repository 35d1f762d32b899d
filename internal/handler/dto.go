// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"invest-ai-go/internal/model"
	"invest-ai-go/internal/pipeline"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ChatRequest 定义了 /chat 的请求体结构。
type ChatRequest struct {
	Query     string `json:"query" binding:"required,min=1,max=500"`
	SessionID string `json:"session_id"`
}

// QueryRequest 定义了 /query 的请求体结构。
type QueryRequest struct {
	UserID    *int64 `json:"user_id" binding:"required"`
	Query     string `json:"query" binding:"required,min=1,max=500"`
	SessionID string `json:"session_id"`
}

// StockData 是行情快照的对外结构。
type StockData struct {
	Symbol        string   `json:"symbol"`
	CurrentPrice  float64  `json:"current_price"`
	ChangePercent float64  `json:"change_percent"`
	Volume        *int64   `json:"volume"`
	MarketCap     *float64 `json:"market_cap"`
}

// ChatResponse 是 /chat 的响应，可选字段显式输出为 null。
type ChatResponse struct {
	Query           string                 `json:"query"`
	DetectedTicker  *string                `json:"detected_ticker"`
	StockData       *StockData             `json:"stock_data"`
	SentimentResult *model.SentimentResult `json:"sentiment_result"`
	AISummary       string                 `json:"ai_summary"`
	RelevantNews    []model.NewsItem       `json:"relevant_news"`
	Timestamp       time.Time              `json:"timestamp"`
	SessionID       string                 `json:"session_id"`
}

// QueryResponse 是 /query 的扁平响应。
type QueryResponse struct {
	Response  string    `json:"response"`
	Sources   []string  `json:"sources"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSessionResponse 是会话及其完整消息历史。
type ChatSessionResponse struct {
	SessionID string              `json:"session_id"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Messages  []model.ChatMessage `json:"messages"`
}

// HistoryResponse 是日线序列，按日期升序。
type HistoryResponse struct {
	Symbol  string    `json:"symbol"`
	Period  string    `json:"period"`
	Dates   []string  `json:"dates"`
	Prices  []float64 `json:"prices"`
	Volumes []int64   `json:"volumes"`
	Highs   []float64 `json:"highs"`
	Lows    []float64 `json:"lows"`
}

// MarketNewsResponse 是大盘新闻及其整体情绪。
type MarketNewsResponse struct {
	News        []model.NewsItem         `json:"news"`
	Sentiment   model.AggregateSentiment `json:"sentiment"`
	Description string                   `json:"description"`
}

func toStockData(s *model.MarketSnapshot) *StockData {
	if s == nil {
		return nil
	}
	data := &StockData{
		Symbol:        s.Symbol,
		CurrentPrice:  s.CurrentPrice.InexactFloat64(),
		ChangePercent: s.ChangePercent.InexactFloat64(),
		Volume:        s.Volume,
	}
	if s.MarketCap != nil {
		v := s.MarketCap.InexactFloat64()
		data.MarketCap = &v
	}
	return data
}

func toChatResponse(res *pipeline.Result) ChatResponse {
	return ChatResponse{
		Query:           res.Query,
		DetectedTicker:  res.Ticker,
		StockData:       toStockData(res.Snapshot),
		SentimentResult: res.Sentiment,
		AISummary:       res.Summary,
		RelevantNews:    res.News,
		Timestamp:       res.Timestamp,
		SessionID:       res.SessionID,
	}
}

func toSessionResponse(s model.ChatSession) ChatSessionResponse {
	messages := s.Messages
	if messages == nil {
		messages = []model.ChatMessage{}
	}
	return ChatSessionResponse{
		SessionID: s.SessionID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  messages,
	}
}

func toHistoryResponse(symbol, period string, bars []model.PriceBar) HistoryResponse {
	resp := HistoryResponse{
		Symbol:  symbol,
		Period:  period,
		Dates:   make([]string, 0, len(bars)),
		Prices:  make([]float64, 0, len(bars)),
		Volumes: make([]int64, 0, len(bars)),
		Highs:   make([]float64, 0, len(bars)),
		Lows:    make([]float64, 0, len(bars)),
	}
	for _, bar := range bars {
		resp.Dates = append(resp.Dates, bar.Date.Format("2006-01-02"))
		resp.Prices = append(resp.Prices, bar.Close.InexactFloat64())
		resp.Volumes = append(resp.Volumes, bar.Volume)
		resp.Highs = append(resp.Highs, bar.High.InexactFloat64())
		resp.Lows = append(resp.Lows, bar.Low.InexactFloat64())
	}
	return resp
}

// respondError 输出统一的错误信封。
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
		"data":    nil,
	})
}

func respondInternalError(c *gin.Context) {
	respondError(c, http.StatusInternalServerError, "Internal server error")
}
