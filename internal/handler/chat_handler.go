package handler

import (
	"context"
	"errors"
	"invest-ai-go/internal/pipeline"
	"invest-ai-go/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// QueryProcessor 是问答流水线的入口。
type QueryProcessor interface {
	Process(ctx context.Context, q pipeline.Query) (*pipeline.Result, error)
}

// ChatHandler 负责处理 /chat 与 /query 问答请求，两者共用同一条流水线。
type ChatHandler struct {
	processor QueryProcessor
	sources   []string
}

// NewChatHandler 创建一个新的 ChatHandler。sources 是 /query 响应中列出的数据源名称。
func NewChatHandler(processor QueryProcessor, sources []string) *ChatHandler {
	return &ChatHandler{processor: processor, sources: sources}
}

// Chat 处理 POST /chat/，返回包含行情、新闻和情绪的完整结果。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[ChatHandler] 无效的请求负载: %v", err)
		respondError(c, http.StatusBadRequest, "query is required and must be at most 500 characters")
		return
	}

	res, ok := h.process(c, pipeline.Query{Text: req.Query, SessionID: req.SessionID, Endpoint: "chat"})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toChatResponse(res))
}

// Query 处理 POST /query/，返回对接方约定的扁平结构。
func (h *ChatHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[ChatHandler] 无效的请求负载: %v", err)
		respondError(c, http.StatusBadRequest, "user_id and query are required; query must be at most 500 characters")
		return
	}

	res, ok := h.process(c, pipeline.Query{Text: req.Query, SessionID: req.SessionID, UserID: req.UserID, Endpoint: "query"})
	if !ok {
		return
	}
	log.Infof("[ChatHandler] 处理用户 %d 的查询完成", *req.UserID)
	c.JSON(http.StatusOK, QueryResponse{
		Response:  res.Summary,
		Sources:   h.sources,
		UserID:    *req.UserID,
		Timestamp: res.Timestamp,
	})
}

func (h *ChatHandler) process(c *gin.Context, q pipeline.Query) (*pipeline.Result, bool) {
	res, err := h.processor.Process(c.Request.Context(), q)
	switch {
	case err == nil:
		return res, true
	case errors.Is(err, pipeline.ErrInvalidQuery):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		log.Error("[ChatHandler] 处理问答失败", err)
		respondInternalError(c)
	}
	return nil, false
}
