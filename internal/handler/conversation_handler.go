package handler

import (
	"errors"
	"invest-ai-go/internal/service"
	"invest-ai-go/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与会话历史相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// GetSession 处理 GET /chat/sessions/:id。
func (h *ConversationHandler) GetSession(c *gin.Context) {
	session, err := h.service.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(*session))
}

// ListSessions 处理 GET /chat/sessions/，按最近更新时间倒序。
func (h *ConversationHandler) ListSessions(c *gin.Context) {
	sessions, err := h.service.ListSessions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := make([]ChatSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, toSessionResponse(s))
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteSession 处理 DELETE /chat/sessions/:id，级联删除其消息。
func (h *ConversationHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.service.DeleteSession(c.Request.Context(), sessionID); err != nil {
		h.fail(c, err)
		return
	}
	log.Infof("[ConversationHandler] 会话已删除: %s", sessionID)
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}

func (h *ConversationHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		respondError(c, http.StatusNotFound, "Session not found")
		return
	}
	log.Error("[ConversationHandler] 读取会话失败", err)
	respondInternalError(c)
}
