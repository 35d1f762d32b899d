package service

import (
	"context"
	"errors"
	"invest-ai-go/internal/model"
	"invest-ai-go/internal/repository"

	"gorm.io/gorm"
)

// ErrSessionNotFound 表示会话不存在。
var ErrSessionNotFound = errors.New("session not found")

// ConversationService 定义了对话业务逻辑的接口。
type ConversationService interface {
	AddMessageToConversation(ctx context.Context, message *model.ChatMessage) error
	GetConversationHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error)
	ListSessions(ctx context.Context) ([]model.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

// AddMessageToConversation 将一条消息追加到会话中，会话不存在时自动创建。
func (s *conversationService) AddMessageToConversation(ctx context.Context, message *model.ChatMessage) error {
	return s.repo.AppendMessage(ctx, message)
}

// GetConversationHistory 获取会话的完整消息历史。
func (s *conversationService) GetConversationHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return s.repo.GetHistory(ctx, sessionID)
}

func (s *conversationService) GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return session, nil
}

func (s *conversationService) ListSessions(ctx context.Context) ([]model.ChatSession, error) {
	return s.repo.ListSessions(ctx)
}

func (s *conversationService) DeleteSession(ctx context.Context, sessionID string) error {
	return translateNotFound(s.repo.DeleteSession(ctx, sessionID))
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	return err
}
