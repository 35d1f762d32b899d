// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"errors"
	"fmt"
	"invest-ai-go/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationRepository 定义了会话与消息的持久化操作。
// 会话不存在时返回 gorm.ErrRecordNotFound。
type ConversationRepository interface {
	// AppendMessage 在一个事务内完成：会话不存在则创建、插入消息、刷新会话 updated_at。
	AppendMessage(ctx context.Context, message *model.ChatMessage) error
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error)
	ListSessions(ctx context.Context) ([]model.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type gormConversationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &gormConversationRepository{db: db, now: time.Now}
}

func (r *gormConversationRepository) AppendMessage(ctx context.Context, message *model.ChatMessage) error {
	if message.SessionID == "" {
		return errors.New("session id is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now()

		session, err := ensureSession(tx, message.SessionID, now)
		if err != nil {
			return err
		}

		message.CreatedAt = now
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		if err := tx.Model(&model.ChatSession{}).
			Where("id = ?", session.ID).
			UpdateColumn("updated_at", now).Error; err != nil {
			return fmt.Errorf("failed to touch session: %w", err)
		}
		return nil
	})
}

// GetHistory 按创建时间升序返回会话的全部消息，会话不存在时返回空列表。
func (r *gormConversationRepository) GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	messages := make([]model.ChatMessage, 0)
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return messages, nil
}

func (r *gormConversationRepository) GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.WithContext(ctx).
		Preload("Messages", orderMessages).
		Where("session_id = ?", sessionID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions 按 updated_at 倒序返回所有会话，每个会话附带完整消息。
func (r *gormConversationRepository) ListSessions(ctx context.Context) ([]model.ChatSession, error) {
	sessions := make([]model.ChatSession, 0)
	err := r.db.WithContext(ctx).
		Preload("Messages", orderMessages).
		Order("updated_at DESC, id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession 删除会话及其全部消息。
func (r *gormConversationRepository) DeleteSession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session model.ChatSession
		if err := tx.Where("session_id = ?", sessionID).First(&session).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if err := tx.Delete(&session).Error; err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// ensureSession 返回会话行，不存在时创建。
func ensureSession(tx *gorm.DB, sessionID string, now time.Time) (*model.ChatSession, error) {
	var session model.ChatSession
	found := tx.Where("session_id = ?", sessionID).Limit(1).Find(&session)
	if found.Error != nil {
		return nil, fmt.Errorf("failed to load session: %w", found.Error)
	}
	if found.RowsAffected > 0 {
		return &session, nil
	}
	return createSession(tx, sessionID, now)
}

// createSession 插入会话；同一 session_id 已被并发请求插入时，读取已提交的那一行。
func createSession(tx *gorm.DB, sessionID string, now time.Time) (*model.ChatSession, error) {
	session := model.ChatSession{SessionID: sessionID, CreatedAt: now, UpdatedAt: now}
	created := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoNothing: true,
	}).Create(&session)
	if created.Error != nil {
		return nil, fmt.Errorf("failed to create session: %w", created.Error)
	}
	if created.RowsAffected > 0 {
		return &session, nil
	}

	// 加锁读取，绕过可重复读下的旧快照
	var existing model.ChatSession
	if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("session_id = ?", sessionID).
		Take(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &existing, nil
}

func orderMessages(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}
