package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"invest-ai-go/internal/model"
	"invest-ai-go/pkg/log"
	"time"

	"github.com/go-redis/redis/v8"
)

// cachedConversationRepository 在 Redis 中缓存会话与会话历史，写操作后失效。
// Redis 的任何错误都降级为直接读数据库。
type cachedConversationRepository struct {
	ConversationRepository
	redisClient *redis.Client
	ttl         time.Duration
}

// NewCachedConversationRepository 用 Redis 包装 repo；redisClient 为 nil 时原样返回 repo。
func NewCachedConversationRepository(repo ConversationRepository, redisClient *redis.Client, ttl time.Duration) ConversationRepository {
	if redisClient == nil {
		return repo
	}
	return &cachedConversationRepository{ConversationRepository: repo, redisClient: redisClient, ttl: ttl}
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s:history", sessionID)
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s:session", sessionID)
}

func (r *cachedConversationRepository) AppendMessage(ctx context.Context, message *model.ChatMessage) error {
	if err := r.ConversationRepository.AppendMessage(ctx, message); err != nil {
		return err
	}
	r.invalidate(ctx, message.SessionID)
	return nil
}

func (r *cachedConversationRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.ConversationRepository.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	r.invalidate(ctx, sessionID)
	return nil
}

// GetHistory 先读 Redis，未命中或出错时读数据库并回填。
func (r *cachedConversationRepository) GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	key := historyKey(sessionID)
	var messages []model.ChatMessage
	if r.load(ctx, key, &messages) {
		restoreSessionID(messages, sessionID)
		return messages, nil
	}

	messages, err := r.ConversationRepository.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// 空历史不缓存，避免为不存在的会话占用 key
	if len(messages) > 0 {
		r.store(ctx, key, messages)
	}
	return messages, nil
}

// GetSession 先读 Redis，未命中时读数据库并回填；不存在的会话不缓存。
func (r *cachedConversationRepository) GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	key := sessionKey(sessionID)
	var session model.ChatSession
	if r.load(ctx, key, &session) {
		restoreSessionID(session.Messages, sessionID)
		return &session, nil
	}

	found, err := r.ConversationRepository.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, found)
	return found, nil
}

// load 读取并解码缓存，返回是否命中。
func (r *cachedConversationRepository) load(ctx context.Context, key string, dest interface{}) bool {
	jsonData, err := r.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warnw("[Cache] 读取缓存失败", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(jsonData), dest); err != nil {
		log.Warnf("[Cache] 缓存内容损坏, key=%s", key)
		return false
	}
	return true
}

func (r *cachedConversationRepository) store(ctx context.Context, key string, value interface{}) {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.redisClient.Set(ctx, key, jsonData, r.ttl).Err(); err != nil {
		log.Warnw("[Cache] 写入缓存失败", "key", key, "error", err)
	}
}

func (r *cachedConversationRepository) invalidate(ctx context.Context, sessionID string) {
	if err := r.redisClient.Del(ctx, historyKey(sessionID), sessionKey(sessionID)).Err(); err != nil {
		log.Warnw("[Cache] 清理会话缓存失败", "session_id", sessionID, "error", err)
	}
}

// restoreSessionID 补回序列化时省略的 SessionID。
func restoreSessionID(messages []model.ChatMessage, sessionID string) {
	for i := range messages {
		messages[i].SessionID = sessionID
	}
}
