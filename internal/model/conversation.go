// Package model 包含了应用的数据模型定义。
package model

import "time"

// ChatSession 代表一个对话会话，首条消息写入时惰性创建。
type ChatSession struct {
	ID        uint          `gorm:"primaryKey" json:"-"`
	SessionID string        `gorm:"type:varchar(100);uniqueIndex;not null" json:"session_id"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []ChatMessage `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:CASCADE" json:"messages"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage 代表一次问答交互，只追加、不修改。
type ChatMessage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      string    `gorm:"type:varchar(100);index;not null" json:"-"`
	UserQuery      string    `gorm:"type:text;not null" json:"user_query"`
	AIResponse     string    `gorm:"type:text;not null" json:"ai_response"`
	TickerSymbol   *string   `gorm:"type:varchar(10)" json:"ticker_symbol"`
	SentimentLabel *string   `gorm:"column:sentiment_result;type:varchar(20)" json:"sentiment_result"`
	CreatedAt      time.Time `json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
