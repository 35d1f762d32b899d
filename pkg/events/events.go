// Package events defines the structure for events that are sent to Kafka.
package events

import "time"

// TypeMessageLogged 标识一条问答已持久化。
const TypeMessageLogged = "message_logged"

// MessageLogged represents a persisted query/response exchange.
type MessageLogged struct {
	Type           string    `json:"type"`
	SessionID      string    `json:"session_id"`
	UserID         *int64    `json:"user_id,omitempty"`
	TickerSymbol   *string   `json:"ticker_symbol"`
	SentimentLabel *string   `json:"sentiment_result"`
	SummaryPath    string    `json:"summary_path"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewMessageLogged 构造一个 message_logged 事件。
func NewMessageLogged(sessionID string, userID *int64, ticker, sentiment *string, summaryPath string, at time.Time) MessageLogged {
	return MessageLogged{
		Type:           TypeMessageLogged,
		SessionID:      sessionID,
		UserID:         userID,
		TickerSymbol:   ticker,
		SentimentLabel: sentiment,
		SummaryPath:    summaryPath,
		Timestamp:      at.UTC(),
	}
}
