package kafka

import (
	"context"
	"encoding/json"
	"invest-ai-go/internal/config"
	"invest-ai-go/pkg/events"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMessageLogged(t *testing.T) {
	ticker := "AAPL"
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("CST", 8*3600))
	event := events.NewMessageLogged("s-1", nil, &ticker, nil, "fallback", at)

	b, err := encode(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "message_logged", decoded["type"])
	assert.Equal(t, "s-1", decoded["session_id"])
	assert.Equal(t, "AAPL", decoded["ticker_symbol"])
	assert.Nil(t, decoded["sentiment_result"])
	assert.NotContains(t, decoded, "user_id")
	assert.Equal(t, "2024-05-01T02:00:00Z", decoded["timestamp"])
}

func TestPublishToUnreachableBroker(t *testing.T) {
	p := NewProducer(config.KafkaConfig{Brokers: "127.0.0.1:1", Topic: "investai.messages"})
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	err := p.PublishMessageLogged(ctx, events.NewMessageLogged("s-1", nil, nil, nil, "fallback", time.Now()))
	assert.Error(t, err)
}
