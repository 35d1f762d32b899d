// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"invest-ai-go/internal/config"
	"invest-ai-go/pkg/events"
	"invest-ai-go/pkg/log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer 把业务事件写入 Kafka。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。Brokers 以逗号分隔。
func NewProducer(cfg config.KafkaConfig) *Producer {
	brokers := strings.Split(cfg.Brokers, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 5 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	log.Infof("Kafka 生产者初始化成功, topic=%s", cfg.Topic)
	return &Producer{writer: writer}
}

// PublishMessageLogged 发送一个 message_logged 事件，以 session_id 作为分区键保证同一会话内有序。
func (p *Producer) PublishMessageLogged(ctx context.Context, event events.MessageLogged) error {
	value, err := encode(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: value,
	})
}

// Close 刷新并关闭底层 writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

func encode(event events.MessageLogged) ([]byte, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return b, nil
}
