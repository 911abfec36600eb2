// Package messaging 提供交易事件的 Kafka 发布实现
package messaging

import (
	"context"

	"github.com/wyfcoding/edutrading/internal/trading/domain"
	"github.com/wyfcoding/edutrading/pkg/mq"
)

// KafkaPublisher 基于 Kafka 的交易事件发布器
type KafkaPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaPublisher 创建事件发布器
func NewKafkaPublisher(producer *mq.KafkaProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
	}
}

// PublishOrderExecuted 发布订单成交事件，以用户维度分区
func (p *KafkaPublisher) PublishOrderExecuted(ctx context.Context, event *domain.OrderExecutedEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.UserID, struct {
		EventType string `json:"eventType"`
		*domain.OrderExecutedEvent
	}{
		EventType:          "order.executed",
		OrderExecutedEvent: event,
	})
}

// PublishPortfolioReset 发布组合重置事件
func (p *KafkaPublisher) PublishPortfolioReset(ctx context.Context, event *domain.PortfolioResetEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.UserID, struct {
		EventType string `json:"eventType"`
		*domain.PortfolioResetEvent
	}{
		EventType:           "portfolio.reset",
		PortfolioResetEvent: event,
	})
}
