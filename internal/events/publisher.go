package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SergeyBogomolovv/orders-ms/internal/config"
	"github.com/SergeyBogomolovv/orders-ms/internal/entities"

	"github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent - уведомление для downstream сервисов, публикуется после
// успешной записи в базу. Не является частью транзакции.
type OrderEvent struct {
	Event       string    `json:"event"`
	OrderID     string    `json:"order_id"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	TotalItems  int       `json:"total_items"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.Kafka) *kafkaPublisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

func (p *kafkaPublisher) OrderCreated(ctx context.Context, order entities.Order) error {
	return p.publish(ctx, EventOrderCreated, order)
}

func (p *kafkaPublisher) OrderStatusChanged(ctx context.Context, order entities.Order) error {
	return p.publish(ctx, EventOrderStatusChanged, order)
}

func (p *kafkaPublisher) publish(ctx context.Context, event string, order entities.Order) error {
	value, err := json.Marshal(OrderEvent{
		Event:       event,
		OrderID:     order.ID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		TotalItems:  order.TotalItems,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: value,
	})
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
