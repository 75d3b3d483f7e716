package products

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SergeyBogomolovv/orders-ms/internal/config"
	"github.com/SergeyBogomolovv/orders-ms/internal/entities"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const cmdValidateProducts = "validateProducts"

type amqpClient struct {
	conn    *amqp.Connection
	logger  *slog.Logger
	queue   string
	timeout time.Duration
}

func NewAMQPClient(logger *slog.Logger, conn *amqp.Connection, cfg config.AMQP) *amqpClient {
	return &amqpClient{
		conn:    conn,
		logger:  logger.With(slog.String("client", "products")),
		queue:   cfg.ProductsQueue,
		timeout: cfg.ProductsTimeout,
	}
}

type product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type response struct {
	Data  json.RawMessage `json:"data"`
	Error *responseError  `json:"error"`
}

type responseError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// ValidateProducts отправляет RPC запрос сервису продуктов и ждёт ответ
// в эксклюзивной reply очереди (сопоставление по correlation id).
func (c *amqpClient) ValidateProducts(ctx context.Context, ids []string) ([]entities.Product, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	replyQueue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare reply queue: %w", err)
	}

	deliveries, err := ch.Consume(replyQueue.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to consume reply queue: %w", err)
	}

	body, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product ids: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	correlationID := uuid.NewString()

	err = ch.PublishWithContext(ctx, "", c.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		Type:          cmdValidateProducts,
		CorrelationId: correlationID,
		ReplyTo:       replyQueue.Name,
		Body:          body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish request: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("products rpc timed out: %w", ctx.Err())
		case d, ok := <-deliveries:
			if !ok {
				return nil, fmt.Errorf("reply channel closed")
			}
			if d.CorrelationId != correlationID {
				c.logger.Warn("unexpected correlation id", slog.String("correlation_id", d.CorrelationId))
				continue
			}
			return parseResponse(d.Body)
		}
	}
}

func parseResponse(body []byte) ([]entities.Product, error) {
	var res response
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if res.Error != nil {
		return nil, fmt.Errorf("products service error: %s", res.Error.Message)
	}

	var records []product
	if err := json.Unmarshal(res.Data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal products: %w", err)
	}

	result := make([]entities.Product, 0, len(records))
	for _, p := range records {
		result = append(result, entities.Product{ID: p.ID, Name: p.Name, Price: p.Price})
	}
	return result, nil
}
