package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/SergeyBogomolovv/orders-ms/internal/config"
	"github.com/SergeyBogomolovv/orders-ms/internal/entities"

	"github.com/go-playground/validator/v10"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Команды RPC, приходят в свойстве Type сообщения.
const (
	cmdCreateOrder       = "createOrder"
	cmdFindAllOrders     = "findAllOrders"
	cmdFindOneOrder      = "findOneOrder"
	cmdChangeOrderStatus = "changeOrderStatus"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errInvalidRequest = errors.New("invalid request")
)

type OrderService interface {
	CreateOrder(ctx context.Context, items []entities.CreateOrderItem) (entities.Order, error)
	ListOrders(ctx context.Context, p entities.Pagination) (entities.OrderPage, error)
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	ChangeOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error)
}

type amqpHandler struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService

	queue    string
	prefetch int
}

func NewAMQPHandler(logger *slog.Logger, conn *amqp.Connection, cfg config.AMQP, svc OrderService) *amqpHandler {
	return &amqpHandler{
		conn:     conn,
		logger:   logger.With(slog.String("handler", "amqp")),
		validate: validator.New(),
		svc:      svc,
		queue:    cfg.OrdersQueue,
		prefetch: cfg.Prefetch,
	}
}

func (h *amqpHandler) Consume(ctx context.Context) {
	ch, err := h.conn.Channel()
	if err != nil {
		h.logger.Error("failed to open channel", slog.Any("error", err))
		return
	}
	h.ch = ch

	if err := ch.Qos(h.prefetch, 0, false); err != nil {
		h.logger.Error("failed to set qos", slog.Any("error", err))
		return
	}

	if _, err := ch.QueueDeclare(h.queue, true, false, false, false, nil); err != nil {
		h.logger.Error("failed to declare queue", slog.Any("error", err))
		return
	}

	deliveries, err := ch.Consume(h.queue, "", false, false, false, false, nil)
	if err != nil {
		h.logger.Error("failed to consume queue", slog.Any("error", err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			h.handleDelivery(ctx, d)
		}
	}
}

func (h *amqpHandler) handleDelivery(ctx context.Context, d amqp.Delivery) {
	start := time.Now()
	rpcInProgress.Inc()
	defer rpcInProgress.Dec()

	data, err := h.dispatch(ctx, d.Type, d.Body)

	res := Response{Data: data}
	code := http.StatusOK
	if err != nil {
		code = statusCode(err)
		res = Response{Error: &Error{Message: err.Error(), StatusCode: code}}

		if code == http.StatusInternalServerError {
			h.logger.Error("failed to handle command",
				slog.String("command", d.Type), slog.Any("error", err))
		}
	}

	rpcRequestsTotal.WithLabelValues(d.Type, strconv.Itoa(code)).Inc()
	rpcRequestDuration.WithLabelValues(d.Type).Observe(time.Since(start).Seconds())

	if d.ReplyTo != "" {
		if err := h.reply(ctx, d, res); err != nil {
			h.logger.Error("failed to publish reply", slog.Any("error", err))
		}
	}

	if err := d.Ack(false); err != nil {
		h.logger.Error("failed to ack message", slog.Any("error", err))
	}
}

func (h *amqpHandler) reply(ctx context.Context, d amqp.Delivery, res Response) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	return h.ch.PublishWithContext(ctx, "", d.ReplyTo, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: d.CorrelationId,
		Body:          body,
	})
}

func (h *amqpHandler) dispatch(ctx context.Context, command string, body []byte) (any, error) {
	switch command {
	case cmdCreateOrder:
		return h.handleCreateOrder(ctx, body)
	case cmdFindAllOrders:
		return h.handleFindAllOrders(ctx, body)
	case cmdFindOneOrder:
		return h.handleFindOneOrder(ctx, body)
	case cmdChangeOrderStatus:
		return h.handleChangeOrderStatus(ctx, body)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownCommand, command)
	}
}

func (h *amqpHandler) handleCreateOrder(ctx context.Context, body []byte) (any, error) {
	var req CreateOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}

	order, err := h.svc.CreateOrder(ctx, CreateItemsToEntity(req.Items))
	if err != nil {
		return nil, err
	}
	return OrderEntityToJSON(order), nil
}

func (h *amqpHandler) handleFindAllOrders(ctx context.Context, body []byte) (any, error) {
	var req OrderPaginationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}

	pagination := entities.Pagination{Page: req.Page, Limit: req.Limit}
	if req.Status != nil {
		status, err := entities.ParseOrderStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		pagination.Status = &status
	}

	page, err := h.svc.ListOrders(ctx, pagination)
	if err != nil {
		return nil, err
	}
	return OrderPageEntityToJSON(page), nil
}

func (h *amqpHandler) handleFindOneOrder(ctx context.Context, body []byte) (any, error) {
	var req FindOneOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}

	order, err := h.svc.GetOrderByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return OrderEntityToJSON(order), nil
}

func (h *amqpHandler) handleChangeOrderStatus(ctx context.Context, body []byte) (any, error) {
	var req ChangeOrderStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}

	status, err := entities.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}

	order, err := h.svc.ChangeOrderStatus(ctx, req.ID, status)
	if err != nil {
		return nil, err
	}
	return OrderEntityToJSON(order), nil
}

// statusCode повторяет HTTP семантику из контракта: 400 на ошибки
// валидации, 404 на отсутствующий заказ.
func statusCode(err error) int {
	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrProductValidation),
		errors.Is(err, entities.ErrInvalidOrderStatus),
		errors.Is(err, entities.ErrStatusTransition),
		errors.Is(err, entities.ErrInvalidPagination),
		errors.Is(err, errUnknownCommand),
		errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *amqpHandler) Close() error {
	if h.ch != nil {
		return h.ch.Close()
	}
	return nil
}
