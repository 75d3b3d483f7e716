package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SergeyBogomolovv/orders-ms/internal/entities"
	"github.com/SergeyBogomolovv/orders-ms/pkg/trm"

	"golang.org/x/sync/errgroup"
)

type OrderRepo interface {
	CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error)
	CountOrders(ctx context.Context, status *entities.OrderStatus) (int64, error)
	ListOrders(ctx context.Context, status *entities.OrderStatus, offset, limit uint64) ([]entities.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error)
}

type ProductsClient interface {
	ValidateProducts(ctx context.Context, ids []string) ([]entities.Product, error)
}

type EventPublisher interface {
	OrderCreated(ctx context.Context, order entities.Order) error
	OrderStatusChanged(ctx context.Context, order entities.Order) error
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	products  ProductsClient
	events    EventPublisher
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	repo OrderRepo,
	products ProductsClient,
	events EventPublisher,
) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		products:  products,
		events:    events,
	}
}

// CreateOrder валидирует товары через сервис продуктов, считает итоги
// и атомарно сохраняет заказ с позициями. Цена каждой позиции - снапшот
// на момент создания.
func (s *orderService) CreateOrder(ctx context.Context, items []entities.CreateOrderItem) (entities.Order, error) {
	if len(items) == 0 {
		return entities.Order{}, fmt.Errorf("%w: order must contain at least one item", entities.ErrProductValidation)
	}

	products, err := s.validateProducts(ctx, productIDs(items))
	if err != nil {
		return entities.Order{}, err
	}

	var totalAmount float64
	var totalItems int
	orderItems := make([]entities.OrderItem, 0, len(items))

	for _, item := range items {
		product := products[item.ProductID]
		totalAmount += product.Price * float64(item.Quantity)
		totalItems += item.Quantity

		orderItems = append(orderItems, entities.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
	}

	order := entities.Order{
		Status:      entities.StatusPending,
		TotalAmount: totalAmount,
		TotalItems:  totalItems,
		Items:       orderItems,
	}

	var created entities.Order
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repo.CreateOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	mergeProductNames(created.Items, products)

	if err := s.events.OrderCreated(ctx, created); err != nil {
		s.logger.Warn("failed to publish order created event",
			slog.String("order_id", created.ID), slog.Any("error", err))
	}

	s.logger.Debug("order created", slog.String("order_id", created.ID))
	return created, nil
}

// ListOrders возвращает страницу заказов. Количество и сама страница
// запрашиваются параллельно, они независимы.
func (s *orderService) ListOrders(ctx context.Context, p entities.Pagination) (entities.OrderPage, error) {
	if p.Page < 1 || p.Limit < 1 {
		return entities.OrderPage{}, fmt.Errorf("%w: page and limit must be positive", entities.ErrInvalidPagination)
	}

	offset := uint64(p.Page-1) * uint64(p.Limit)

	var totalOrders int64
	var orders []entities.Order

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		totalOrders, err = s.repo.CountOrders(egCtx, p.Status)
		return err
	})
	eg.Go(func() error {
		var err error
		orders, err = s.repo.ListOrders(egCtx, p.Status, offset, uint64(p.Limit))
		return err
	})
	if err := eg.Wait(); err != nil {
		return entities.OrderPage{}, fmt.Errorf("failed to list orders: %w", err)
	}

	totalPages := int((totalOrders + int64(p.Limit) - 1) / int64(p.Limit))

	page := entities.OrderPage{
		TotalOrders: totalOrders,
		Page:        p.Page,
		TotalPages:  totalPages,
		Orders:      orders,
	}
	if totalOrders-int64(p.Page)*int64(p.Limit) > 0 {
		page.Next = pageLink(p.Page+1, p.Limit)
	}
	if p.Page > 1 {
		page.Prev = pageLink(p.Page-1, p.Limit)
	}

	return page, nil
}

// GetOrderByID возвращает заказ с позициями, имена товаров каждый раз
// запрашиваются заново у сервиса продуктов.
func (s *orderService) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	ids := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.validateProducts(ctx, ids)
	if err != nil {
		return entities.Order{}, err
	}
	mergeProductNames(order.Items, products)

	return order, nil
}

// ChangeOrderStatus переводит заказ в новый статус. Повторный перевод в
// тот же статус - no-op, переходы из терминальных статусов запрещены.
func (s *orderService) ChangeOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	if order.Status == status {
		return order, nil
	}

	if !order.Status.CanTransitionTo(status) {
		return entities.Order{}, fmt.Errorf("%w: %s -> %s", entities.ErrStatusTransition, order.Status, status)
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return entities.Order{}, err
	}

	order.Status = updated.Status
	order.UpdatedAt = updated.UpdatedAt

	if err := s.events.OrderStatusChanged(ctx, order); err != nil {
		s.logger.Warn("failed to publish status changed event",
			slog.String("order_id", order.ID), slog.Any("error", err))
	}

	s.logger.Debug("order status changed",
		slog.String("order_id", order.ID), slog.String("status", string(order.Status)))
	return order, nil
}

// validateProducts запрашивает товары по id и требует, чтобы каждый
// запрошенный id присутствовал в ответе.
func (s *orderService) validateProducts(ctx context.Context, ids []string) (map[string]entities.Product, error) {
	records, err := s.products.ValidateProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrProductValidation, err)
	}

	products := make(map[string]entities.Product, len(records))
	for _, p := range records {
		products[p.ID] = p
	}

	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, fmt.Errorf("%w: product %s not found", entities.ErrProductValidation, id)
		}
	}

	return products, nil
}

func productIDs(items []entities.CreateOrderItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func mergeProductNames(items []entities.OrderItem, products map[string]entities.Product) {
	for i := range items {
		items[i].Name = products[items[i].ProductID].Name
	}
}

func pageLink(page, limit int) *string {
	link := fmt.Sprintf("/orders?page=%d&limit=%d", page, limit)
	return &link
}
