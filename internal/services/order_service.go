package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// OrderItemInput is one line of a checkout request.
type OrderItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type OrderInput struct {
	Items []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	products  *ProductService
	events    EventPublisher
	validate  *validator.Validate
	now       func() time.Time
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, products *ProductService, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		products:  products,
		events:    events,
		validate:  newValidator(),
		now:       time.Now,
	}
}

// ParseOrderStatus accepts only the statuses an order can be moved to.
func ParseOrderStatus(s string) (models.OrderStatus, error) {
	switch status := models.OrderStatus(s); status {
	case models.OrderDelivered, models.OrderCancelled, models.OrderRefunded:
		return status, nil
	}
	return "", apperr.Validation("Invalid status '%s'", s)
}

// List returns all orders with the ordering user's name and email.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list orders")
	}
	summaries := make(map[string]*models.UserSummary)
	for i := range orders {
		userID := orders[i].UserID
		summary, ok := summaries[userID]
		if !ok {
			summary = s.userSummary(ctx, userID)
			summaries[userID] = summary
		}
		orders[i].User = summary
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, orderError(err, id)
	}
	order.User = s.userSummary(ctx, order.UserID)
	return order, nil
}

// UpdateStatus moves an order to status and records when it happened.
// Any allowed status may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	next, err := ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, next, s.now()); err != nil {
		return nil, orderError(err, id)
	}
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info().Str("order_id", id).Str("status", string(next)).Msg("order status updated")
	publishEvent(s.events, EventOrderStatusChanged, map[string]interface{}{
		"orderId": id,
		"status":  next,
	})
	return order, nil
}

// Create places an order for userID. Stock is reserved line by line; when a
// line fails, the lines already reserved are released again.
func (s *OrderService) Create(ctx context.Context, userID string, input OrderInput) (*models.Order, error) {
	for i := range input.Items {
		input.Items[i].ProductID = strings.TrimSpace(input.Items[i].ProductID)
		input.Items[i].Size = strings.TrimSpace(input.Items[i].Size)
	}
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}

	var (
		reserved []OrderItemInput
		items    = make([]models.OrderItem, 0, len(input.Items))
		total    float64
	)
	for _, line := range input.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			s.release(ctx, reserved)
			return nil, err
		}
		if product.IsDeleted || !product.IsActive {
			s.release(ctx, reserved)
			return nil, apperr.Validation("Product '%s' is not available", product.Name)
		}
		if _, err := s.products.UpdateStock(ctx, line.ProductID, line.Size, -line.Quantity); err != nil {
			s.release(ctx, reserved)
			return nil, err
		}
		reserved = append(reserved, line)

		price := product.CurrentPrice()
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Size:      line.Size,
			Quantity:  line.Quantity,
			Price:     price,
		})
		total += price * float64(line.Quantity)
	}

	now := s.now()
	order := &models.Order{
		UserID:      userID,
		Items:       items,
		TotalAmount: math.Round(total*100) / 100,
		Status:      models.OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.release(ctx, reserved)
		return nil, apperr.Internal(err, "failed to create order")
	}
	order.User = s.userSummary(ctx, userID)

	log.Info().Str("order_id", order.ID).Str("user_id", userID).Float64("total", order.TotalAmount).Msg("order created")
	publishEvent(s.events, EventOrderCreated, map[string]interface{}{
		"orderId": order.ID,
		"userId":  order.UserID,
		"status":  order.Status,
		"total":   order.TotalAmount,
		"items":   order.Items,
	})
	return order, nil
}

// release gives back stock taken for lines of an order that was not placed.
func (s *OrderService) release(ctx context.Context, lines []OrderItemInput) {
	for _, line := range lines {
		if _, err := s.products.UpdateStock(ctx, line.ProductID, line.Size, line.Quantity); err != nil {
			log.Error().Err(err).
				Str("product_id", line.ProductID).
				Str("size", line.Size).
				Int("quantity", line.Quantity).
				Msg("failed to release reserved stock")
		}
	}
}

func (s *OrderService) userSummary(ctx context.Context, userID string) *models.UserSummary {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Err(err).Str("user_id", userID).Msg("failed to load order owner")
		}
		return nil
	}
	return user.Summary()
}

func orderError(err error, id string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("Order not found")
	}
	return apperr.Internal(err, "order %s", id)
}
