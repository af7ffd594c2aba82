package repositories

import (
	"context"
	"time"

	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	// UpdateStatus sets status together with the timestamp belonging to it,
	// leaving the other transition timestamps as they are.
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus, at time.Time) error
}

// statusTimestampField maps a status onto the column recording when it was reached.
func statusTimestampField(status models.OrderStatus) string {
	switch status {
	case models.OrderDelivered:
		return "delivered_at"
	case models.OrderCancelled:
		return "cancelled_at"
	case models.OrderRefunded:
		return "refunded_at"
	}
	return ""
}

func applyStatus(order *models.Order, status models.OrderStatus, at time.Time) {
	order.Status = status
	order.UpdatedAt = at
	t := at
	switch status {
	case models.OrderDelivered:
		order.DeliveredAt = &t
	case models.OrderCancelled:
		order.CancelledAt = &t
	case models.OrderRefunded:
		order.RefundedAt = &t
	}
}
