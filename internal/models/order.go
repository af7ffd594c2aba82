package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
	OrderRefunded  OrderStatus = "Refunded"
)

// OrderItem represents a single item within an order.
type OrderItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name" bson:"name"`
	Size      string  `json:"size" bson:"size"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"` // Price at the time of order
}

// Order represents a customer order.
type Order struct {
	ID          string       `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	UserID      string       `json:"userId" gorm:"type:varchar(36);not null;index" bson:"user"`
	User        *UserSummary `json:"user,omitempty" gorm:"-" bson:"-"`
	Items       []OrderItem  `json:"items" gorm:"serializer:json" bson:"items"`
	TotalAmount float64      `json:"totalAmount" bson:"totalAmount"`
	Status      OrderStatus  `json:"status" gorm:"type:varchar(20);not null;index" bson:"status"`
	DeliveredAt *time.Time   `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	CancelledAt *time.Time   `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
	RefundedAt  *time.Time   `json:"refundedAt,omitempty" bson:"refundedAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy of o.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	if o.User != nil {
		u := *o.User
		c.User = &u
	}
	for _, ts := range []**time.Time{&c.DeliveredAt, &c.CancelledAt, &c.RefundedAt} {
		if *ts != nil {
			t := **ts
			*ts = &t
		}
	}
	return &c
}
