package services_test

import (
	"context"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shop struct {
	*catalogue
	orders *services.OrderService
	events *recordingPublisher
	user   *models.User
}

func newShop(t *testing.T) *shop {
	t.Helper()
	c := newCatalogue(t)
	user := &models.User{Name: "Ann", Email: "ann@example.com", Password: "hash", Role: models.RoleUser}
	require.NoError(t, c.store.Users.Create(context.Background(), user))
	events := &recordingPublisher{}
	return &shop{
		catalogue: c,
		orders:    services.NewOrderService(c.store.Orders, c.store.Users, c.products, events),
		events:    events,
		user:      user,
	}
}

func (s *shop) placeOrder(t *testing.T, items ...services.OrderItemInput) *models.Order {
	t.Helper()
	order, err := s.orders.Create(context.Background(), s.user.ID, services.OrderInput{Items: items})
	require.NoError(t, err)
	return order
}

func (s *shop) stock(t *testing.T, productID, size string) int {
	t.Helper()
	p, err := s.products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	stock, ok := p.SizeStock(size)
	require.True(t, ok)
	return stock
}

func TestOrderService_CreateReservesStock(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	in := s.input("Red Shoe", services.SizeInput{Size: "M", Stock: 5})
	in.DiscountPrice = float(40)
	shoe, err := s.products.Create(ctx, in, "admin-1")
	require.NoError(t, err)

	order := s.placeOrder(t, services.OrderItemInput{ProductID: shoe.ID, Size: "M", Quantity: 2})
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 80.0, order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Red Shoe", order.Items[0].Name)
	assert.Equal(t, 40.0, order.Items[0].Price)
	require.NotNil(t, order.User)
	assert.Equal(t, "ann@example.com", order.User.Email)

	assert.Equal(t, 3, s.stock(t, shoe.ID, "M"))
	assert.Equal(t, []string{services.EventOrderCreated}, s.events.events)
}

func TestOrderService_CreateReleasesOnFailure(t *testing.T) {
	s := newShop(t)
	shoe := s.create(t, "Red Shoe", services.SizeInput{Size: "M", Stock: 5})
	hat := s.create(t, "Sun Hat", services.SizeInput{Size: "One", Stock: 1})

	_, err := s.orders.Create(context.Background(), s.user.ID, services.OrderInput{Items: []services.OrderItemInput{
		{ProductID: shoe.ID, Size: "M", Quantity: 2},
		{ProductID: hat.ID, Size: "One", Quantity: 2},
	}})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 5, s.stock(t, shoe.ID, "M"))
	assert.Equal(t, 1, s.stock(t, hat.ID, "One"))

	_, err = s.orders.Create(context.Background(), s.user.ID, services.OrderInput{Items: []services.OrderItemInput{
		{ProductID: shoe.ID, Size: "M", Quantity: 1},
		{ProductID: "missing", Size: "M", Quantity: 1},
	}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 5, s.stock(t, shoe.ID, "M"))

	orders, err := s.orders.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_CreateRejectsUnavailable(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	shoe := s.create(t, "Red Shoe", services.SizeInput{Size: "M", Stock: 5})
	_, err := s.products.SoftDelete(ctx, shoe.ID)
	require.NoError(t, err)

	_, err = s.orders.Create(ctx, s.user.ID, services.OrderInput{Items: []services.OrderItemInput{
		{ProductID: shoe.ID, Size: "M", Quantity: 1},
	}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.orders.Create(ctx, s.user.ID, services.OrderInput{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.orders.Create(ctx, s.user.ID, services.OrderInput{Items: []services.OrderItemInput{
		{ProductID: shoe.ID, Size: "M", Quantity: 0},
	}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	shoe := s.create(t, "Red Shoe", services.SizeInput{Size: "M", Stock: 5})
	order := s.placeOrder(t, services.OrderItemInput{ProductID: shoe.ID, Size: "M", Quantity: 1})

	_, err := s.orders.UpdateStatus(ctx, order.ID, "Shipped")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	got, err := s.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status)

	_, err = s.orders.UpdateStatus(ctx, order.ID, "Pending")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	delivered, err := s.orders.UpdateStatus(ctx, order.ID, "Delivered")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)
	assert.Nil(t, delivered.CancelledAt)

	cancelled, err := s.orders.UpdateStatus(ctx, order.ID, "Cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.DeliveredAt)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = s.orders.UpdateStatus(ctx, "missing", "Refunded")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.orders.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOrderService_ListIncludesUserSummary(t *testing.T) {
	s := newShop(t)
	shoe := s.create(t, "Red Shoe", services.SizeInput{Size: "M", Stock: 5})
	s.placeOrder(t, services.OrderItemInput{ProductID: shoe.ID, Size: "M", Quantity: 1})
	s.placeOrder(t, services.OrderItemInput{ProductID: shoe.ID, Size: "M", Quantity: 1})

	orders, err := s.orders.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		require.NotNil(t, o.User)
		assert.Equal(t, "Ann", o.User.Name)
		assert.Equal(t, "ann@example.com", o.User.Email)
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"Delivered", "Cancelled", "Refunded"} {
		status, err := services.ParseOrderStatus(s)
		assert.NoError(t, err)
		assert.Equal(t, models.OrderStatus(s), status)
	}
	for _, s := range []string{"Shipped", "Pending", "delivered", ""} {
		_, err := services.ParseOrderStatus(s)
		assert.ErrorIs(t, err, apperr.ErrValidation, s)
	}
}
