package handlers

import (
	"storefront/internal/apperr"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
	auth    *services.AuthService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, auth *services.AuthService) *OrderHandler {
	return &OrderHandler{
		service: service,
		auth:    auth,
	}
}

// RegisterRoutes registers the order routes. Every route needs a token;
// all but checkout are reserved for admins.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	admin := middleware.RequireRoles(h.auth, models.RoleAdmin)

	orderRoutes := router.Group("/orders", middleware.Protect(h.auth))
	orderRoutes.Get("/", admin, h.HandleGetOrders)
	orderRoutes.Get("/:id", admin, h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Put("/:id", admin, h.HandleUpdateOrderStatus)
}

// HandleGetOrders lists all orders with the name and email of their owner.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return respondList(c, orders, len(orders))
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, order)
}

// HandleCreateOrder places an order for the authenticated user.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var input services.OrderInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(err)
	}

	order, err := h.service.Create(c.UserContext(), middleware.CurrentUser(c).ID, input)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, order)
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var updateData struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return invalidBody(err)
	}
	if updateData.Status == "" {
		return apperr.Validation("status is required")
	}

	order, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), updateData.Status)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, order)
}
