package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	service *services.CategoryService
	auth    *services.AuthService
}

func NewCategoryHandler(service *services.CategoryService, auth *services.AuthService) *CategoryHandler {
	return &CategoryHandler{service: service, auth: auth}
}

func (h *CategoryHandler) RegisterRoutes(router fiber.Router) {
	protect := middleware.Protect(h.auth)
	admin := middleware.RequireRoles(h.auth, models.RoleAdmin)

	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleGetCategories)
	categoryRoutes.Post("/", protect, admin, h.HandleCreateCategory)
	categoryRoutes.Put("/:slug", protect, admin, h.HandleUpdateCategory)
	categoryRoutes.Delete("/:id", protect, admin, h.HandleDeleteCategory)
}

func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return respondList(c, categories, len(categories))
}

func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var input services.CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(err)
	}
	category, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, category)
}

// HandleUpdateCategory addresses the category by its current slug.
func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	var input services.CategoryUpdate
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(err)
	}
	category, err := h.service.Update(c.UserContext(), c.Params("slug"), input)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, category)
}

func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return respondMessage(c, "Category deleted", nil)
}
