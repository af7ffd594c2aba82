package handlers

import (
	"fmt"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	auth    *services.AuthService
	images  *uploads.Store
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, auth *services.AuthService, images *uploads.Store) *ProductHandler {
	return &ProductHandler{
		service: service,
		auth:    auth,
		images:  images,
	}
}

// RegisterRoutes registers the product routes. Reads are public; writes
// need an admin token.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	protect := middleware.Protect(h.auth)
	admin := middleware.RequireRoles(h.auth, models.RoleAdmin)

	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/id/:id", protect, admin, h.HandleGetProductByID)
	productRoutes.Get("/:slug", h.HandleGetProductBySlug)
	productRoutes.Post("/", protect, admin, h.HandleCreateProduct)
	productRoutes.Put("/stock/:id", protect, admin, h.HandleUpdateStock)
	productRoutes.Put("/:id", protect, admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", protect, admin, h.HandleDeleteProduct)
	productRoutes.Post("/:id/images", protect, admin, h.HandleUploadImage)
}

// HandleGetProducts lists products that have not been deleted.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	return respondList(c, products, len(products))
}

func (h *ProductHandler) HandleGetProductBySlug(c *fiber.Ctx) error {
	product, err := h.service.GetActiveBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, product)
}

// HandleGetProductByID also finds deleted products.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, product)
}

func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input services.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(err)
	}

	product, err := h.service.Create(c.UserContext(), input, middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, product)
}

func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var input services.ProductUpdate
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(err)
	}

	product, err := h.service.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, product)
}

// HandleDeleteProduct soft-deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	product, err := h.service.SoftDelete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respondMessage(c, "Product deleted", product)
}

type stockRequest struct {
	Size           string `json:"size"`
	QuantityChange *int   `json:"quantityChange"`
}

// HandleUpdateStock adds quantityChange, which may be negative, to one size.
func (h *ProductHandler) HandleUpdateStock(c *fiber.Ctx) error {
	var req stockRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	if req.QuantityChange == nil {
		return apperr.Validation("quantityChange is required")
	}

	size := strings.TrimSpace(req.Size)
	sizes, err := h.service.UpdateStock(c.UserContext(), c.Params("id"), size, *req.QuantityChange)
	if err != nil {
		return err
	}
	return respondMessage(c, fmt.Sprintf("Stock for size %s updated successfully", size), sizes)
}

// HandleUploadImage stores the multipart field imageFile and attaches it to
// the product. The product is looked up before the file is read.
func (h *ProductHandler) HandleUploadImage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	product, err := h.service.GetByID(ctx, c.Params("id"))
	if err != nil {
		return err
	}

	file, err := c.FormFile("imageFile")
	if err != nil {
		return apperr.Validation("Please upload an image file")
	}
	stored, err := h.images.SaveProductImage(product.ID, file)
	if err != nil {
		return err
	}

	log.Info().Str("product_id", product.ID).Str("path", stored.Path).Msg("product image stored")

	images, err := h.service.AddImage(ctx, product.ID, stored.URL, stored.PublicID)
	if err != nil {
		if rmErr := h.images.RemoveProductImage(stored.PublicID); rmErr != nil {
			log.Warn().Err(rmErr).Str("file", stored.PublicID).Msg("failed to remove orphaned image")
		}
		return err
	}
	return respondMessage(c, "File uploaded and image URL saved to product. Accessible at "+stored.URL, images)
}
