package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/me", middleware.Protect(h.authService), h.HandleMe)
}

type session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(err)
	}

	user, token, err := h.authService.Register(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(Envelope{
		Success: true,
		Data:    session{User: user, Token: token},
		Message: "User registered successfully",
	})
}

// HandleLogin handles user login and returns a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&credentials); err != nil {
		return invalidBody(err)
	}

	user, token, err := h.authService.Login(c.UserContext(), credentials.Email, credentials.Password)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, session{User: user, Token: token})
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, middleware.CurrentUser(c))
}
