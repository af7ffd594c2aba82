package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration
	validate   *validator.Validate
}

// NewAuthService creates a new AuthService issuing tokens valid for tokenTTL.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenTTL,
		validate:   newValidator(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with the user role and returns it with a token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := validateStruct(s.validate, input); err != nil {
		return nil, "", err
	}

	user, err := s.createUser(ctx, input.Name, input.Email, input.Password, models.RoleUser)
	if err != nil {
		return nil, "", err
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user.Sanitized(), token, nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}
	now := time.Now()
	user := &models.User{
		Name:      name,
		Email:     email,
		Password:  string(hashedPassword),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperr.Conflict("Email '%s' is already registered", email)
		}
		return nil, apperr.Internal(err, "failed to register user")
	}
	return user, nil
}

// Login checks the credentials and returns the user with a fresh token.
// Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", apperr.Unauthorized("Invalid credentials")
		}
		return nil, "", apperr.Internal(err, "failed to look up user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apperr.Unauthorized("Invalid credentials")
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user.Sanitized(), token, nil
}

// IssueToken signs an HS256 token carrying the user id and role.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     now.Add(s.tokenDurat).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperr.Internal(err, "failed to generate token")
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// Authenticate resolves a bearer token to the user it was issued for.
// The returned user never carries the password hash.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	if tokenString == "" {
		return nil, apperr.Unauthorized("Not authorized, no token")
	}
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		log.Debug().Err(err).Msg("token rejected")
		return nil, apperr.Unauthorized("Not authorized, token failed")
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, apperr.Unauthorized("Not authorized, token failed")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.Unauthorized("Not authorized, user not found")
		}
		return nil, apperr.Internal(err, "failed to load user %s", userID)
	}
	return user.Sanitized(), nil
}

// Authorize fails with Forbidden unless user holds one of roles.
func (s *AuthService) Authorize(user *models.User, roles ...models.Role) error {
	if user == nil {
		return apperr.Unauthorized("Not authorized")
	}
	if user.Role.Valid() {
		for _, role := range roles {
			if user.Role == role {
				return nil
			}
		}
	}
	return apperr.Forbidden("User role '%s' is not authorized to access this route", user.Role)
}

// EnsureAdmin creates the configured administrator on first start. An
// existing account with that email is left unchanged.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			log.Warn().Str("email", email).Msg("configured admin email belongs to a non-admin user")
		}
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}
	if name == "" {
		name = "Administrator"
	}
	user, err := s.createUser(ctx, name, email, password, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	log.Info().Str("user_id", user.ID).Str("email", email).Msg("admin user created")
	return nil
}
