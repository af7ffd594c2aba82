package main

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logging"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
)

// App is the wired HTTP application together with the resources it owns.
type App struct {
	Fiber *fiber.App
	Store *repositories.Store
	Auth  *services.AuthService

	closers []func() error
}

// NewApp opens the configured store and registers every route. events may be nil.
func NewApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, events services.EventPublisher) (*App, error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	productService := services.NewProductService(store.Products, store.Categories, events)
	categoryService := services.NewCategoryService(store.Categories)
	orderService := services.NewOrderService(store.Orders, store.Users, productService, events)
	authService := services.NewAuthService(store.Users, cfg.JWTSecret, cfg.JWTExpiresIn)
	images := uploads.NewStore(cfg.UploadDir, cfg.MaxUploadSize)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		// Leave room for the multipart framing around a maximum-size image.
		BodyLimit: int(images.MaxSize()) + 1<<20,
	})
	app.Use(requestid.New())
	app.Use(logging.RequestLogger(logger))
	app.Use(recover.New())

	app.Static(uploads.URLPrefix, images.Root())

	health := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(handlers.Envelope{
			Success: true,
			Data: fiber.Map{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
				"events": events != nil,
			},
		})
	}
	app.Get("/health", health)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/health", health)
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handlers.NewProductHandler(productService, authService, images).RegisterRoutes(apiV1)
	handlers.NewCategoryHandler(categoryService, authService).RegisterRoutes(apiV1)
	handlers.NewOrderHandler(orderService, authService).RegisterRoutes(apiV1)

	return &App{
		Fiber:   app,
		Store:   store,
		Auth:    authService,
		closers: []func() error{closeStore},
	}, nil
}

// Close shuts the HTTP server down and releases the store.
func (a *App) Close() error {
	var firstErr error
	if err := a.Fiber.Shutdown(); err != nil {
		firstErr = fmt.Errorf("failed to shut down server: %w", err)
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func openStore(ctx context.Context, cfg *config.Config) (*repositories.Store, func() error, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMemory:
		return repositories.NewMemoryStore(), func() error { return nil }, nil

	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		store, err := repositories.NewMongoStore(ctx, client.Database(cfg.MongoDB))
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return store, func() error { return client.Disconnect(context.Background()) }, nil

	default:
		db, err := database.OpenGORM(cfg)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		return repositories.NewGORMStore(db), sqlDB.Close, nil
	}
}
