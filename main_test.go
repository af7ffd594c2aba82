package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/services"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(routingKey string, payload interface{}) error {
	args := m.Called(routingKey, payload)
	return args.Error(0)
}

func TestMain(m *testing.M) {
	log.Logger = zerolog.New(io.Discard)
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DATABASE_DRIVER", config.DriverMemory)
	v.Set("JWT_SECRET", "test_jwt_secret")
	v.Set("UPLOAD_DIR", t.TempDir())
	v.Set("ADMIN_EMAIL", "admin@example.com")
	v.Set("ADMIN_PASSWORD", "adminpassword")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, events services.EventPublisher) (*App, *config.Config) {
	t.Helper()
	cfg := testConfig(t)
	app, err := NewApp(context.Background(), cfg, logging.NewWithWriter(io.Discard, "error"), events)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	require.NoError(t, app.Auth.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword))
	return app, cfg
}

func call(t *testing.T, app *App, method, path string, payload interface{}, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Fiber.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestHealthCheck(t *testing.T) {
	app, _ := newTestApp(t, nil)

	for _, path := range []string{"/health", "/api/v1/health"} {
		resp, body := call(t, app, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "healthy", body["data"].(map[string]interface{})["status"])
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	app, _ := newTestApp(t, nil)

	resp, body := call(t, app, http.MethodGet, "/api/v1/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])
}

func TestPublicCatalogueAndSeededAdmin(t *testing.T) {
	app, cfg := newTestApp(t, nil)

	resp, body := call(t, app, http.MethodGet, "/api/v1/products", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["count"])

	resp, body = call(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": cfg.AdminEmail, "password": cfg.AdminPassword,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := body["data"].(map[string]interface{})
	assert.Equal(t, "admin", session["user"].(map[string]interface{})["role"])
}

func TestUploadedImagesAreServed(t *testing.T) {
	app, cfg := newTestApp(t, nil)

	dir := filepath.Join(cfg.UploadDir, "product_images")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p-1.png"), []byte("\x89PNG\r\n\x1a\n"), 0o644))

	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/uploads/product_images/p-1.png", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOrderEventsArePublished(t *testing.T) {
	events := new(MockEventPublisher)
	events.On("Publish", services.EventProductCreated, mock.Anything).Return(nil).Once()
	events.On("Publish", services.EventOrderCreated, mock.Anything).Return(nil).Once()
	events.On("Publish", services.EventOrderStatusChanged, mock.Anything).Return(nil).Once()

	app, cfg := newTestApp(t, events)
	ctx := context.Background()

	_, adminToken, err := app.Auth.Login(ctx, cfg.AdminEmail, cfg.AdminPassword)
	require.NoError(t, err)

	resp, body := call(t, app, http.MethodPost, "/api/v1/categories", map[string]string{"name": "Shoes"}, adminToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	categoryID := body["data"].(map[string]interface{})["id"]

	resp, body = call(t, app, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name": "Red Shoe", "description": "Nice", "price": 20, "category": categoryID,
		"sizes": []map[string]interface{}{{"size": "M", "stock": 2}},
	}, adminToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body["message"])
	productID := body["data"].(map[string]interface{})["id"]

	resp, body = call(t, app, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"productId": productID, "size": "M", "quantity": 1}},
	}, adminToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body["message"])
	orderID := body["data"].(map[string]interface{})["id"].(string)

	resp, _ = call(t, app, http.MethodPut, "/api/v1/orders/"+orderID, map[string]string{"status": "Cancelled"}, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events.AssertExpectations(t)
}

func TestAppCloseIsSafeBeforeListen(t *testing.T) {
	cfg := testConfig(t)
	app, err := NewApp(context.Background(), cfg, logging.NewWithWriter(io.Discard, "error"), nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Close() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
}
