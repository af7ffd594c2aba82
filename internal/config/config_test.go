package config_test

import (
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := config.FromViper(newViper(map[string]interface{}{"JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, config.DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, 720*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadSize)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestFromViperRequiresSecret(t *testing.T) {
	_, err := config.FromViper(newViper(nil))
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestFromViperRejectsUnknownDriver(t *testing.T) {
	_, err := config.FromViper(newViper(map[string]interface{}{
		"JWT_SECRET":      "s3cret",
		"DATABASE_DRIVER": "Cassandra",
	}))
	assert.ErrorContains(t, err, "unsupported DATABASE_DRIVER")
}

func TestFromViperDriverIsCaseInsensitive(t *testing.T) {
	cfg, err := config.FromViper(newViper(map[string]interface{}{
		"JWT_SECRET":      "s3cret",
		"DATABASE_DRIVER": "MEMORY",
	}))
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.DatabaseDriver)
}

func TestFromViperAdminSeedNeedsBothFields(t *testing.T) {
	_, err := config.FromViper(newViper(map[string]interface{}{
		"JWT_SECRET":  "s3cret",
		"ADMIN_EMAIL": "admin@example.com",
	}))
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")
}
