package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Supported values of DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds the runtime settings of the storefront API.
type Config struct {
	AppPort   string
	LogLevel  string
	LogPretty bool

	DatabaseDriver string
	DatabaseDSN    string
	MongoURI       string
	MongoDB        string

	JWTSecret    string
	JWTExpiresIn time.Duration

	// RabbitMQURL empty disables domain events.
	RabbitMQURL string

	UploadDir     string
	MaxUploadSize int64

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("DATABASE_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=storefront port=5432 sslmode=disable")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "storefront")
	v.SetDefault("JWT_EXPIRES_IN", "720h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_UPLOAD_SIZE", 5*1024*1024)
	v.SetDefault("ADMIN_NAME", "Administrator")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Warn().Err(err).Msg("error loading .env file")
		}
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogPretty:      v.GetBool("LOG_PRETTY"),
		DatabaseDriver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		MongoURI:       v.GetString("MONGO_URI"),
		MongoDB:        v.GetString("MONGO_DB"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTExpiresIn:   v.GetDuration("JWT_EXPIRES_IN"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		UploadDir:      v.GetString("UPLOAD_DIR"),
		MaxUploadSize:  v.GetInt64("MAX_UPLOAD_SIZE"),
		AdminName:      v.GetString("ADMIN_NAME"),
		AdminEmail:     v.GetString("ADMIN_EMAIL"),
		AdminPassword:  v.GetString("ADMIN_PASSWORD"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for driver %q", c.DatabaseDriver)
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDB == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DB are required for driver %q", c.DatabaseDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}
