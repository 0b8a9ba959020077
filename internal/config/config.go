package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the whole application configuration, populated from
// environment variables.
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Reservation ReservationConfig
	Gateway     GatewayConfig
	Geo         GeoConfig
	MinIO       MinIOConfig
	Job         JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

// ReservationConfig controls the item purchase hold. The product copy talks
// about a two minute hold while the backend has always used 60 seconds; the
// TTL is configurable so the two can be reconciled without a release.
type ReservationConfig struct {
	TTL time.Duration
}

// GatewayConfig holds payment gateway credentials.
type GatewayConfig struct {
	MerchantID string
	SecretKey  string // HMAC-SHA256 webhook signature key
	APIURL     string
	WebhookURL string
}

// GeoConfig holds the geocoding collaborator endpoint.
type GeoConfig struct {
	APIURL string
	APIKey string
}

// JobConfig tunes the scheduled background jobs.
type JobConfig struct {
	ReconcileBatchSize int // users verified per page in the nightly sweep
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Marketplace API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "marketplace"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 15),
		},
		Reservation: ReservationConfig{
			TTL: time.Duration(getEnvInt("RESERVATION_TTL_SECONDS", 60)) * time.Second,
		},
		Gateway: GatewayConfig{
			MerchantID: getEnv("GATEWAY_MERCHANT_ID", ""),
			SecretKey:  getEnv("GATEWAY_SECRET_KEY", ""),
			APIURL:     getEnv("GATEWAY_API_URL", "https://sandbox.gateway.example.com"),
			WebhookURL: getEnv("GATEWAY_WEBHOOK_URL", "http://localhost:8080/api/v1/webhooks/payment"),
		},
		Geo: GeoConfig{
			APIURL: getEnv("GEO_API_URL", "https://restapi.amap.com/v3"),
			APIKey: getEnv("GEO_API_KEY", ""),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "marketplace"),
			UseSSL:    false,
		},
		Job: JobConfig{
			ReconcileBatchSize: getEnvInt("JOB_RECONCILE_BATCH_SIZE", 500),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that critical configuration is present.
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if c.Gateway.MerchantID == "" {
			fmt.Println("WARNING: Gateway MerchantID not set - payouts will not work")
		}
	}

	if c.Reservation.TTL <= 0 {
		return fmt.Errorf("RESERVATION_TTL_SECONDS must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
