package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/storage"
)

const (
	DataDriverSupabase = "supabase"
	DataDriverPostgres = "postgres"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	SupabaseURL       string `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseAnonKey   string `envconfig:"SUPABASE_URL_ANON_KEY" required:"true"`
	SupabaseJWTSecret string `envconfig:"SUPABASE_JWT_SECRET"`
	SupabaseBucket    string `envconfig:"SUPABASE_BUCKET" default:"eventos"`

	DataDriver  string `envconfig:"DATA_DRIVER" default:"supabase"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	StorageDriver       string `envconfig:"STORAGE_DRIVER" default:"supabase"`
	CloudinaryCloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `envconfig:"CLOUDINARY_API_SECRET"`

	MongoDBURI      string `envconfig:"MONGODB_URI"`
	MongoDBPassword string `envconfig:"MONGODB_PASSWORD"`

	RedisURL       string        `envconfig:"REDIS_URL"`
	PublicCacheTTL time.Duration `envconfig:"PUBLIC_CACHE_TTL" default:"60s"`

	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopicEvents string   `envconfig:"KAFKA_TOPIC_EVENTS" default:"agendacity.events"`

	Timezone       string        `envconfig:"TIMEZONE" default:"America/Sao_Paulo"`
	PublicPageSize int           `envconfig:"PUBLIC_PAGE_SIZE" default:"9"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"5m"`
}

// LoadConfig reads .env.local when present and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env.local")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DataDriver {
	case DataDriverSupabase:
	case DataDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown DATA_DRIVER %q", c.DataDriver)
	}

	switch c.StorageDriver {
	case storage.DriverSupabase:
	case storage.DriverCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required when STORAGE_DRIVER=cloudinary")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.PublicPageSize <= 0 {
		return fmt.Errorf("PUBLIC_PAGE_SIZE must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (c *Config) MongoEnabled() bool {
	return c.MongoDBURI != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
