package connect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/cache"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/config"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/notify"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectTimeout = 10 * time.Second

// Clients holds every backing connection the API opened. Optional backends
// stay nil when they are not configured.
type Clients struct {
	Supabase   *supabase.Client
	Postgres   *gorm.DB
	MongoDB    *mongo.Client
	Cloudinary *cloudinary.Cloudinary
	Redis      *redis.Client
	Kafka      *notify.KafkaPublisher
}

// Open connects to the backends selected by cfg. Required backends fail the
// whole call; on error everything opened so far is closed.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Clients, error) {
	clients := &Clients{}
	fail := func(err error) (*Clients, error) {
		clients.Close(logger)
		return nil, err
	}

	var err error
	if clients.Supabase, err = InitSupabase(cfg.SupabaseURL, cfg.SupabaseAnonKey); err != nil {
		return fail(err)
	}
	logger.Info("Connected to Supabase successfully")

	if cfg.DataDriver == config.DataDriverPostgres {
		if clients.Postgres, err = PostgresConnect(cfg.DatabaseURL, cfg.IsDevelopment()); err != nil {
			return fail(err)
		}
		logger.Info("Connected to Postgres successfully")
	}

	if cfg.CloudinaryCloudName != "" {
		if clients.Cloudinary, err = CloudinaryCredentials(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret); err != nil {
			return fail(err)
		}
		logger.Info("Cloudinary configured successfully")
	}

	if cfg.MongoEnabled() {
		if clients.MongoDB, err = MongoDBConnect(ctx, cfg.MongoDBURI, cfg.MongoDBPassword); err != nil {
			return fail(err)
		}
		logger.Info("Connected to MongoDB successfully")
	}

	// cache and notifications degrade to in-process fallbacks
	if cfg.RedisURL != "" {
		redisCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		clients.Redis, err = cache.Connect(redisCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory cache", "error", err)
		} else {
			logger.Info("Connected to Redis successfully")
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		if clients.Kafka, err = notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicEvents); err != nil {
			logger.Warn("Kafka unavailable, logging notifications instead", "error", err)
		} else {
			logger.Info("Kafka publisher configured", "topic", cfg.KafkaTopicEvents)
		}
	}

	return clients, nil
}

// Close releases every open client, logging failures.
func (cl *Clients) Close(logger *slog.Logger) {
	if cl.Kafka != nil {
		if err := cl.Kafka.Close(); err != nil {
			logger.Error("Error closing Kafka writer", "error", err)
		}
	}
	if cl.Redis != nil {
		if err := cl.Redis.Close(); err != nil {
			logger.Error("Error closing Redis client", "error", err)
		}
	}
	if cl.MongoDB != nil {
		if err := MongoDBDisconnect(cl.MongoDB); err != nil {
			logger.Error("Error disconnecting from MongoDB", "error", err)
		}
	}
	if cl.Postgres != nil {
		if sqlDB, err := cl.Postgres.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Error("Error closing Postgres pool", "error", err)
			}
		}
	}
	cl.Supabase = nil
}

func InitSupabase(url, key string) (*supabase.Client, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Supabase: %w", err)
	}
	return client, nil
}

func PostgresConnect(dsn string, verbose bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get Postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	return db, nil
}

func MongoDBConnect(ctx context.Context, uri, password string) (*mongo.Client, error) {
	fullURI := strings.Replace(uri, "<password>", password, 1)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fullURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func MongoDBDisconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}

func CloudinaryCredentials(cloudName, apiKey, apiSecret string) (*cloudinary.Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return cld, nil
}
