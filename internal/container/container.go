package container

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/cache"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/config"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/connect"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/helpers"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/notify"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/services"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/session"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/storage"
)

// Container holds all application dependencies
type Container struct {
	Logger   *slog.Logger
	Config   *config.Config
	Verifier *helpers.TokenVerifier
	Sessions *session.Store

	UserService       *services.UserService
	EventService      *services.EventService
	ScheduleService   *services.ScheduleService
	EngagementService *services.EngagementService

	// nil when engagement tracking is off
	Mongo *models.MongodbRepo

	unsubscribe func()
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, clients *connect.Clients, logger *slog.Logger) (*Container, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	verifier, err := helpers.NewTokenVerifier(ctx, cfg.SupabaseURL, cfg.SupabaseJWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to set up token verification: %w", err)
	}

	supa := models.SupabaseNewRepo(clients.Supabase, cfg.SupabaseURL, cfg.SupabaseAnonKey)

	var (
		eventRepo    models.EventRepo    = supa
		scheduleRepo models.ScheduleRepo = supa
		userRepo     models.UserRepo     = supa
	)
	if clients.Postgres != nil {
		pg := models.PostgresNewRepo(clients.Postgres)
		eventRepo, scheduleRepo, userRepo = pg, pg, pg
	}

	var store storage.ObjectStore
	switch cfg.StorageDriver {
	case storage.DriverCloudinary:
		store = storage.NewCloudinaryStore(clients.Cloudinary, helpers.EventsFolder, path.Join(helpers.EventsFolder, helpers.DocumentsFolder))
	default:
		store = storage.NewSupabaseStore(clients.Supabase.Storage, cfg.SupabaseBucket)
	}

	var publicCache cache.Cache = cache.NewMemoryCache()
	if clients.Redis != nil {
		publicCache = cache.NewRedisCache(clients.Redis)
	}

	var publisher notify.Publisher = notify.NewLoggingPublisher(logger)
	if clients.Kafka != nil {
		publisher = clients.Kafka
	}

	sessions := session.NewStore(verifier, userRepo, supa, cfg.SessionTTL, logger)
	unsubscribe := sessions.OnIdentityChange(func(userID uuid.UUID) {
		logger.Info("identity changed, cached session dropped", "user_id", userID)
	})

	attachments := services.NewAttachmentService(store, logger)
	eventService := services.NewEventService(eventRepo, scheduleRepo, userRepo, attachments, publicCache, publisher, logger, services.EventServiceConfig{
		Location:       loc,
		PublicPageSize: cfg.PublicPageSize,
		PublicCacheTTL: cfg.PublicCacheTTL,
	})

	c := &Container{
		Logger:          logger,
		Config:          cfg,
		Verifier:        verifier,
		Sessions:        sessions,
		UserService:     services.NewUserService(userRepo, supa, sessions, logger),
		EventService:    eventService,
		ScheduleService: services.NewScheduleService(scheduleRepo, eventRepo),
		unsubscribe:     unsubscribe,
	}

	// untyped nils keep Enabled() false when MongoDB is not configured
	if clients.MongoDB != nil {
		c.Mongo = models.MongodbNewRepo(clients.MongoDB)
		c.EngagementService = services.NewEngagementService(c.Mongo, c.Mongo, eventRepo, logger)
	} else {
		c.EngagementService = services.NewEngagementService(nil, nil, eventRepo, logger)
	}
	return c, nil
}

// Close stops background work owned by the container.
func (c *Container) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.Verifier.Close()
}
