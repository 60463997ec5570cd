package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/container"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/handlers"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/middleware"
)

// multipart bodies above this spill to temp files
const maxMultipartMemory = 32 << 20

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := cfg.IsProduction()

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	auth := middleware.NewAuthenticator(container.Sessions, container.UserService, container.Logger, secure)
	events := container.EventService
	schedule := container.ScheduleService
	engagement := container.EngagementService
	users := container.UserService

	// API version 1
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", handlers.Health("agendacity-api"))
		v1.GET("/meta/badges", handlers.Badges())

		v1.POST("/signup", handlers.SignUp(users))
		v1.POST("/login", handlers.Login(users, secure))
		v1.POST("/refresh", handlers.Refresh(users, secure))
		v1.POST("/logout", handlers.Logout(users, secure))
	}

	public := v1.Group("/")
	public.Use(auth.Optional())
	{
		public.GET("/events/public", handlers.ListPublicEvents(events))
		public.GET("/events/:id", handlers.GetEvent(events, engagement))
		public.GET("/events/:id/schedule", handlers.ListSchedule(schedule))
	}

	protected := v1.Group("/")
	protected.Use(auth.Required())
	{
		protected.GET("/profile", handlers.Profile())
		protected.GET("/users/:id", handlers.GetUser(users))
		protected.GET("/me/events", handlers.MyEvents(events))
		protected.GET("/me/saved", handlers.SavedEvents(engagement))

		protected.POST("/events", handlers.CreateEvent(events))
		protected.PUT("/events/:id", handlers.UpdateEvent(events))
		protected.DELETE("/events/:id", handlers.DeleteEvent(events))
		protected.GET("/events/:id/documents", handlers.EventDocuments(events))
		protected.GET("/events/:id/views", handlers.EventViews(engagement))
		protected.POST("/events/:id/save", handlers.SaveEvent(engagement))
		protected.DELETE("/events/:id/save", handlers.UnsaveEvent(engagement))

		protected.POST("/events/:id/schedule", handlers.CreateScheduleEntry(schedule))
		protected.PUT("/schedule/:id", handlers.UpdateScheduleEntry(schedule))
		protected.DELETE("/schedule/:id", handlers.DeleteScheduleEntry(schedule))
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/events", handlers.AdminEvents(events))
		admin.GET("/events/export", handlers.ExportEvents(events))
		admin.POST("/events/:id/decision", handlers.DecideEvent(events))
		admin.GET("/stats", handlers.AdminStats(events))
		admin.GET("/users", handlers.ListUsers(users))
		admin.PATCH("/users/:id/role", handlers.SetUserRole(users))
		admin.PATCH("/users/:id/status", handlers.SetUserStatus(users))
	}

	return r
}
