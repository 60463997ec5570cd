package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/helpers"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/services"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/session"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if identity, ok := session.FromContext(c.Request.Context()); ok {
			attrs = append(attrs, "user_id", identity.UserID)
		}
		logger.Info("HTTP Request", attrs...)
	}
}

// ErrorHandler logs errors attached with c.Error. Handlers usually write
// their own response; a generic 500 is sent only when nothing was written.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		requestID, _ := c.Get("request_id")
		for _, err := range c.Errors {
			logger.Error("Request error",
				"request_id", requestID,
				"error", err.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
		}

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success":    false,
				"error":      "internal server error",
				"request_id": requestID,
			})
		}
	}
}

// Authenticator resolves the caller from the session cookies. An expired
// access token is renewed once with the refresh cookie.
type Authenticator struct {
	sessions *session.Store
	users    *services.UserService
	logger   *slog.Logger
	secure   bool
}

func NewAuthenticator(sessions *session.Store, users *services.UserService, logger *slog.Logger, secure bool) *Authenticator {
	return &Authenticator{sessions: sessions, users: users, logger: logger, secure: secure}
}

func (a *Authenticator) authenticate(c *gin.Context) (*session.Identity, string, error) {
	ctx := c.Request.Context()
	token := helpers.AccessToken(c)

	identity, err := a.sessions.Identify(ctx, token)
	if err == nil {
		return identity, token, nil
	}
	if token != "" && !helpers.IsExpired(err) {
		return nil, "", err
	}

	refreshToken, cookieErr := c.Cookie(helpers.RefreshTokenCookie)
	if cookieErr != nil || refreshToken == "" {
		return nil, "", err
	}
	tokens, refreshErr := a.users.RefreshToken(ctx, refreshToken)
	if refreshErr != nil {
		a.logger.WarnContext(ctx, "Token refresh failed", "error", refreshErr)
		return nil, "", refreshErr
	}
	helpers.SetSessionCookies(c, tokens, a.secure)
	a.logger.InfoContext(ctx, "Token refreshed successfully",
		"user_id", tokens.User.ID,
		"expires_in", tokens.ExpiresIn,
	)

	identity, err = a.sessions.Identify(ctx, tokens.AccessToken)
	if err != nil {
		return nil, "", err
	}
	return identity, tokens.AccessToken, nil
}

func attach(c *gin.Context, identity *session.Identity, token string) {
	ctx := models.WithAccessToken(c.Request.Context(), token)
	ctx = session.WithIdentity(ctx, identity)
	c.Request = c.Request.WithContext(ctx)
	c.Set("user", identity)
}

// Required rejects requests without a valid session.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, token, err := a.authenticate(c)
		if err != nil {
			message := "invalid or expired session"
			if errors.Is(err, models.ErrUnauthorized) && helpers.AccessToken(c) == "" {
				message = "authentication required"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse(message))
			return
		}
		attach(c, identity, token)
		c.Next()
	}
}

// Optional attaches the identity when there is one and lets anonymous
// requests through.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, token, err := a.authenticate(c); err == nil {
			attach(c, identity, token)
		}
		c.Next()
	}
}

// RequireAdmin must run after Required.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := session.FromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("authentication required"))
			return
		}
		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse("admin access required"))
			return
		}
		c.Next()
	}
}
