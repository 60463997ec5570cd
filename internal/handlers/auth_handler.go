package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/helpers"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/services"
)

func SignUp(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload"))
			return
		}

		res, err := u.SignUp(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		user := res.User
		if user.ID == uuid.Nil {
			// autoconfirm returns the user inside the session
			user = res.Session.User
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(gin.H{
			"id":    user.ID,
			"email": user.Email,
		}, "account created"))
	}
}

func Login(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload"))
			return
		}

		tokens, err := u.Login(c.Request.Context(), req)
		if err != nil {
			status, _ := statusFor(err)
			if status == http.StatusUnauthorized {
				c.JSON(status, models.ErrorResponse("invalid email or password"))
				return
			}
			respondError(c, err)
			return
		}

		helpers.SetSessionCookies(c, tokens, secure)
		// tokens stay in cookies
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"user": tokens.User}, "logged in"))
	}
}

func Refresh(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken, _ := c.Cookie(helpers.RefreshTokenCookie)
		tokens, err := u.RefreshToken(c.Request.Context(), refreshToken)
		if err != nil {
			respondError(c, err)
			return
		}
		helpers.SetSessionCookies(c, tokens, secure)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "session refreshed"))
	}
}

// Logout always clears the cookies; a provider failure is only logged.
func Logout(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := helpers.AccessToken(c); token != "" {
			if err := u.Logout(c.Request.Context(), token); err != nil {
				_ = c.Error(err)
			}
		}
		helpers.ClearSessionCookies(c, secure)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "logged out successfully"))
	}
}

func Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if actor == nil {
			respondError(c, models.ErrUnauthorized)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"user_id":  actor.UserID,
			"email":    actor.Email,
			"profile":  actor.Profile,
			"is_admin": actor.IsAdmin(),
		}, ""))
	}
}
