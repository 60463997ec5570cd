package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/services"
)

// GetUser returns a profile row. Users can read their own; admins any.
func GetUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := paramID(c, "id")
		if !ok {
			return
		}

		actor := actorFrom(c)
		if actor == nil {
			respondError(c, models.ErrUnauthorized)
			return
		}

		profile, err := u.GetProfile(c.Request.Context(), actor, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(profile, ""))
	}
}
