package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/services"
)

func SaveEvent(eng *services.EngagementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		saved, err := eng.Save(c.Request.Context(), actorFrom(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(saved, "event saved"))
	}
}

func UnsaveEvent(eng *services.EngagementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := eng.Unsave(c.Request.Context(), actorFrom(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "event removed from saved"))
	}
}

func SavedEvents(eng *services.EngagementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := eng.Saved(c.Request.Context(), actorFrom(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(events, 1, len(events), len(events)))
	}
}

func EventViews(eng *services.EngagementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		stats, err := eng.ViewStats(c.Request.Context(), actorFrom(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(stats, ""))
	}
}
