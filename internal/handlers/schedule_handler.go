package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/services"
)

// ListSchedule returns the event's schedule; ?grouped=true groups it by day.
func ListSchedule(ss *services.ScheduleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := paramID(c, "id")
		if !ok {
			return
		}
		if c.Query("grouped") == "true" {
			days, err := ss.Grouped(c.Request.Context(), actorFrom(c), eventID)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, models.SuccessResponse(days, ""))
			return
		}

		entries, err := ss.List(c.Request.Context(), actorFrom(c), eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(entries, 1, len(entries), len(entries)))
	}
}

func CreateScheduleEntry(ss *services.ScheduleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var in models.ScheduleInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload"))
			return
		}
		entry, err := ss.Create(c.Request.Context(), actorFrom(c), eventID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(entry, "schedule entry created"))
	}
}

func UpdateScheduleEntry(ss *services.ScheduleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var in models.ScheduleInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload"))
			return
		}
		entry, err := ss.Update(c.Request.Context(), actorFrom(c), id, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(entry, "schedule entry updated"))
	}
}

func DeleteScheduleEntry(ss *services.ScheduleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := ss.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "schedule entry deleted"))
	}
}
