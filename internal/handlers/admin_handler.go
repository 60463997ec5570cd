package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/services"
)

type decisionRequest struct {
	Status models.EventStatus `json:"status" binding:"required"`
}

type roleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

type requestStatusRequest struct {
	StatusPedido models.RequestStatus `json:"status_pedido" binding:"required"`
}

// AdminEvents returns the dashboard: all events split by status and the stats.
func AdminEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		partition, stats, err := es.ListAll(c.Request.Context(), actorFrom(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"events": partition,
			"stats":  stats,
		}, ""))
	}
}

func DecideEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req decisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("status is required"))
			return
		}

		event, stats, err := es.Decide(c.Request.Context(), actorFrom(c), id, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"event": event,
			"stats": stats,
		}, fmt.Sprintf("event %s", event.Status)))
	}
}

func AdminStats(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := es.Stats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(stats, ""))
	}
}

func ListUsers(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := u.ListUsers(c.Request.Context(), actorFrom(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(users, 1, len(users), len(users)))
	}
}

func SetUserRole(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req roleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("role is required"))
			return
		}
		profile, err := u.SetRole(c.Request.Context(), actorFrom(c), id, req.Role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(profile, "role updated"))
	}
}

func SetUserStatus(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req requestStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("status_pedido is required"))
			return
		}
		profile, err := u.SetStatus(c.Request.Context(), actorFrom(c), id, req.StatusPedido)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(profile, "request status updated"))
	}
}

// ExportEvents streams the CSV only once it is fully rendered, so a failure
// still gets a JSON error.
func ExportEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var buf bytes.Buffer
		if err := es.ExportCSV(c.Request.Context(), actorFrom(c), &buf); err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="eventos.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}
}
