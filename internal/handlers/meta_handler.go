package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
)

func Health(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"service": service,
		})
	}
}

// Badges serves the label and variant lookup for statuses and roles, plus the
// document slot catalogue.
func Badges() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"badges": models.BadgeTable(),
			"slots":  models.DocumentSlots,
		}, ""))
	}
}
