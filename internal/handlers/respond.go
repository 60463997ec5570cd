package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/session"
)

// statusFor maps service errors onto HTTP status codes and the message shown
// to the client. Repository failures never leak their cause.
func statusFor(err error) (int, string) {
	var (
		verr *models.ValidationError
		terr *models.TransitionError
		uerr *models.UploadError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &terr):
		return http.StatusConflict, terr.Error()
	case errors.As(err, &uerr):
		return http.StatusBadGateway, "failed to upload " + uerr.Slot
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not found"
	}
	return http.StatusInternalServerError, "internal server error"
}

// respondError writes the error envelope. Server-side failures are also
// attached to the context so ErrorHandler logs them with the request id.
func respondError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse(message))
}

func actorFrom(c *gin.Context) *session.Identity {
	identity, _ := session.FromContext(c.Request.Context())
	return identity
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse("invalid "+name+" format"))
		return uuid.Nil, false
	}
	return id, true
}
