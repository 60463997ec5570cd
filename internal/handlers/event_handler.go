package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/helpers"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/services"
)

// submission is the JSON form of a create or update request. Multipart
// requests carry the same two fields as form values plus one file per slot.
type submission struct {
	Event  models.EventInput  `json:"event"`
	Status models.EventStatus `json:"status"`
}

func readSubmission(c *gin.Context) (models.EventInput, models.EventStatus, []models.FileUpload, error) {
	var sub submission
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&sub); err != nil {
			return sub.Event, "", nil, models.NewValidationError("", "invalid request payload")
		}
		return sub.Event, sub.Status, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return sub.Event, "", nil, models.NewValidationError("", "invalid multipart form")
	}
	if raw := firstValue(form.Value["event"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &sub.Event); err != nil {
			return sub.Event, "", nil, models.NewValidationError("event", "invalid event payload")
		}
	}
	sub.Status = models.EventStatus(firstValue(form.Value["status"]))

	var files []models.FileUpload
	for _, slot := range models.DocumentSlots {
		headers := form.File[slot.Name]
		if len(headers) == 0 {
			continue
		}
		header := headers[0]
		f, err := header.Open()
		if err != nil {
			return sub.Event, "", nil, fmt.Errorf("open %s: %w", slot.Name, err)
		}
		// one byte over the limit is enough for CheckPolicy to reject it
		data, err := io.ReadAll(io.LimitReader(f, models.MaxDocumentBytes+1))
		f.Close()
		if err != nil {
			return sub.Event, "", nil, fmt.Errorf("read %s: %w", slot.Name, err)
		}
		files = append(files, models.FileUpload{
			Slot:     slot.Name,
			Filename: header.Filename,
			Data:     data,
		})
	}
	return sub.Event, sub.Status, files, nil
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func ListPublicEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := es.ListPublic(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(events, 1, len(events), len(events)))
	}
}

// GetEvent also records a page view for approved events when engagement
// tracking is on. Anonymous visitors get a session cookie for deduplication.
func GetEvent(es *services.EventService, eng *services.EngagementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		actor := actorFrom(c)
		event, err := es.Get(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}

		if eng != nil && eng.Enabled() {
			sessionID, err := c.Cookie(helpers.SessionCookie)
			if err != nil || sessionID == "" {
				sessionID = uuid.NewString()
				c.SetCookie(helpers.SessionCookie, sessionID, 3600*24*30, "/", "", false, true)
			}
			eng.TrackView(c.Request.Context(), event, actor, sessionID, c.ClientIP(), c.Request.UserAgent())
		}

		c.JSON(http.StatusOK, models.SuccessResponse(event, ""))
	}
}

func MyEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if actor == nil {
			respondError(c, models.ErrUnauthorized)
			return
		}
		events, err := es.ListByOwner(c.Request.Context(), actor.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(events, 1, len(events), len(events)))
	}
}

func CreateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		input, status, files, err := readSubmission(c)
		if err != nil {
			respondError(c, err)
			return
		}
		event, err := es.Submit(c.Request.Context(), actorFrom(c), uuid.Nil, input, status, files)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(event, submitMessage(event.Status)))
	}
}

func UpdateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		input, status, files, err := readSubmission(c)
		if err != nil {
			respondError(c, err)
			return
		}
		event, err := es.Submit(c.Request.Context(), actorFrom(c), id, input, status, files)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, submitMessage(event.Status)))
	}
}

func submitMessage(status models.EventStatus) string {
	if status == models.StatusDraft {
		return "draft saved"
	}
	return "event submitted for approval"
}

func DeleteEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := es.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "event deleted successfully"))
	}
}

func EventDocuments(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		completeness, err := es.Completeness(c.Request.Context(), actorFrom(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(completeness, ""))
	}
}
