package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/session"
)

// EngagementService tracks event page views and saved events. Both live in
// MongoDB and are optional; a nil repo turns the feature off.
type EngagementService struct {
	viewsRepo models.EventViewsRepo
	savedRepo models.SavedEventsRepo
	eventRepo models.EventRepo
	logger    *slog.Logger
}

func NewEngagementService(viewsRepo models.EventViewsRepo, savedRepo models.SavedEventsRepo, eventRepo models.EventRepo, logger *slog.Logger) *EngagementService {
	return &EngagementService{
		viewsRepo: viewsRepo,
		savedRepo: savedRepo,
		eventRepo: eventRepo,
		logger:    logger,
	}
}

func (es *EngagementService) Enabled() bool {
	return es.viewsRepo != nil && es.savedRepo != nil
}

// TrackView records a view of an approved event. Errors are logged and
// swallowed so a page view never fails because of tracking.
func (es *EngagementService) TrackView(ctx context.Context, event *models.Event, actor *session.Identity, sessionID, ip, userAgent string) {
	if es.viewsRepo == nil || event == nil || event.Status != models.StatusApproved || sessionID == "" {
		return
	}
	view := &models.EventView{
		EventID:   event.ID.String(),
		OwnerID:   event.UserID.String(),
		SessionID: sessionID,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if actor != nil {
		uid := actor.UserID.String()
		view.UserID = &uid
	}
	if err := es.viewsRepo.TrackEventView(ctx, view); err != nil {
		es.logger.WarnContext(ctx, "failed to track event view", "event_id", event.ID, "error", err)
	}
}

func (es *EngagementService) ViewStats(ctx context.Context, actor *session.Identity, eventID uuid.UUID) (*models.EventViewStats, error) {
	if es.viewsRepo == nil {
		return &models.EventViewStats{EventID: eventID.String()}, nil
	}
	event, err := es.eventRepo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(event.UserID) && !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	return es.viewsRepo.GetEventViewStats(ctx, eventID.String())
}

// Save bookmarks an approved event for the caller.
func (es *EngagementService) Save(ctx context.Context, actor *session.Identity, eventID uuid.UUID) (*models.SavedEvents, error) {
	if actor == nil {
		return nil, models.ErrUnauthorized
	}
	if es.savedRepo == nil {
		return nil, models.ErrNotFound
	}
	event, err := es.eventRepo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.StatusApproved {
		return nil, models.NewValidationError("event_id", "only approved events can be saved")
	}
	return es.savedRepo.SaveEvent(ctx, actor.UserID, eventID)
}

func (es *EngagementService) Unsave(ctx context.Context, actor *session.Identity, eventID uuid.UUID) error {
	if actor == nil {
		return models.ErrUnauthorized
	}
	if es.savedRepo == nil {
		return nil
	}
	return es.savedRepo.UnsaveEvent(ctx, actor.UserID, eventID)
}

// Saved lists the caller's saved events that are still approved, most
// recently saved first.
func (es *EngagementService) Saved(ctx context.Context, actor *session.Identity) ([]*models.Event, error) {
	if actor == nil {
		return nil, models.ErrUnauthorized
	}
	if es.savedRepo == nil {
		return []*models.Event{}, nil
	}
	saved, err := es.savedRepo.GetSavedEvents(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	items := make([]models.SavedItem, 0, len(saved.Items))
	for _, item := range saved.Items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].AddedAt.After(items[j].AddedAt) })

	events := make([]*models.Event, 0, len(items))
	for _, item := range items {
		id, err := uuid.Parse(item.EventID)
		if err != nil {
			continue
		}
		event, err := es.eventRepo.GetEvent(ctx, id)
		if err != nil {
			es.logger.DebugContext(ctx, "saved event unavailable", "event_id", item.EventID, "error", err)
			continue
		}
		if event.Status == models.StatusApproved {
			events = append(events, event)
		}
	}
	return events, nil
}
