package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/cache"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/notify"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/session"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/workflow"
)

type EventServiceConfig struct {
	Location       *time.Location
	PublicPageSize int
	PublicCacheTTL time.Duration
}

type EventService struct {
	eventRepo    models.EventRepo
	scheduleRepo models.ScheduleRepo
	userRepo     models.UserRepo
	attachments  *AttachmentService
	cache        cache.Cache
	publisher    notify.Publisher
	logger       *slog.Logger
	cfg          EventServiceConfig
	now          func() time.Time
}

func NewEventService(
	eventRepo models.EventRepo,
	scheduleRepo models.ScheduleRepo,
	userRepo models.UserRepo,
	attachments *AttachmentService,
	cache cache.Cache,
	publisher notify.Publisher,
	logger *slog.Logger,
	cfg EventServiceConfig,
) *EventService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PublicPageSize <= 0 {
		cfg.PublicPageSize = 9
	}
	return &EventService{
		eventRepo:    eventRepo,
		scheduleRepo: scheduleRepo,
		userRepo:     userRepo,
		attachments:  attachments,
		cache:        cache,
		publisher:    publisher,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (es *EventService) today() string {
	return es.now().In(es.cfg.Location).Format(models.DateLayout)
}

func (es *EventService) publicKey() string {
	return cache.PublicEventsKey + ":" + es.today()
}

// Submit saves an owner's event as draft or pending. id is uuid.Nil for a new
// event. A pending submission must be complete, counting the attached files;
// when it is not, nothing is uploaded or written.
func (es *EventService) Submit(ctx context.Context, actor *session.Identity, id uuid.UUID, input models.EventInput, target models.EventStatus, files []models.FileUpload) (*models.Event, error) {
	if actor == nil {
		return nil, models.ErrUnauthorized
	}
	if target != models.StatusDraft && target != models.StatusPending {
		return nil, models.NewValidationError("status", "must be rascunho or pendente")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	event := &models.Event{}
	var current models.EventStatus
	if id != uuid.Nil {
		existing, err := es.eventRepo.GetEvent(ctx, id)
		if err != nil {
			return nil, err
		}
		if !actor.Owns(existing.UserID) {
			return nil, models.ErrForbidden
		}
		event = existing
		current = existing.Status
	}

	status, err := workflow.Transition(current, target, workflow.Actor{Owner: true})
	if err != nil {
		return nil, err
	}

	input.Apply(event)

	incoming, err := es.attachments.Check(files)
	if err != nil {
		return nil, err
	}
	if status == models.StatusPending {
		if err := event.ValidateForApproval(incoming); err != nil {
			return nil, err
		}
	}

	if err := es.attachments.UploadAll(ctx, event, files); err != nil {
		return nil, err
	}

	event.Status = status
	var stored *models.Event
	if id == uuid.Nil {
		event.ID = uuid.New()
		event.UserID = actor.UserID
		stored, err = es.eventRepo.InsertEvent(ctx, event)
	} else {
		patch := event.Row()
		delete(patch, "id")
		delete(patch, "user_id")
		stored, err = es.eventRepo.UpdateEvent(ctx, id, patch)
	}
	if err != nil {
		es.logger.ErrorContext(ctx, "failed to persist event", "event_id", event.ID, "error", err)
		return nil, err
	}

	es.logger.InfoContext(ctx, "event submitted",
		"event_id", stored.ID,
		"user_id", actor.UserID,
		"from", current,
		"to", stored.Status,
		"files", len(files),
	)
	es.afterTransition(ctx, stored, current, actor.UserID)
	return stored, nil
}

// Decide applies an administrator's decision to a pending event and returns
// the updated record with freshly computed statistics.
func (es *EventService) Decide(ctx context.Context, actor *session.Identity, id uuid.UUID, decision models.EventStatus) (*models.Event, workflow.Stats, error) {
	if !actor.IsAdmin() {
		return nil, workflow.Stats{}, models.ErrForbidden
	}
	if decision != models.StatusApproved && decision != models.StatusRejected {
		return nil, workflow.Stats{}, models.NewValidationError("decision", "must be aprovado or rejeitado")
	}

	event, err := es.eventRepo.GetEvent(ctx, id)
	if err != nil {
		return nil, workflow.Stats{}, err
	}
	status, err := workflow.Transition(event.Status, decision, workflow.Actor{Admin: true})
	if err != nil {
		return nil, workflow.Stats{}, err
	}

	updated, err := es.eventRepo.UpdateEvent(ctx, id, map[string]interface{}{"status": status})
	if err != nil {
		return nil, workflow.Stats{}, err
	}

	es.logger.InfoContext(ctx, "event decided",
		"event_id", id,
		"admin_id", actor.UserID,
		"from", event.Status,
		"to", updated.Status,
	)
	es.afterTransition(ctx, updated, event.Status, actor.UserID)

	stats, err := es.Stats(ctx)
	if err != nil {
		return updated, workflow.Stats{}, err
	}
	return updated, stats, nil
}

// afterTransition drops the cached public listing and publishes the change.
// Failures here are logged only.
func (es *EventService) afterTransition(ctx context.Context, event *models.Event, from models.EventStatus, actorID uuid.UUID) {
	if err := es.cache.Delete(ctx, es.publicKey()); err != nil {
		es.logger.WarnContext(ctx, "failed to invalidate public listing", "error", err)
	}

	payload, err := notify.StatusChanged{
		EventID:    event.ID.String(),
		OwnerID:    event.UserID.String(),
		ActorID:    actorID.String(),
		Titulo:     event.Titulo,
		From:       string(from),
		To:         string(event.Status),
		OccurredAt: es.now().UTC(),
	}.Encode()
	if err != nil {
		es.logger.WarnContext(ctx, "failed to encode notification", "event_id", event.ID, "error", err)
		return
	}
	topic := workflow.TopicFor(event.Status)
	if err := es.publisher.Publish(ctx, topic, payload, event.ID.String()); err != nil {
		es.logger.WarnContext(ctx, "failed to publish notification", "event_id", event.ID, "type", topic, "error", err)
	}
}

// ListPublic returns approved events with a date still ahead, soonest first.
func (es *EventService) ListPublic(ctx context.Context) ([]*models.Event, error) {
	key := es.publicKey()
	var cached []*models.Event
	if found, err := es.cache.Get(ctx, key, &cached); err != nil {
		es.logger.WarnContext(ctx, "public listing cache read failed", "error", err)
	} else if found {
		return cached, nil
	}

	approved, err := es.eventRepo.ListEvents(ctx, models.EventFilter{Status: models.StatusApproved})
	if err != nil {
		return nil, err
	}
	events := models.UpcomingPublic(approved, es.today(), es.cfg.PublicPageSize)

	if err := es.cache.Set(ctx, key, events, es.cfg.PublicCacheTTL); err != nil {
		es.logger.WarnContext(ctx, "public listing cache write failed", "error", err)
	}
	return events, nil
}

func (es *EventService) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Event, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("invalid user ID")
	}
	return es.eventRepo.ListEvents(ctx, models.EventFilter{UserID: userID})
}

// ListAll is the administrator dashboard: every event split by status, plus
// the statistics.
func (es *EventService) ListAll(ctx context.Context, actor *session.Identity) (models.EventPartition, workflow.Stats, error) {
	if !actor.IsAdmin() {
		return models.EventPartition{}, workflow.Stats{}, models.ErrForbidden
	}
	events, err := es.eventRepo.ListEvents(ctx, models.EventFilter{})
	if err != nil {
		return models.EventPartition{}, workflow.Stats{}, err
	}
	users, err := es.userRepo.ListProfiles(ctx)
	if err != nil {
		return models.EventPartition{}, workflow.Stats{}, err
	}
	return models.PartitionEvents(events), workflow.Summarize(events, users), nil
}

func (es *EventService) Stats(ctx context.Context) (workflow.Stats, error) {
	events, err := es.eventRepo.ListEvents(ctx, models.EventFilter{})
	if err != nil {
		return workflow.Stats{}, err
	}
	users, err := es.userRepo.ListProfiles(ctx)
	if err != nil {
		return workflow.Stats{}, err
	}
	return workflow.Summarize(events, users), nil
}

// Get returns an approved event to anyone; other statuses only to the owner
// or an administrator. actor may be nil.
func (es *EventService) Get(ctx context.Context, actor *session.Identity, id uuid.UUID) (*models.Event, error) {
	event, err := es.eventRepo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status == models.StatusApproved || actor.Owns(event.UserID) || actor.IsAdmin() {
		return event, nil
	}
	return nil, models.ErrNotFound
}

func (es *EventService) Completeness(ctx context.Context, actor *session.Identity, id uuid.UUID) (models.DocumentCompleteness, error) {
	event, err := es.eventRepo.GetEvent(ctx, id)
	if err != nil {
		return models.DocumentCompleteness{}, err
	}
	if !actor.Owns(event.UserID) && !actor.IsAdmin() {
		return models.DocumentCompleteness{}, models.ErrForbidden
	}
	return event.Completeness(), nil
}

// Delete removes an event and its schedule. Owners may delete until the event
// is approved; administrators always.
func (es *EventService) Delete(ctx context.Context, actor *session.Identity, id uuid.UUID) error {
	event, err := es.eventRepo.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	ownerMayDelete := actor.Owns(event.UserID) && event.Status != models.StatusApproved
	if !ownerMayDelete && !actor.IsAdmin() {
		return models.ErrForbidden
	}

	if err := es.scheduleRepo.DeleteScheduleByEvent(ctx, id); err != nil {
		return err
	}
	if err := es.eventRepo.DeleteEvent(ctx, id); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			es.logger.ErrorContext(ctx, "failed to delete event", "event_id", id, "error", err)
		}
		return err
	}

	es.logger.InfoContext(ctx, "event deleted", "event_id", id, "user_id", actor.UserID, "status", event.Status)
	if event.Status == models.StatusApproved {
		if err := es.cache.Delete(ctx, es.publicKey()); err != nil {
			es.logger.WarnContext(ctx, "failed to invalidate public listing", "error", err)
		}
	}
	return nil
}
