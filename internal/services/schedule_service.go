package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/session"
)

type ScheduleService struct {
	scheduleRepo models.ScheduleRepo
	eventRepo    models.EventRepo
}

func NewScheduleService(scheduleRepo models.ScheduleRepo, eventRepo models.EventRepo) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		eventRepo:    eventRepo,
	}
}

func (ss *ScheduleService) ownedEvent(ctx context.Context, actor *session.Identity, eventID uuid.UUID) (*models.Event, error) {
	event, err := ss.eventRepo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(event.UserID) {
		return nil, models.ErrForbidden
	}
	return event, nil
}

// checkInput validates an entry against its event. Start and end times are
// not compared.
func checkInput(event *models.Event, in *models.ScheduleInput) error {
	in.Sanitize()
	if err := in.Validate(); err != nil {
		return err
	}
	if !event.HasDate(in.Data) {
		return models.NewValidationError("data", "date is not one of the event dates")
	}
	return nil
}

// List returns the schedule ordered by date, then start time. The schedule of
// an unapproved event is visible to its owner and administrators only.
func (ss *ScheduleService) List(ctx context.Context, actor *session.Identity, eventID uuid.UUID) ([]*models.ScheduleEntry, error) {
	event, err := ss.eventRepo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.StatusApproved && !actor.Owns(event.UserID) && !actor.IsAdmin() {
		return nil, models.ErrNotFound
	}

	entries, err := ss.scheduleRepo.ListSchedule(ctx, eventID)
	if err != nil {
		return nil, err
	}
	models.SortSchedule(entries)
	return entries, nil
}

func (ss *ScheduleService) Grouped(ctx context.Context, actor *session.Identity, eventID uuid.UUID) ([]models.ScheduleDay, error) {
	entries, err := ss.List(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	return models.GroupScheduleByDate(entries), nil
}

func (ss *ScheduleService) Create(ctx context.Context, actor *session.Identity, eventID uuid.UUID, in models.ScheduleInput) (*models.ScheduleEntry, error) {
	event, err := ss.ownedEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	if err := checkInput(event, &in); err != nil {
		return nil, err
	}

	entry := &models.ScheduleEntry{
		ID:              uuid.New(),
		EventoID:        eventID,
		Data:            in.Data,
		HoraInicio:      in.HoraInicio,
		HoraFim:         in.HoraFim,
		Atividade:       in.Atividade,
		Descricao:       in.Descricao,
		LocalEspecifico: in.LocalEspecifico,
		Responsavel:     in.Responsavel,
	}
	return ss.scheduleRepo.InsertScheduleEntry(ctx, entry)
}

func (ss *ScheduleService) Update(ctx context.Context, actor *session.Identity, entryID uuid.UUID, in models.ScheduleInput) (*models.ScheduleEntry, error) {
	entry, err := ss.scheduleRepo.GetScheduleEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	event, err := ss.ownedEvent(ctx, actor, entry.EventoID)
	if err != nil {
		return nil, err
	}
	if err := checkInput(event, &in); err != nil {
		return nil, err
	}
	return ss.scheduleRepo.UpdateScheduleEntry(ctx, entryID, in.Row())
}

func (ss *ScheduleService) Delete(ctx context.Context, actor *session.Identity, entryID uuid.UUID) error {
	entry, err := ss.scheduleRepo.GetScheduleEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if _, err := ss.ownedEvent(ctx, actor, entry.EventoID); err != nil {
		return err
	}
	return ss.scheduleRepo.DeleteScheduleEntry(ctx, entryID)
}
