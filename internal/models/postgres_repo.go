package models

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostgresRepo talks to the same tables over a direct database connection,
// bypassing PostgREST. It implements EventRepo, ScheduleRepo and UserRepo.
type PostgresRepo struct {
	db *gorm.DB
}

func PostgresNewRepo(db *gorm.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func gormErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return repoErr(op, err)
}

func (r *PostgresRepo) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, gormErr("get event", err)
	}
	return &event, nil
}

func (r *PostgresRepo) ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error) {
	query := r.db.WithContext(ctx).Model(&Event{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != uuid.Nil {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var events []*Event
	if err := query.Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, repoErr("list events", err)
	}
	return events, nil
}

func (r *PostgresRepo) InsertEvent(ctx context.Context, event *Event) (*Event, error) {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, repoErr("insert event", err)
	}
	return event, nil
}

func (r *PostgresRepo) UpdateEvent(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*Event, error) {
	result := r.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		return nil, repoErr("update event", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetEvent(ctx, id)
}

func (r *PostgresRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Event{})
	if result.Error != nil {
		return repoErr("delete event", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListSchedule(ctx context.Context, eventID uuid.UUID) ([]*ScheduleEntry, error) {
	var entries []*ScheduleEntry
	err := r.db.WithContext(ctx).
		Where("evento_id = ?", eventID).
		Order("data ASC").
		Order("hora_inicio ASC").
		Find(&entries).Error
	if err != nil {
		return nil, repoErr("list schedule", err)
	}
	return entries, nil
}

func (r *PostgresRepo) GetScheduleEntry(ctx context.Context, id uuid.UUID) (*ScheduleEntry, error) {
	var entry ScheduleEntry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, gormErr("get schedule entry", err)
	}
	return &entry, nil
}

func (r *PostgresRepo) InsertScheduleEntry(ctx context.Context, entry *ScheduleEntry) (*ScheduleEntry, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, repoErr("insert schedule entry", err)
	}
	return entry, nil
}

func (r *PostgresRepo) UpdateScheduleEntry(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*ScheduleEntry, error) {
	result := r.db.WithContext(ctx).Model(&ScheduleEntry{}).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		return nil, repoErr("update schedule entry", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetScheduleEntry(ctx, id)
}

func (r *PostgresRepo) DeleteScheduleEntry(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ScheduleEntry{})
	if result.Error != nil {
		return repoErr("delete schedule entry", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteScheduleByEvent(ctx context.Context, eventID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("evento_id = ?", eventID).Delete(&ScheduleEntry{}).Error; err != nil {
		return repoErr("delete event schedule", err)
	}
	return nil
}

func (r *PostgresRepo) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var profile Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, gormErr("get profile", err)
	}
	return &profile, nil
}

func (r *PostgresRepo) ListProfiles(ctx context.Context) ([]*Profile, error) {
	var profiles []*Profile
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, repoErr("list profiles", err)
	}
	return profiles, nil
}

func (r *PostgresRepo) InsertProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.GetProfile(ctx, profile.ID)
		}
		return nil, repoErr("insert profile", err)
	}
	return profile, nil
}

func (r *PostgresRepo) UpdateProfile(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*Profile, error) {
	result := r.db.WithContext(ctx).Model(&Profile{}).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		return nil, repoErr("update profile", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetProfile(ctx, id)
}
