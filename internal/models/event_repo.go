package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

type EventFilter struct {
	Status EventStatus
	UserID uuid.UUID
}

// EventRepo lists newest-created first.
type EventRepo interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error)
	InsertEvent(ctx context.Context, event *Event) (*Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

func decodeRows[T any](raw []byte) ([]*T, error) {
	var rows []*T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rows: %w", err)
	}
	return rows, nil
}

func firstRow[T any](raw []byte) (*T, error) {
	rows, err := decodeRows[T](raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

func (su *SupabaseRepo) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(EventsTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, repoErr("get event", err)
	}
	return firstRow[Event](raw)
}

func (su *SupabaseRepo) ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error) {
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	query := client.From(EventsTable).Select("*", "", false)
	if filter.Status != "" {
		query = query.Eq("status", string(filter.Status))
	}
	if filter.UserID != uuid.Nil {
		query = query.Eq("user_id", filter.UserID.String())
	}

	raw, _, err := query.Order("created_at", &postgrest.OrderOpts{Ascending: false}).Execute()
	if err != nil {
		return nil, repoErr("list events", err)
	}
	return decodeRows[Event](raw)
}

func (su *SupabaseRepo) InsertEvent(ctx context.Context, event *Event) (*Event, error) {
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(EventsTable).
		Insert(event.Row(), false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, repoErr("insert event", err)
	}
	return firstRow[Event](raw)
}

func (su *SupabaseRepo) UpdateEvent(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*Event, error) {
	if len(patch) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(EventsTable).
		Update(patch, "representation", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, repoErr("update event", err)
	}
	return firstRow[Event](raw)
}

func (su *SupabaseRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	client, err := su.client(ctx)
	if err != nil {
		return err
	}

	_, count, err := client.From(EventsTable).Delete("", "exact").Eq("id", id.String()).Execute()
	if err != nil {
		return repoErr("delete event", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
