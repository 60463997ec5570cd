package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

type ScheduleRepo interface {
	ListSchedule(ctx context.Context, eventID uuid.UUID) ([]*ScheduleEntry, error)
	GetScheduleEntry(ctx context.Context, id uuid.UUID) (*ScheduleEntry, error)
	InsertScheduleEntry(ctx context.Context, entry *ScheduleEntry) (*ScheduleEntry, error)
	UpdateScheduleEntry(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*ScheduleEntry, error)
	DeleteScheduleEntry(ctx context.Context, id uuid.UUID) error
	DeleteScheduleByEvent(ctx context.Context, eventID uuid.UUID) error
}

func (su *SupabaseRepo) ListSchedule(ctx context.Context, eventID uuid.UUID) ([]*ScheduleEntry, error) {
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(ScheduleTable).
		Select("*", "", false).
		Eq("evento_id", eventID.String()).
		Order("data", &postgrest.OrderOpts{Ascending: true}).
		Order("hora_inicio", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, repoErr("list schedule", err)
	}
	return decodeRows[ScheduleEntry](raw)
}

func (su *SupabaseRepo) GetScheduleEntry(ctx context.Context, id uuid.UUID) (*ScheduleEntry, error) {
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(ScheduleTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, repoErr("get schedule entry", err)
	}
	return firstRow[ScheduleEntry](raw)
}

func (su *SupabaseRepo) InsertScheduleEntry(ctx context.Context, entry *ScheduleEntry) (*ScheduleEntry, error) {
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	row := ScheduleInput{
		Data:            entry.Data,
		HoraInicio:      entry.HoraInicio,
		HoraFim:         entry.HoraFim,
		Atividade:       entry.Atividade,
		Descricao:       entry.Descricao,
		LocalEspecifico: entry.LocalEspecifico,
		Responsavel:     entry.Responsavel,
	}.Row()
	row["id"] = entry.ID
	row["evento_id"] = entry.EventoID

	raw, _, err := client.From(ScheduleTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, repoErr("insert schedule entry", err)
	}
	return firstRow[ScheduleEntry](raw)
}

func (su *SupabaseRepo) UpdateScheduleEntry(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*ScheduleEntry, error) {
	if len(patch) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(ScheduleTable).
		Update(patch, "representation", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, repoErr("update schedule entry", err)
	}
	return firstRow[ScheduleEntry](raw)
}

func (su *SupabaseRepo) DeleteScheduleEntry(ctx context.Context, id uuid.UUID) error {
	client, err := su.client(ctx)
	if err != nil {
		return err
	}

	_, count, err := client.From(ScheduleTable).Delete("", "exact").Eq("id", id.String()).Execute()
	if err != nil {
		return repoErr("delete schedule entry", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (su *SupabaseRepo) DeleteScheduleByEvent(ctx context.Context, eventID uuid.UUID) error {
	client, err := su.client(ctx)
	if err != nil {
		return err
	}

	if _, _, err := client.From(ScheduleTable).Delete("", "").Eq("evento_id", eventID.String()).Execute(); err != nil {
		return repoErr("delete event schedule", err)
	}
	return nil
}
