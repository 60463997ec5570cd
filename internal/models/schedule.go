package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/helpers"
)

type ScheduleEntry struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventoID        uuid.UUID `gorm:"column:evento_id;type:uuid" json:"evento_id"`
	Data            string    `gorm:"column:data" json:"data"`
	HoraInicio      string    `gorm:"column:hora_inicio" json:"hora_inicio"`
	HoraFim         string    `gorm:"column:hora_fim" json:"hora_fim"`
	Atividade       string    `gorm:"column:atividade" json:"atividade"`
	Descricao       string    `gorm:"column:descricao" json:"descricao"`
	LocalEspecifico string    `gorm:"column:local_especifico" json:"local_especifico"`
	Responsavel     string    `gorm:"column:responsavel" json:"responsavel"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ScheduleEntry) TableName() string {
	return ScheduleTable
}

// ScheduleInput carries the writable fields of an entry. Start and end times
// are not compared with each other.
type ScheduleInput struct {
	Data            string `json:"data" validate:"required"`
	HoraInicio      string `json:"hora_inicio" validate:"required"`
	HoraFim         string `json:"hora_fim" validate:"required"`
	Atividade       string `json:"atividade" validate:"required"`
	Descricao       string `json:"descricao"`
	LocalEspecifico string `json:"local_especifico"`
	Responsavel     string `json:"responsavel"`
}

func (in *ScheduleInput) Sanitize() {
	in.Data = helpers.StringTrim(in.Data)
	in.HoraInicio = CanonicalClock(in.HoraInicio)
	in.HoraFim = CanonicalClock(in.HoraFim)
	in.Atividade = helpers.StringTrim(in.Atividade)
	in.Descricao = helpers.StringTrim(in.Descricao)
	in.LocalEspecifico = helpers.StringTrim(in.LocalEspecifico)
	in.Responsavel = helpers.StringTrim(in.Responsavel)
}

func (in ScheduleInput) Validate() error {
	if err := Validate.Struct(in); err != nil {
		return firstValidationError(err)
	}
	if _, err := time.Parse(DateLayout, in.Data); err != nil {
		return NewValidationError("data", "invalid date")
	}
	if _, err := ParseClock(in.HoraInicio); err != nil {
		return NewValidationError("hora_inicio", "invalid time")
	}
	if _, err := ParseClock(in.HoraFim); err != nil {
		return NewValidationError("hora_fim", "invalid time")
	}
	return nil
}

func (in ScheduleInput) Row() map[string]interface{} {
	return map[string]interface{}{
		"data":             in.Data,
		"hora_inicio":      in.HoraInicio,
		"hora_fim":         in.HoraFim,
		"atividade":        in.Atividade,
		"descricao":        nullable(in.Descricao),
		"local_especifico": nullable(in.LocalEspecifico),
		"responsavel":      nullable(in.Responsavel),
	}
}

// SortSchedule orders entries by date, then start time. Times are compared as
// clock values, so "9:00" and "09:00:00" order like "09:00".
func SortSchedule(entries []*ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Data != entries[j].Data {
			return entries[i].Data < entries[j].Data
		}
		return CanonicalClock(entries[i].HoraInicio) < CanonicalClock(entries[j].HoraInicio)
	})
}

type ScheduleDay struct {
	Data    string           `json:"data"`
	Entries []*ScheduleEntry `json:"entries"`
}

// GroupScheduleByDate expects entries already sorted.
func GroupScheduleByDate(entries []*ScheduleEntry) []ScheduleDay {
	var days []ScheduleDay
	for _, e := range entries {
		if n := len(days); n > 0 && days[n-1].Data == e.Data {
			days[n-1].Entries = append(days[n-1].Entries, e)
			continue
		}
		days = append(days, ScheduleDay{Data: e.Data, Entries: []*ScheduleEntry{e}})
	}
	return days
}
