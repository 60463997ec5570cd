package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/session"
)

// EventCSVRow is one line of the administrator export.
type EventCSVRow struct {
	ID                string `csv:"id"`
	Titulo            string `csv:"titulo"`
	Status            string `csv:"status"`
	Local             string `csv:"local"`
	EnderecoCompleto  string `csv:"endereco_completo"`
	Datas             string `csv:"datas"`
	HoraInicio        string `csv:"hora_inicio"`
	HoraFim           string `csv:"hora_fim"`
	EstimativaPublico string `csv:"estimativa_publico"`
	PromotorNome      string `csv:"promotor_nome"`
	PromotorEmail     string `csv:"promotor_email"`
	PromotorTelefone  string `csv:"promotor_telefone"`
	Documentos        string `csv:"documentos"`
	Pendencias        string `csv:"documentos_pendentes"`
	CreatedAt         string `csv:"created_at"`
}

func toCSVRow(e *models.Event) *EventCSVRow {
	c := e.Completeness()
	row := &EventCSVRow{
		ID:               e.ID.String(),
		Titulo:           e.Titulo,
		Status:           string(e.Status),
		Local:            e.Local,
		EnderecoCompleto: e.EnderecoCompleto,
		Datas:            strings.Join(e.Datas, ";"),
		HoraInicio:       e.HoraInicio,
		HoraFim:          e.HoraFim,
		PromotorNome:     e.PromotorNome,
		PromotorEmail:    e.PromotorEmail,
		PromotorTelefone: e.PromotorTelefone,
		Documentos:       fmt.Sprintf("%d/%d", c.Present, c.Total),
		Pendencias:       strings.Join(c.Missing, ";"),
		CreatedAt:        e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if e.EstimativaPublico != nil {
		row.EstimativaPublico = strconv.Itoa(*e.EstimativaPublico)
	}
	return row
}

// ExportCSV writes every event, newest first, to w.
func (es *EventService) ExportCSV(ctx context.Context, actor *session.Identity, w io.Writer) error {
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	events, err := es.eventRepo.ListEvents(ctx, models.EventFilter{})
	if err != nil {
		return err
	}
	rows := make([]*EventCSVRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, toCSVRow(e))
	}
	return gocsv.Marshal(rows, w)
}
