package workflow

import (
	"math"

	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
)

// Stats is a read model. It is recomputed on every request and never stored.
type Stats struct {
	TotalEventos      int `json:"total_eventos"`
	EventosPendentes  int `json:"eventos_pendentes"`
	EventosAprovados  int `json:"eventos_aprovados"`
	EventosRejeitados int `json:"eventos_rejeitados"`
	TotalUsuarios     int `json:"total_usuarios"`
	UsuariosPendentes int `json:"usuarios_pendentes"`
	// TaxaAprovacao is the rounded percentage of approved events over all events.
	TaxaAprovacao int `json:"taxa_aprovacao"`
}

func Summarize(events []*models.Event, users []*models.Profile) Stats {
	var s Stats
	for _, e := range events {
		if e == nil {
			continue
		}
		s.TotalEventos++
		switch e.Status {
		case models.StatusPending:
			s.EventosPendentes++
		case models.StatusApproved:
			s.EventosAprovados++
		case models.StatusRejected:
			s.EventosRejeitados++
		}
	}
	for _, u := range users {
		if u == nil {
			continue
		}
		s.TotalUsuarios++
		if u.StatusPedido == models.RequestPending {
			s.UsuariosPendentes++
		}
	}
	if s.TotalEventos > 0 {
		s.TaxaAprovacao = int(math.Round(float64(s.EventosAprovados) / float64(s.TotalEventos) * 100))
	}
	return s
}
