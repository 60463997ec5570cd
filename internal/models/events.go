package models

import (
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/helpers"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
	MaxPhotos   = 3
)

type Event struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid" json:"user_id"`

	// BASIC DATA
	Titulo            string         `gorm:"column:titulo" json:"titulo" submit:"required"`
	DescricaoEvento   string         `gorm:"column:descricao_evento" json:"descricao_evento"`
	Local             string         `gorm:"column:local" json:"local" submit:"required"`
	EnderecoCompleto  string         `gorm:"column:endereco_completo" json:"endereco_completo" submit:"required"`
	TipoLocal         string         `gorm:"column:tipo_local" json:"tipo_local" submit:"required"`
	Datas             pq.StringArray `gorm:"column:datas;type:text[]" json:"datas"`
	HoraInicio        string         `gorm:"column:hora_inicio" json:"hora_inicio" submit:"required"`
	HoraFim           string         `gorm:"column:hora_fim" json:"hora_fim" submit:"required"`
	EstimativaPublico *int           `gorm:"column:estimativa_publico" json:"estimativa_publico"`

	// PROMOTER
	PromotorNome     string `gorm:"column:promotor_nome" json:"promotor_nome" submit:"required"`
	PromotorCPF      string `gorm:"column:promotor_cpf" json:"promotor_cpf" submit:"required"`
	PromotorTelefone string `gorm:"column:promotor_telefone" json:"promotor_telefone" submit:"required"`
	PromotorEmail    string `gorm:"column:promotor_email" json:"promotor_email" submit:"required"`

	// CHARACTERISTICS
	Musica            bool           `gorm:"column:musica" json:"musica"`
	ModalidadeMusica  pq.StringArray `gorm:"column:modalidade_musica;type:text[]" json:"modalidade_musica"`
	FinsLucrativos    bool           `gorm:"column:fins_lucrativos" json:"fins_lucrativos"`
	Ingressos         bool           `gorm:"column:ingressos" json:"ingressos"`
	FechamentoRua     bool           `gorm:"column:fechamento_rua" json:"fechamento_rua"`
	AutorizacaoSonora bool           `gorm:"column:autorizacao_sonora" json:"autorizacao_sonora"`

	// LINKS
	InstagramURL string `gorm:"column:instagram_url" json:"instagram_url"`
	LinkOficial  string `gorm:"column:link_oficial" json:"link_oficial"`

	Status EventStatus `gorm:"column:status" json:"status"`

	// MEDIA & DOCUMENTS
	BannerURL                  string `gorm:"column:banner_url" json:"banner_url"`
	Foto1URL                   string `gorm:"column:foto1_url" json:"foto1_url"`
	Foto2URL                   string `gorm:"column:foto2_url" json:"foto2_url"`
	Foto3URL                   string `gorm:"column:foto3_url" json:"foto3_url"`
	RequerimentoAutorizacaoURL string `gorm:"column:requerimento_autorizacao_url" json:"requerimento_autorizacao_url"`
	ProjetoEventoURL           string `gorm:"column:projeto_evento_url" json:"projeto_evento_url"`
	PlantaLocalURL             string `gorm:"column:planta_local_url" json:"planta_local_url"`
	AvcbBombeirosURL           string `gorm:"column:avcb_bombeiros_url" json:"avcb_bombeiros_url"`
	ApoliceSeguroURL           string `gorm:"column:apolice_seguro_url" json:"apolice_seguro_url"`
	PlanoSegurancaURL          string `gorm:"column:plano_seguranca_url" json:"plano_seguranca_url"`
	AlvaraFuncionamentoURL     string `gorm:"column:alvara_funcionamento_url" json:"alvara_funcionamento_url"`
	AutorizacaoSonoraDocURL    string `gorm:"column:autorizacao_sonora_doc_url" json:"autorizacao_sonora_doc_url"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Event) TableName() string {
	return EventsTable
}

// EventInput is the owner-editable part of an event. Status, ownership and
// document URLs are never taken from the client.
type EventInput struct {
	Titulo            string   `json:"titulo"`
	DescricaoEvento   string   `json:"descricao_evento"`
	Local             string   `json:"local"`
	EnderecoCompleto  string   `json:"endereco_completo"`
	TipoLocal         string   `json:"tipo_local"`
	Datas             []string `json:"datas" validate:"dive,datetime=2006-01-02"`
	HoraInicio        string   `json:"hora_inicio"`
	HoraFim           string   `json:"hora_fim"`
	EstimativaPublico *int     `json:"estimativa_publico"`
	PromotorNome      string   `json:"promotor_nome"`
	PromotorCPF       string   `json:"promotor_cpf"`
	PromotorTelefone  string   `json:"promotor_telefone"`
	PromotorEmail     string   `json:"promotor_email"`
	Musica            bool     `json:"musica"`
	ModalidadeMusica  []string `json:"modalidade_musica"`
	FinsLucrativos    bool     `json:"fins_lucrativos"`
	Ingressos         bool     `json:"ingressos"`
	FechamentoRua     bool     `json:"fechamento_rua"`
	AutorizacaoSonora bool     `json:"autorizacao_sonora"`
	InstagramURL      string   `json:"instagram_url"`
	LinkOficial       string   `json:"link_oficial"`
}

// Apply copies the input onto e, trimming text fields. Music modalities are
// dropped when the event has no music.
func (in EventInput) Apply(e *Event) {
	e.Titulo = helpers.StringTrim(in.Titulo)
	e.DescricaoEvento = helpers.StringTrim(in.DescricaoEvento)
	e.Local = helpers.StringTrim(in.Local)
	e.EnderecoCompleto = helpers.StringTrim(in.EnderecoCompleto)
	e.TipoLocal = helpers.StringTrim(in.TipoLocal)
	e.Datas = pq.StringArray(helpers.RemoveDuplicates(in.Datas))
	sort.Strings(e.Datas)
	e.HoraInicio = CanonicalClock(in.HoraInicio)
	e.HoraFim = CanonicalClock(in.HoraFim)
	e.EstimativaPublico = in.EstimativaPublico
	e.PromotorNome = helpers.StringTrim(in.PromotorNome)
	e.PromotorCPF = helpers.StringTrim(in.PromotorCPF)
	e.PromotorTelefone = helpers.StringTrim(in.PromotorTelefone)
	e.PromotorEmail = helpers.StringTrim(in.PromotorEmail)
	e.Musica = in.Musica
	e.ModalidadeMusica = pq.StringArray{}
	if in.Musica {
		e.ModalidadeMusica = pq.StringArray(helpers.RemoveDuplicates(in.ModalidadeMusica))
	}
	e.FinsLucrativos = in.FinsLucrativos
	e.Ingressos = in.Ingressos
	e.FechamentoRua = in.FechamentoRua
	e.AutorizacaoSonora = in.AutorizacaoSonora
	e.InstagramURL = helpers.StringTrim(in.InstagramURL)
	e.LinkOficial = helpers.StringTrim(in.LinkOficial)
}

// Validate checks the input shape only; completeness is left to
// ValidateForApproval so drafts can be saved half-filled.
func (in EventInput) Validate() error {
	if err := Validate.Struct(in); err != nil {
		return firstValidationError(err)
	}
	if in.EstimativaPublico != nil && *in.EstimativaPublico < 0 {
		return NewValidationError("estimativa_publico", "must not be negative")
	}
	return nil
}

var submitValidate = newSubmitValidator()

func newSubmitValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("submit")
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// ParseClock accepts HH:MM and the HH:MM:SS form Postgres returns for time columns.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("15:04:05", s)
}

// CanonicalClock trims s and rewrites a parseable time as zero-padded HH:MM.
// Unparseable text is returned trimmed so validation can report it.
func CanonicalClock(s string) string {
	s = helpers.StringTrim(s)
	t, err := ParseClock(s)
	if err != nil {
		return s
	}
	return t.Format(ClockLayout)
}

// ValidateForApproval checks everything an event needs before it may become
// pending. incoming lists slots whose files are part of the same submission and
// count as present. The first failure is returned.
func (e *Event) ValidateForApproval(incoming map[string]bool) error {
	if err := submitValidate.Struct(e); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return NewValidationError(errs[0].Field(), "required field is missing")
		}
		return err
	}

	if len(e.Datas) == 0 {
		return NewValidationError("datas", "at least one date must be listed")
	}
	for _, d := range e.Datas {
		if _, err := time.Parse(DateLayout, d); err != nil {
			return NewValidationError("datas", "invalid date "+d)
		}
	}

	start, err := ParseClock(e.HoraInicio)
	if err != nil {
		return NewValidationError("hora_inicio", "invalid time")
	}
	end, err := ParseClock(e.HoraFim)
	if err != nil {
		return NewValidationError("hora_fim", "invalid time")
	}
	if !start.Before(end) {
		return NewValidationError("hora_fim", "end time must be after start time")
	}

	if e.EstimativaPublico != nil && *e.EstimativaPublico < 0 {
		return NewValidationError("estimativa_publico", "must not be negative")
	}

	for _, slot := range e.RequiredSlots() {
		if e.SlotURL(slot.Name) == "" && !incoming[slot.Name] {
			return NewValidationError(slot.Name, "mandatory document is missing")
		}
	}
	return nil
}

// NextDate returns the earliest listed date on or after today.
func (e *Event) NextDate(today string) (string, bool) {
	next := ""
	for _, d := range e.Datas {
		if len(d) != len(DateLayout) || d < today {
			continue
		}
		if next == "" || d < next {
			next = d
		}
	}
	return next, next != ""
}

// UpcomingPublic keeps approved events with at least one date on or after today,
// ordered by that date and capped at limit.
func UpcomingPublic(events []*Event, today string, limit int) []*Event {
	type ranked struct {
		event *Event
		next  string
	}
	var out []ranked
	for _, e := range events {
		if e == nil || e.Status != StatusApproved {
			continue
		}
		if next, ok := e.NextDate(today); ok {
			out = append(out, ranked{event: e, next: next})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].next != out[j].next {
			return out[i].next < out[j].next
		}
		return out[i].event.CreatedAt.After(out[j].event.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	res := make([]*Event, len(out))
	for i, r := range out {
		res[i] = r.event
	}
	return res
}

func (e *Event) HasDate(date string) bool {
	for _, d := range e.Datas {
		if d == date {
			return true
		}
	}
	return false
}

// Row is the column map sent to PostgREST. Empty optional text goes out as null.
func (e *Event) Row() map[string]interface{} {
	row := map[string]interface{}{
		"id":                 e.ID,
		"user_id":            e.UserID,
		"titulo":             e.Titulo,
		"descricao_evento":   nullable(e.DescricaoEvento),
		"local":              e.Local,
		"endereco_completo":  e.EnderecoCompleto,
		"tipo_local":         e.TipoLocal,
		"datas":              []string(e.Datas),
		"hora_inicio":        nullable(e.HoraInicio),
		"hora_fim":           nullable(e.HoraFim),
		"estimativa_publico": e.EstimativaPublico,
		"promotor_nome":      e.PromotorNome,
		"promotor_cpf":       e.PromotorCPF,
		"promotor_telefone":  e.PromotorTelefone,
		"promotor_email":     e.PromotorEmail,
		"musica":             e.Musica,
		"modalidade_musica":  []string(e.ModalidadeMusica),
		"fins_lucrativos":    e.FinsLucrativos,
		"ingressos":          e.Ingressos,
		"fechamento_rua":     e.FechamentoRua,
		"autorizacao_sonora": e.AutorizacaoSonora,
		"instagram_url":      nullable(e.InstagramURL),
		"link_oficial":       nullable(e.LinkOficial),
		"status":             e.Status,
	}
	for _, slot := range DocumentSlots {
		row[slot.Column] = nullable(e.SlotURL(slot.Name))
	}
	if e.Datas == nil {
		row["datas"] = []string{}
	}
	if e.ModalidadeMusica == nil {
		row["modalidade_musica"] = []string{}
	}
	return row
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// EventPartition is the admin dashboard split of the full event list.
type EventPartition struct {
	All      []*Event `json:"all"`
	Pending  []*Event `json:"pending"`
	Approved []*Event `json:"approved"`
	Rejected []*Event `json:"rejected"`
}

func PartitionEvents(events []*Event) EventPartition {
	p := EventPartition{
		All:      events,
		Pending:  []*Event{},
		Approved: []*Event{},
		Rejected: []*Event{},
	}
	for _, e := range events {
		switch e.Status {
		case StatusPending:
			p.Pending = append(p.Pending, e)
		case StatusApproved:
			p.Approved = append(p.Approved, e)
		case StatusRejected:
			p.Rejected = append(p.Rejected, e)
		}
	}
	return p
}
