package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/cache"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/helpers"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/session"
	"github.com/supabase-community/gotrue-go/types"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type memEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*models.Event
	lists  int
	clock  time.Time
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: map[uuid.UUID]*models.Event{}, clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func cloneEvent(e *models.Event) *models.Event {
	raw, _ := json.Marshal(e)
	var out models.Event
	_ = json.Unmarshal(raw, &out)
	return &out
}

func (r *memEventRepo) GetEvent(_ context.Context, id uuid.UUID) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *memEventRepo) ListEvents(_ context.Context, filter models.EventFilter) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	var out []*models.Event
	for _, e := range r.events {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.UserID != uuid.Nil && e.UserID != filter.UserID {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memEventRepo) InsertEvent(_ context.Context, event *models.Event) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.CreatedAt.IsZero() {
		r.clock = r.clock.Add(time.Minute)
		event.CreatedAt = r.clock
	}
	r.events[event.ID] = cloneEvent(event)
	return cloneEvent(event), nil
}

func (r *memEventRepo) UpdateEvent(_ context.Context, id uuid.UUID, patch map[string]interface{}) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	raw, _ := json.Marshal(e)
	var row map[string]interface{}
	_ = json.Unmarshal(raw, &row)
	for k, v := range patch {
		row[k] = v
	}
	raw, _ = json.Marshal(row)
	var updated models.Event
	if err := json.Unmarshal(raw, &updated); err != nil {
		return nil, err
	}
	r.events[id] = &updated
	return cloneEvent(&updated), nil
}

func (r *memEventRepo) DeleteEvent(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

type memScheduleRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*models.ScheduleEntry
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{entries: map[uuid.UUID]*models.ScheduleEntry{}}
}

func (r *memScheduleRepo) ListSchedule(_ context.Context, eventID uuid.UUID) ([]*models.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ScheduleEntry
	for _, e := range r.entries {
		if e.EventoID == eventID {
			c := *e
			out = append(out, &c)
		}
	}
	models.SortSchedule(out)
	return out, nil
}

func (r *memScheduleRepo) GetScheduleEntry(_ context.Context, id uuid.UUID) (*models.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (r *memScheduleRepo) InsertScheduleEntry(_ context.Context, entry *models.ScheduleEntry) (*models.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *entry
	r.entries[entry.ID] = &c
	return entry, nil
}

func (r *memScheduleRepo) UpdateScheduleEntry(_ context.Context, id uuid.UUID, patch map[string]interface{}) (*models.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if v, ok := patch["data"].(string); ok {
		e.Data = v
	}
	if v, ok := patch["hora_inicio"].(string); ok {
		e.HoraInicio = v
	}
	if v, ok := patch["hora_fim"].(string); ok {
		e.HoraFim = v
	}
	if v, ok := patch["atividade"].(string); ok {
		e.Atividade = v
	}
	c := *e
	return &c, nil
}

func (r *memScheduleRepo) DeleteScheduleEntry(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *memScheduleRepo) DeleteScheduleByEvent(_ context.Context, eventID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.EventoID == eventID {
			delete(r.entries, id)
		}
	}
	return nil
}

type memUserRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.Profile
}

func newMemUserRepo(profiles ...*models.Profile) *memUserRepo {
	r := &memUserRepo{profiles: map[uuid.UUID]*models.Profile{}}
	for _, p := range profiles {
		c := *p
		r.profiles[p.ID] = &c
	}
	return r
}

func (r *memUserRepo) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *memUserRepo) ListProfiles(_ context.Context) ([]*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Profile
	for _, p := range r.profiles {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (r *memUserRepo) InsertProfile(_ context.Context, profile *models.Profile) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *profile
	r.profiles[profile.ID] = &c
	return profile, nil
}

func (r *memUserRepo) UpdateProfile(_ context.Context, id uuid.UUID, patch map[string]interface{}) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if v, ok := patch["role"].(models.Role); ok {
		p.Role = v
	}
	if v, ok := patch["status_pedido"].(models.RequestStatus); ok {
		p.StatusPedido = v
	}
	c := *p
	return &c, nil
}

type nopAuthRepo struct {
	signedUp []string
}

func (a *nopAuthRepo) SignUp(_ context.Context, email, _, _ string) (*types.SignupResponse, error) {
	a.signedUp = append(a.signedUp, email)
	return &types.SignupResponse{}, nil
}

func (a *nopAuthRepo) SignIn(context.Context, string, string) (*types.TokenResponse, error) {
	return nil, errors.New("invalid login credentials")
}

func (a *nopAuthRepo) RefreshToken(context.Context, string) (*types.TokenResponse, error) {
	return &types.TokenResponse{}, nil
}

func (a *nopAuthRepo) SignOut(context.Context, string) error { return nil }

// fakeStore fails the upload whose 1-based position equals failAt.
type fakeStore struct {
	keys   []string
	failAt int
}

func (s *fakeStore) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if s.failAt > 0 && len(s.keys)+1 == s.failAt {
		return "", errors.New("storage unavailable")
	}
	s.keys = append(s.keys, key)
	return "https://storage.example.com/eventos/" + key, nil
}

type published struct {
	eventType string
	key       string
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ []byte, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{eventType: eventType, key: key})
	return nil
}

func (p *recordingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.sent))
	for i, s := range p.sent {
		out[i] = s.eventType
	}
	return out
}

type fixture struct {
	events    *memEventRepo
	schedule  *memScheduleRepo
	users     *memUserRepo
	store     *fakeStore
	publisher *recordingPublisher
	cache     *cache.MemoryCache
	sessions  *session.Store
	svc       *EventService
	owner     *session.Identity
	other     *session.Identity
	admin     *session.Identity
}

func newFixture(today time.Time) *fixture {
	owner := &session.Identity{UserID: uuid.New(), Profile: &models.Profile{Role: models.RoleRegistrant, StatusPedido: models.RequestApproved}}
	other := &session.Identity{UserID: uuid.New(), Profile: &models.Profile{Role: models.RoleRegistrant, StatusPedido: models.RequestPending}}
	admin := &session.Identity{UserID: uuid.New(), Profile: &models.Profile{Role: models.RoleAdmin, StatusPedido: models.RequestApproved}}
	owner.Profile.ID, other.Profile.ID, admin.Profile.ID = owner.UserID, other.UserID, admin.UserID

	f := &fixture{
		events:    newMemEventRepo(),
		schedule:  newMemScheduleRepo(),
		users:     newMemUserRepo(owner.Profile, other.Profile, admin.Profile),
		store:     &fakeStore{},
		publisher: &recordingPublisher{},
		cache:     cache.NewMemoryCache(),
		owner:     owner,
		other:     other,
		admin:     admin,
	}
	f.sessions = session.NewStore(helpers.NewSecretVerifier("test"), f.users, &nopAuthRepo{}, time.Minute, discardLogger)
	attachments := NewAttachmentService(f.store, discardLogger)
	attachments.now = func() time.Time { return today }
	f.svc = NewEventService(f.events, f.schedule, f.users, attachments, f.cache, f.publisher, discardLogger, EventServiceConfig{
		Location:       time.UTC,
		PublicPageSize: 9,
		PublicCacheTTL: time.Minute,
	})
	f.svc.now = func() time.Time { return today }
	return f
}

var pdfData = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func mandatoryFiles() []models.FileUpload {
	var files []models.FileUpload
	for _, slot := range models.DocumentSlots {
		if slot.Mandatory {
			files = append(files, models.FileUpload{Slot: slot.Name, Filename: slot.Name + ".pdf", Data: pdfData})
		}
	}
	return files
}

func validInput(dates ...string) models.EventInput {
	if len(dates) == 0 {
		dates = []string{"2025-01-20"}
	}
	return models.EventInput{
		Titulo:           "Festival de Inverno",
		Local:            "Praça Central",
		EnderecoCompleto: "Rua A, 100",
		TipoLocal:        "publico",
		Datas:            dates,
		HoraInicio:       "18:00",
		HoraFim:          "23:00",
		PromotorNome:     "Maria",
		PromotorCPF:      "123.456.789-00",
		PromotorTelefone: "11999999999",
		PromotorEmail:    "maria@example.com",
	}
}
