package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func submitPending(t *testing.T, f *fixture, dates ...string) *models.Event {
	t.Helper()
	event, err := f.svc.Submit(context.Background(), f.owner, uuid.Nil, validInput(dates...), models.StatusPending, mandatoryFiles())
	require.NoError(t, err)
	return event
}

func approve(t *testing.T, f *fixture, dates ...string) *models.Event {
	t.Helper()
	event := submitPending(t, f, dates...)
	approved, _, err := f.svc.Decide(context.Background(), f.admin, event.ID, models.StatusApproved)
	require.NoError(t, err)
	return approved
}

func TestSubmit_PendingThenListByOwner(t *testing.T) {
	f := newFixture(today)
	ctx := context.Background()

	event := submitPending(t, f)

	assert.Equal(t, models.StatusPending, event.Status)
	assert.Equal(t, f.owner.UserID, event.UserID)
	require.Len(t, f.store.keys, 6)
	assert.Equal(t, "https://storage.example.com/eventos/"+f.store.keys[0], event.RequerimentoAutorizacaoURL)
	assert.Equal(t, "https://storage.example.com/eventos/"+f.store.keys[5], event.PlanoSegurancaURL)

	owned, err := f.svc.ListByOwner(ctx, f.owner.UserID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, event.ID, owned[0].ID)
	assert.Equal(t, models.StatusPending, owned[0].Status)

	assert.Equal(t, []string{workflow.TopicSubmitted}, f.publisher.eventTypes())
}

func TestSubmit_ValidationWritesNothing(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *models.EventInput)
		files     func() []models.FileUpload
		wantField string
	}{
		{
			name:      "missing title",
			mutate:    func(in *models.EventInput) { in.Titulo = "  " },
			files:     mandatoryFiles,
			wantField: "titulo",
		},
		{
			name:      "missing dates",
			mutate:    func(in *models.EventInput) { in.Datas = nil },
			files:     mandatoryFiles,
			wantField: "datas",
		},
		{
			name:      "end before start",
			mutate:    func(in *models.EventInput) { in.HoraInicio, in.HoraFim = "22:00", "21:00" },
			files:     mandatoryFiles,
			wantField: "hora_fim",
		},
		{
			name:   "missing document",
			mutate: func(in *models.EventInput) {},
			files: func() []models.FileUpload {
				files := mandatoryFiles()
				return files[:len(files)-1]
			},
			wantField: "plano_seguranca",
		},
		{
			name:   "wrong file type",
			mutate: func(in *models.EventInput) {},
			files: func() []models.FileUpload {
				files := mandatoryFiles()
				files[2].Data = []byte("plain text pretending")
				return files
			},
			wantField: "planta_local",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(today)
			in := validInput()
			tt.mutate(&in)

			event, err := f.svc.Submit(context.Background(), f.owner, uuid.Nil, in, models.StatusPending, tt.files())

			assert.Nil(t, event)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Empty(t, f.store.keys, "no upload before validation passes")
			assert.Empty(t, f.events.events, "no row written")
			assert.Empty(t, f.publisher.eventTypes())
		})
	}
}

func TestSubmit_UploadFailureAbortsBatch(t *testing.T) {
	f := newFixture(today)
	f.store.failAt = 2

	event, err := f.svc.Submit(context.Background(), f.owner, uuid.Nil, validInput(), models.StatusPending, mandatoryFiles())

	assert.Nil(t, event)
	var uerr *models.UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "projeto_evento", uerr.Slot)
	assert.Len(t, f.store.keys, 1, "first object stays stored")
	assert.Empty(t, f.events.events)
}

func TestSubmit_DraftThenPending(t *testing.T) {
	f := newFixture(today)
	ctx := context.Background()
	in := validInput()
	in.HoraFim = "10:00"

	draft, err := f.svc.Submit(ctx, f.owner, uuid.Nil, in, models.StatusDraft, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, draft.Status)

	_, err = f.svc.Submit(ctx, f.owner, draft.ID, in, models.StatusPending, mandatoryFiles())
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "hora_fim", verr.Field)

	pending, err := f.svc.Submit(ctx, f.owner, draft.ID, validInput(), models.StatusPending, mandatoryFiles())
	require.NoError(t, err)
	assert.Equal(t, draft.ID, pending.ID)
	assert.Equal(t, models.StatusPending, pending.Status)
	assert.Equal(t, draft.CreatedAt, pending.CreatedAt)

	assert.Equal(t, []string{workflow.TopicDrafted, workflow.TopicSubmitted}, f.publisher.eventTypes())
}

func TestSubmit_OnlyOwnerEdits(t *testing.T) {
	f := newFixture(today)
	event := submitPending(t, f)

	_, err := f.svc.Submit(context.Background(), f.other, event.ID, validInput(), models.StatusDraft, nil)

	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestSubmit_RejectsUnknownTarget(t *testing.T) {
	f := newFixture(today)

	_, err := f.svc.Submit(context.Background(), f.owner, uuid.Nil, validInput(), models.StatusApproved, mandatoryFiles())

	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDecide_CountersAndFinality(t *testing.T) {
	f := newFixture(today)
	ctx := context.Background()
	event := submitPending(t, f)
	submitPending(t, f)

	before, err := f.svc.Stats(ctx)
	require.NoError(t, err)

	approved, after, err := f.svc.Decide(ctx, f.admin, event.ID, models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, before.EventosAprovados+1, after.EventosAprovados)
	assert.Equal(t, before.EventosPendentes-1, after.EventosPendentes)
	assert.Equal(t, 3, after.TotalUsuarios)
	assert.Equal(t, 1, after.UsuariosPendentes)

	_, _, err = f.svc.Decide(ctx, f.admin, event.ID, models.StatusApproved)
	var terr *models.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.StatusApproved, terr.From)

	_, _, err = f.svc.Decide(ctx, f.admin, event.ID, models.StatusRejected)
	assert.ErrorAs(t, err, &terr)

	again, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, after, again)

	_, err = f.svc.Submit(ctx, f.owner, event.ID, validInput(), models.StatusPending, nil)
	assert.ErrorAs(t, err, &terr, "approved events cannot go back to pending")
}

func TestDecide_RequiresAdmin(t *testing.T) {
	f := newFixture(today)
	event := submitPending(t, f)

	_, _, err := f.svc.Decide(context.Background(), f.owner, event.ID, models.StatusApproved)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, _, err = f.svc.Decide(context.Background(), f.admin, event.ID, models.StatusDraft)
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestListPublic(t *testing.T) {
	f := newFixture(today)
	ctx := context.Background()

	upcoming := approve(t, f, "2025-01-10", "2025-01-20")
	approve(t, f, "2025-01-01")
	pending := submitPending(t, f, "2025-01-18")

	events, err := f.svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, upcoming.ID, events[0].ID)

	lists := f.events.lists
	_, err = f.svc.ListPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, lists, f.events.lists, "second read is served from cache")

	_, _, err = f.svc.Decide(ctx, f.admin, pending.ID, models.StatusApproved)
	require.NoError(t, err)

	events, err = f.svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, pending.ID, events[0].ID, "soonest date first")
}

func TestListAll(t *testing.T) {
	f := newFixture(today)
	ctx := context.Background()
	approve(t, f)
	submitPending(t, f)
	_, err := f.svc.Submit(ctx, f.owner, uuid.Nil, validInput(), models.StatusDraft, nil)
	require.NoError(t, err)

	partition, stats, err := f.svc.ListAll(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, partition.All, 3)
	assert.Len(t, partition.Pending, 1)
	assert.Len(t, partition.Approved, 1)
	assert.Empty(t, partition.Rejected)
	assert.Equal(t, 33, stats.TaxaAprovacao)

	_, _, err = f.svc.ListAll(ctx, f.owner)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(today)
	ctx := context.Background()
	pending := submitPending(t, f)
	approved := approve(t, f)

	_, err := f.svc.Get(ctx, f.other, pending.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := f.svc.Get(ctx, f.owner, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, got.ID)

	got, err = f.svc.Get(ctx, nil, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.ID, got.ID)
}

func TestCompleteness(t *testing.T) {
	f := newFixture(today)
	event := submitPending(t, f)

	c, err := f.svc.Completeness(context.Background(), f.owner, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Present)
	assert.Equal(t, 12, c.Total)
	assert.Empty(t, c.Missing)

	_, err = f.svc.Completeness(context.Background(), f.other, event.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestDelete(t *testing.T) {
	f := newFixture(today)
	ctx := context.Background()
	event := submitPending(t, f, "2025-01-20")
	schedule := NewScheduleService(f.schedule, f.events)
	_, err := schedule.Create(ctx, f.owner, event.ID, models.ScheduleInput{Data: "2025-01-20", HoraInicio: "18:00", HoraFim: "19:00", Atividade: "Abertura"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.other, event.ID), models.ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, f.owner, event.ID))
	assert.Empty(t, f.schedule.entries)
	assert.Empty(t, f.events.events)

	approved := approve(t, f)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.owner, approved.ID), models.ErrForbidden)
	assert.NoError(t, f.svc.Delete(ctx, f.admin, approved.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, f.admin, approved.ID), models.ErrNotFound)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(today)
	submitPending(t, f)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(context.Background(), f.admin, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,titulo,status"))
	assert.Contains(t, lines[1], "Festival de Inverno")
	assert.Contains(t, lines[1], "6/12")

	assert.ErrorIs(t, f.svc.ExportCSV(context.Background(), f.owner, &buf), models.ErrForbidden)
}
