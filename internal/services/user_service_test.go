package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_SignUp(t *testing.T) {
	f := newFixture(today)
	auth := &nopAuthRepo{}
	svc := NewUserService(f.users, auth, f.sessions, discardLogger)
	ctx := context.Background()

	tests := []struct {
		name      string
		req       models.SignupRequest
		wantField string
	}{
		{"short password", models.SignupRequest{Nome: "Ana", Email: "ana@example.com", Password: "12345", ConfirmPassword: "12345"}, "password"},
		{"mismatch", models.SignupRequest{Nome: "Ana", Email: "ana@example.com", Password: "123456", ConfirmPassword: "654321"}, "confirm_password"},
		{"blank name", models.SignupRequest{Nome: " ", Email: "ana@example.com", Password: "123456", ConfirmPassword: "123456"}, "nome"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(ctx, tt.req)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
	assert.Empty(t, auth.signedUp)

	_, err := svc.SignUp(ctx, models.SignupRequest{Nome: "Ana", Email: " Ana@Example.com ", Password: "123456", ConfirmPassword: "123456"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, auth.signedUp)
}

func TestUserService_Login(t *testing.T) {
	f := newFixture(today)
	svc := NewUserService(f.users, &nopAuthRepo{}, f.sessions, discardLogger)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUserService_SetRoleAndStatus(t *testing.T) {
	f := newFixture(today)
	svc := NewUserService(f.users, &nopAuthRepo{}, f.sessions, discardLogger)
	ctx := context.Background()

	var changed []uuid.UUID
	unsubscribe := f.sessions.OnIdentityChange(func(id uuid.UUID) { changed = append(changed, id) })
	defer unsubscribe()

	profile, err := svc.SetRole(ctx, f.admin, f.other.UserID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, profile.Role)

	profile, err = svc.SetStatus(ctx, f.admin, f.other.UserID, models.RequestRejected)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, profile.StatusPedido)
	assert.Equal(t, models.RoleAdmin, profile.Role, "role and status change independently")

	assert.Equal(t, []uuid.UUID{f.other.UserID, f.other.UserID}, changed)

	_, err = svc.SetRole(ctx, f.owner, f.other.UserID, models.RolePublic)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.SetRole(ctx, f.admin, f.other.UserID, models.Role("superuser"))
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.SetStatus(ctx, f.admin, uuid.New(), models.RequestApproved)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Len(t, changed, 2)
}

func TestUserService_Directory(t *testing.T) {
	f := newFixture(today)
	svc := NewUserService(f.users, &nopAuthRepo{}, f.sessions, discardLogger)
	ctx := context.Background()

	users, err := svc.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	_, err = svc.ListUsers(ctx, f.owner)
	assert.ErrorIs(t, err, models.ErrForbidden)

	profile, err := svc.GetProfile(ctx, f.owner, f.owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, f.owner.UserID, profile.ID)

	_, err = svc.GetProfile(ctx, f.owner, f.other.UserID)
	assert.ErrorIs(t, err, models.ErrForbidden)
}
