package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/postgrest-go"
)

type UserRepo interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	ListProfiles(ctx context.Context) ([]*Profile, error)
	InsertProfile(ctx context.Context, profile *Profile) (*Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*Profile, error)
}

// AuthRepo is the session provider side of Supabase (GoTrue).
type AuthRepo interface {
	SignUp(ctx context.Context, email, password, nome string) (*types.SignupResponse, error)
	SignIn(ctx context.Context, email, password string) (*types.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
	SignOut(ctx context.Context, accessToken string) error
}

func (su *SupabaseRepo) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	raw, status, err := client.From(UsersTable).
		Select("id,nome,role,status_pedido,created_at", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if status != 0 {
			return nil, repoErr("get profile", fmt.Errorf("postgrest error: status=%d body=%s err=%v", status, string(raw), err))
		}
		return nil, repoErr("get profile", err)
	}
	return firstRow[Profile](raw)
}

func (su *SupabaseRepo) ListProfiles(ctx context.Context) ([]*Profile, error) {
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(UsersTable).
		Select("id,nome,role,status_pedido,created_at", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, repoErr("list profiles", err)
	}
	return decodeRows[Profile](raw)
}

func (su *SupabaseRepo) InsertProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	row := map[string]interface{}{
		"id":            profile.ID,
		"nome":          profile.Nome,
		"role":          profile.Role,
		"status_pedido": profile.StatusPedido,
	}
	raw, _, err := client.From(UsersTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint") {
			return su.GetProfile(ctx, profile.ID)
		}
		return nil, repoErr("insert profile", err)
	}
	return firstRow[Profile](raw)
}

func (su *SupabaseRepo) UpdateProfile(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*Profile, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	client, err := su.client(ctx)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(UsersTable).
		Update(patch, "representation", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, repoErr("update profile", err)
	}
	return firstRow[Profile](raw)
}

func (su *SupabaseRepo) SignUp(ctx context.Context, email, password, nome string) (*types.SignupResponse, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     map[string]interface{}{"nome": nome},
	})
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "already registered") {
			return nil, NewValidationError("email", "email already in use")
		}
		if strings.Contains(errMsg, "password") {
			return nil, NewValidationError("password", "password rejected by auth provider")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return res, nil
}

func (su *SupabaseRepo) SignIn(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := su.supabaseClient.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}
