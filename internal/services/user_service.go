package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/session"
	"github.com/supabase-community/gotrue-go/types"
)

type UserService struct {
	userRepo models.UserRepo
	authRepo models.AuthRepo
	sessions *session.Store
	logger   *slog.Logger
}

func NewUserService(userRepo models.UserRepo, authRepo models.AuthRepo, sessions *session.Store, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		authRepo: authRepo,
		sessions: sessions,
		logger:   logger,
	}
}

// SignUp registers the account with the auth provider. The profile row is
// created on the first authenticated request.
func (us *UserService) SignUp(ctx context.Context, req models.SignupRequest) (*types.SignupResponse, error) {
	req.Nome = strings.TrimSpace(req.Nome)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Nome == "" {
		return nil, models.NewValidationError("nome", "name is required")
	}
	if len(req.Password) < 6 {
		return nil, models.NewValidationError("password", "password must have at least 6 characters")
	}
	if req.Password != req.ConfirmPassword {
		return nil, models.NewValidationError("confirm_password", "passwords do not match")
	}
	return us.authRepo.SignUp(ctx, req.Email, req.Password, req.Nome)
}

func (us *UserService) Login(ctx context.Context, req models.LoginRequest) (*types.TokenResponse, error) {
	if err := models.Validate.Var(req.Email, "required,email"); err != nil {
		return nil, models.NewValidationError("email", "invalid email format")
	}
	if req.Password == "" {
		return nil, models.NewValidationError("password", "password is required")
	}
	res, err := us.authRepo.SignIn(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	return res, nil
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", models.ErrUnauthorized)
	}
	res, err := us.authRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	return res, nil
}

func (us *UserService) Logout(ctx context.Context, accessToken string) error {
	return us.sessions.SignOut(ctx, accessToken)
}

// GetProfile lets users read their own profile; administrators read any.
func (us *UserService) GetProfile(ctx context.Context, actor *session.Identity, userID uuid.UUID) (*models.Profile, error) {
	if !actor.Owns(userID) && !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	return us.userRepo.GetProfile(ctx, userID)
}

func (us *UserService) ListUsers(ctx context.Context, actor *session.Identity) ([]*models.Profile, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	return us.userRepo.ListProfiles(ctx)
}

func (us *UserService) SetRole(ctx context.Context, actor *session.Identity, userID uuid.UUID, role models.Role) (*models.Profile, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	if !role.Valid() {
		return nil, models.NewValidationError("role", "must be admin, cadastrador or public")
	}
	return us.updateProfile(ctx, actor, userID, map[string]interface{}{"role": role})
}

func (us *UserService) SetStatus(ctx context.Context, actor *session.Identity, userID uuid.UUID, status models.RequestStatus) (*models.Profile, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	if !status.Valid() {
		return nil, models.NewValidationError("status_pedido", "must be pendente, aprovado or rejeitado")
	}
	return us.updateProfile(ctx, actor, userID, map[string]interface{}{"status_pedido": status})
}

func (us *UserService) updateProfile(ctx context.Context, actor *session.Identity, userID uuid.UUID, patch map[string]interface{}) (*models.Profile, error) {
	profile, err := us.userRepo.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, err
	}
	us.sessions.Invalidate(userID)
	us.logger.InfoContext(ctx, "profile updated", "user_id", userID, "admin_id", actor.UserID, "role", profile.Role, "status_pedido", profile.StatusPedido)
	return profile, nil
}
