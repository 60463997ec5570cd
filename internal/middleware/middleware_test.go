package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/helpers"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/services"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/gotrue-go/types"
)

const testSecret = "middleware-secret"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *MockUserRepo) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]*models.Profile)
	return p, args.Error(1)
}

func (m *MockUserRepo) InsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	args := m.Called(ctx, profile)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *MockUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*models.Profile, error) {
	args := m.Called(ctx, id, patch)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) SignUp(ctx context.Context, email, password, nome string) (*types.SignupResponse, error) {
	args := m.Called(ctx, email, password, nome)
	r, _ := args.Get(0).(*types.SignupResponse)
	return r, args.Error(1)
}

func (m *MockAuthRepo) SignIn(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	args := m.Called(ctx, email, password)
	r, _ := args.Get(0).(*types.TokenResponse)
	return r, args.Error(1)
}

func (m *MockAuthRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	r, _ := args.Get(0).(*types.TokenResponse)
	return r, args.Error(1)
}

func (m *MockAuthRepo) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func signToken(t *testing.T, userID uuid.UUID, expiresAt time.Time) string {
	t.Helper()
	claims := &helpers.CustomClaims{Email: "ana@example.com"}
	claims.Subject = userID.String()
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type authHarness struct {
	users  *MockUserRepo
	auth   *MockAuthRepo
	router *gin.Engine
}

func newAuthHarness() *authHarness {
	gin.SetMode(gin.TestMode)
	h := &authHarness{users: new(MockUserRepo), auth: new(MockAuthRepo)}
	sessions := session.NewStore(helpers.NewSecretVerifier(testSecret), h.users, h.auth, time.Minute, discardLogger)
	userService := services.NewUserService(h.users, h.auth, sessions, discardLogger)
	authn := NewAuthenticator(sessions, userService, discardLogger, false)

	whoami := func(c *gin.Context) {
		identity, ok := session.FromContext(c.Request.Context())
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, identity.UserID.String()+" "+models.AccessTokenFrom(c.Request.Context()))
	}

	r := gin.New()
	r.GET("/private", authn.Required(), whoami)
	r.GET("/public", authn.Optional(), whoami)
	r.GET("/admin", authn.Required(), RequireAdmin(), whoami)
	h.router = r
	return h
}

func (h *authHarness) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestAuthenticator_ValidCookie(t *testing.T) {
	h := newAuthHarness()
	userID := uuid.New()
	h.users.On("GetProfile", mock.Anything, userID).Return(&models.Profile{ID: userID, Role: models.RoleRegistrant}, nil)

	token := signToken(t, userID, time.Now().Add(time.Hour))
	w := h.get("/private", &http.Cookie{Name: helpers.AccessTokenCookie, Value: token})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String()+" "+token, w.Body.String())
}

func TestAuthenticator_BearerHeader(t *testing.T) {
	h := newAuthHarness()
	userID := uuid.New()
	h.users.On("GetProfile", mock.Anything, userID).Return(&models.Profile{ID: userID, Role: models.RoleRegistrant}, nil)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticator_RefreshesExpiredToken(t *testing.T) {
	h := newAuthHarness()
	userID := uuid.New()
	fresh := signToken(t, userID, time.Now().Add(time.Hour))

	tokens := &types.TokenResponse{}
	tokens.AccessToken = fresh
	tokens.RefreshToken = "refresh-2"
	tokens.ExpiresIn = 3600
	h.auth.On("RefreshToken", mock.Anything, "refresh-1").Return(tokens, nil).Once()
	h.users.On("GetProfile", mock.Anything, userID).Return(&models.Profile{ID: userID, Role: models.RoleRegistrant}, nil)

	w := h.get("/private",
		&http.Cookie{Name: helpers.AccessTokenCookie, Value: signToken(t, userID, time.Now().Add(-time.Minute))},
		&http.Cookie{Name: helpers.RefreshTokenCookie, Value: "refresh-1"},
	)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String()+" "+fresh, w.Body.String())

	set := map[string]string{}
	for _, c := range w.Result().Cookies() {
		set[c.Name] = c.Value
	}
	assert.Equal(t, fresh, set[helpers.AccessTokenCookie])
	assert.Equal(t, "refresh-2", set[helpers.RefreshTokenCookie])
	h.auth.AssertExpectations(t)
}

func TestAuthenticator_Rejects(t *testing.T) {
	h := newAuthHarness()
	userID := uuid.New()

	assert.Equal(t, http.StatusUnauthorized, h.get("/private").Code)

	h.auth.On("RefreshToken", mock.Anything, "stale").Return(nil, errors.New("invalid refresh token"))
	w := h.get("/private",
		&http.Cookie{Name: helpers.AccessTokenCookie, Value: signToken(t, userID, time.Now().Add(-time.Minute))},
		&http.Cookie{Name: helpers.RefreshTokenCookie, Value: "stale"},
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// a forged token is not refreshed
	w = h.get("/private",
		&http.Cookie{Name: helpers.AccessTokenCookie, Value: "forged"},
		&http.Cookie{Name: helpers.RefreshTokenCookie, Value: "refresh-1"},
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	h.auth.AssertNotCalled(t, "RefreshToken", mock.Anything, "refresh-1")
}

func TestAuthenticator_Optional(t *testing.T) {
	h := newAuthHarness()

	w := h.get("/public", &http.Cookie{Name: helpers.AccessTokenCookie, Value: "forged"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	h := newAuthHarness()
	adminID, userID := uuid.New(), uuid.New()
	h.users.On("GetProfile", mock.Anything, adminID).Return(&models.Profile{ID: adminID, Role: models.RoleAdmin}, nil)
	h.users.On("GetProfile", mock.Anything, userID).Return(&models.Profile{ID: userID, Role: models.RoleRegistrant}, nil)

	w := h.get("/admin", &http.Cookie{Name: helpers.AccessTokenCookie, Value: signToken(t, adminID, time.Now().Add(time.Hour))})
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.get("/admin", &http.Cookie{Name: helpers.AccessTokenCookie, Value: signToken(t, userID, time.Now().Add(time.Hour))})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(discardLogger))
	r.GET("/silent", func(c *gin.Context) { _ = c.Error(errors.New("boom")) })
	r.GET("/answered", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.JSON(http.StatusBadGateway, models.ErrorResponse("failed to upload banner"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/silent", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "request_id")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/answered", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "request_id")
}
