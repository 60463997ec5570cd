package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

func (c *CustomClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenVerifier checks Supabase access tokens. Asymmetric tokens are verified
// against the project JWKS, HS256 tokens against the project JWT secret.
type TokenVerifier struct {
	jwks   *keyfunc.JWKS
	secret []byte
}

// NewTokenVerifier fetches the JWKS of the project. When it cannot be fetched
// the verifier falls back to the shared secret; with neither it fails.
func NewTokenVerifier(ctx context.Context, supabaseURL, secret string) (*TokenVerifier, error) {
	v := &TokenVerifier{secret: []byte(secret)}
	if supabaseURL != "" {
		jwksURL := fmt.Sprintf("%s/auth/v1/.well-known/jwks.json", strings.TrimRight(supabaseURL, "/"))
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				slog.Warn("jwks refresh failed", "error", err)
			},
		})
		if err != nil {
			slog.Warn("jwks unavailable, using shared secret only", "url", jwksURL, "error", err)
		} else {
			v.jwks = jwks
		}
	}
	if v.jwks == nil && len(v.secret) == 0 {
		return nil, errors.New("no JWKS and no JWT secret configured")
	}
	return v, nil
}

// NewSecretVerifier verifies HS256 tokens only.
func NewSecretVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

func (v *TokenVerifier) keyFor(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if len(v.secret) == 0 {
			return nil, errors.New("HS256 token but no JWT secret configured")
		}
		return v.secret, nil
	}
	if v.jwks == nil {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return v.jwks.Keyfunc(token)
}

func (v *TokenVerifier) Verify(tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, v.keyFor,
		jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	return claims, nil
}

// IsExpired reports whether err came from an expired token, which the caller
// may still recover with a refresh token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

func (v *TokenVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
