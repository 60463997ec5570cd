// Package session resolves access tokens into identities for the whole process.
// One Store is created at startup and shared by middleware and services.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/helpers"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
)

type Identity struct {
	UserID  uuid.UUID       `json:"id"`
	Email   string          `json:"email"`
	Profile *models.Profile `json:"profile"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Profile.IsAdmin()
}

func (i *Identity) Owns(userID uuid.UUID) bool {
	return i != nil && i.UserID == userID
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

type Verifier interface {
	Verify(token string) (*helpers.CustomClaims, error)
}

type cached struct {
	identity *Identity
	loadedAt time.Time
}

type Store struct {
	verifier Verifier
	users    models.UserRepo
	auth     models.AuthRepo
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.RWMutex
	identities map[uuid.UUID]cached
	subs       map[int]func(uuid.UUID)
	nextSub    int
}

func NewStore(verifier Verifier, users models.UserRepo, auth models.AuthRepo, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		verifier:   verifier,
		users:      users,
		auth:       auth,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
		identities: map[uuid.UUID]cached{},
		subs:       map[int]func(uuid.UUID){},
	}
}

// Identify verifies token and returns the identity behind it. The profile is
// read once and cached per user until it expires or is invalidated.
func (s *Store) Identify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, models.ErrUnauthorized
	}
	claims, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", models.ErrUnauthorized)
	}

	s.mu.RLock()
	entry, ok := s.identities[userID]
	s.mu.RUnlock()
	if ok && s.now().Sub(entry.loadedAt) < s.ttl {
		return entry.identity, nil
	}

	profile, err := s.ensureProfile(models.WithAccessToken(ctx, token), userID, claims.Email, claims.UserMetadata)
	if err != nil {
		return nil, err
	}
	identity := &Identity{UserID: userID, Email: claims.Email, Profile: profile}

	s.mu.Lock()
	s.identities[userID] = cached{identity: identity, loadedAt: s.now()}
	s.mu.Unlock()
	return identity, nil
}

// ensureProfile returns the stored profile, creating the fallback row when
// the account has none yet.
func (s *Store) ensureProfile(ctx context.Context, userID uuid.UUID, email string, metadata map[string]interface{}) (*models.Profile, error) {
	profile, err := s.users.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	fallback := models.FallbackProfile(userID, email, metadata)
	stored, err := s.users.InsertProfile(ctx, fallback)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to persist fallback profile", "user_id", userID, "error", err)
		return fallback, nil
	}
	return stored, nil
}

// OnIdentityChange registers cb for every invalidated user. The returned func
// removes the subscription.
func (s *Store) OnIdentityChange(cb func(userID uuid.UUID)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = cb
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Invalidate drops the cached identity so the next request reloads it, then
// notifies subscribers.
func (s *Store) Invalidate(userID uuid.UUID) {
	s.mu.Lock()
	delete(s.identities, userID)
	subs := make([]func(uuid.UUID), 0, len(s.subs))
	for _, cb := range s.subs {
		subs = append(subs, cb)
	}
	s.mu.Unlock()

	for _, cb := range subs {
		cb(userID)
	}
}

// SignOut revokes the session at the provider and forgets the identity.
func (s *Store) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if claims, err := s.verifier.Verify(token); err == nil {
		if userID, err := claims.UserID(); err == nil {
			s.Invalidate(userID)
		}
	}
	return s.auth.SignOut(ctx, token)
}
