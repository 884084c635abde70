package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/domain/identity"
	"pet-adoption-marketplace/internal/ports/recordstore"
)

type identityRepo struct {
	mu       sync.RWMutex
	users    map[string]identity.User
	byEmail  map[string]string // lower(email) -> id
	resets   map[string]identity.ResetToken
	revoked  map[string]time.Time // jti -> exp
	profiles map[string]identity.Profile
}

func NewIdentityRepo() identity.Repository {
	return &identityRepo{
		users:    make(map[string]identity.User),
		byEmail:  make(map[string]string),
		resets:   make(map[string]identity.ResetToken),
		revoked:  make(map[string]time.Time),
		profiles: make(map[string]identity.Profile),
	}
}

func (r *identityRepo) CreateUser(ctx context.Context, u identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := r.byEmail[email]; exists {
		return recordstore.ErrDuplicate
	}
	if _, exists := r.users[u.ID]; exists {
		return recordstore.ErrDuplicate
	}
	r.users[u.ID] = u
	r.byEmail[email] = u.ID
	return nil
}

func (r *identityRepo) GetUserByEmail(ctx context.Context, email string) (identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return identity.User{}, recordstore.ErrNotFound
	}
	return r.users[id], nil
}

func (r *identityRepo) GetUserByID(ctx context.Context, id string) (identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return identity.User{}, recordstore.ErrNotFound
	}
	return u, nil
}

func (r *identityRepo) UpdatePassword(ctx context.Context, userID, hash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return recordstore.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = at
	r.users[userID] = u
	return nil
}

func (r *identityRepo) SaveResetToken(ctx context.Context, t identity.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resets[t.TokenHash]; exists {
		return recordstore.ErrDuplicate
	}
	r.resets[t.TokenHash] = t
	return nil
}

func (r *identityRepo) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.resets[tokenHash]
	if !ok || t.UsedAt != nil || !now.Before(t.ExpiresAt) {
		return "", recordstore.ErrNotFound
	}
	used := now
	t.UsedAt = &used
	r.resets[tokenHash] = t
	return t.UserID, nil
}

func (r *identityRepo) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Limpieza perezosa de revocaciones que ya vencieron solas
	for id, exp := range r.revoked {
		if exp.Before(time.Now()) {
			delete(r.revoked, id)
		}
	}
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *identityRepo) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.revoked[tokenID]
	return ok, nil
}

func (r *identityRepo) GetProfile(ctx context.Context, userID string) (identity.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return identity.Profile{}, recordstore.ErrNotFound
	}
	return p, nil
}

func (r *identityRepo) SaveProfile(ctx context.Context, p identity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.UserID) == "" {
		return errors.New("profile user id required")
	}
	r.profiles[p.UserID] = p
	return nil
}
