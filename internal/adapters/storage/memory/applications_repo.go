package memory

import (
	"context"
	"errors"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/domain/applications"
	"pet-adoption-marketplace/internal/ports/recordstore"
)

// applicationRepo replica el índice único sobre submission_key de postgres.
type applicationRepo struct {
	mu    sync.RWMutex
	byID  map[string]applications.Application
	byKey map[string]string // submission key -> id
}

func NewApplicationRepo() applications.Repository {
	return &applicationRepo{
		byID:  make(map[string]applications.Application),
		byKey: make(map[string]string),
	}
}

func (r *applicationRepo) Create(ctx context.Context, a applications.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("application id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return recordstore.ErrDuplicate
	}
	if a.SubmissionKey != "" {
		if _, exists := r.byKey[a.SubmissionKey]; exists {
			return recordstore.ErrDuplicate
		}
		r.byKey[a.SubmissionKey] = a.ID
	}
	r.byID[a.ID] = copyApplication(a)
	return nil
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (applications.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return applications.Application{}, recordstore.ErrNotFound
	}
	return copyApplication(a), nil
}

func (r *applicationRepo) GetBySubmissionKey(ctx context.Context, key string) (applications.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[key]
	if !ok {
		return applications.Application{}, recordstore.ErrNotFound
	}
	return copyApplication(r.byID[id]), nil
}

func (r *applicationRepo) ListByUser(ctx context.Context, userID string) ([]applications.Application, error) {
	return r.list(func(a applications.Application) bool { return a.UserID == userID }), nil
}

func (r *applicationRepo) ListAll(ctx context.Context, status applications.Status) ([]applications.Application, error) {
	return r.list(func(a applications.Application) bool { return status == "" || a.Status == status }), nil
}

func (r *applicationRepo) CountByStatus(ctx context.Context) (map[applications.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[applications.Status]int)
	for _, a := range r.byID {
		out[a.Status]++
	}
	return out, nil
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, id string, from, to applications.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return recordstore.ErrNotFound
	}
	if a.Status != from {
		return recordstore.ErrConflict
	}
	a.Status = to
	a.UpdatedAt = at
	r.byID[id] = a
	return nil
}

func (r *applicationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return recordstore.ErrNotFound
	}
	delete(r.byID, id)
	if a.SubmissionKey != "" {
		delete(r.byKey, a.SubmissionKey)
	}
	return nil
}

func (r *applicationRepo) list(keep func(applications.Application) bool) []applications.Application {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]applications.Application, 0)
	for _, a := range r.byID {
		if keep(a) {
			out = append(out, copyApplication(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func copyApplication(a applications.Application) applications.Application {
	a.PersonalInfo = maps.Clone(a.PersonalInfo)
	a.HomeInfo = maps.Clone(a.HomeInfo)
	a.Experience = maps.Clone(a.Experience)
	a.References = maps.Clone(a.References)
	return a
}
