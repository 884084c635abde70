package memory

import (
	"context"
	"errors"
	"maps"
	"sort"
	"strings"
	"sync"

	"pet-adoption-marketplace/internal/domain/shelters"
	"pet-adoption-marketplace/internal/ports/recordstore"
)

type shelterRepo struct {
	mu   sync.RWMutex
	byID map[string]shelters.Shelter
}

func NewShelterRepo() shelters.Repository {
	return &shelterRepo{
		byID: make(map[string]shelters.Shelter),
	}
}

func (r *shelterRepo) Create(ctx context.Context, s shelters.Shelter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("shelter id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return recordstore.ErrDuplicate
	}
	s.Hours = maps.Clone(s.Hours)
	r.byID[s.ID] = s
	return nil
}

func (r *shelterRepo) GetByID(ctx context.Context, id string) (shelters.Shelter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return shelters.Shelter{}, recordstore.ErrNotFound
	}
	s.Hours = maps.Clone(s.Hours)
	return s, nil
}

func (r *shelterRepo) List(ctx context.Context) ([]shelters.Shelter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]shelters.Shelter, 0, len(r.byID))
	for _, s := range r.byID {
		s.Hours = maps.Clone(s.Hours)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *shelterRepo) Update(ctx context.Context, s shelters.Shelter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[s.ID]
	if !ok {
		return recordstore.ErrNotFound
	}
	s.CreatedAt = cur.CreatedAt
	s.Hours = maps.Clone(s.Hours)
	r.byID[s.ID] = s
	return nil
}

func (r *shelterRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return recordstore.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *shelterRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}
