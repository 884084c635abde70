package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/ports/recordstore"
)

type petRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID: make(map[string]pets.Pet),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return recordstore.ErrDuplicate
	}
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, recordstore.ErrNotFound
	}
	return p, nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[p.ID]
	if !ok {
		return recordstore.ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return recordstore.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *petRepo) Count(ctx context.Context, f pets.ListFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.byID {
		if petMatches(p, f) {
			n++
		}
	}
	return n, nil
}

func (r *petRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if petMatches(p, f) {
			out = append(out, p)
		}
	}

	// Más nuevas primero, como el catálogo en postgres
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func petMatches(p pets.Pet, f pets.ListFilter) bool {
	if f.Species != "" && p.Species != f.Species {
		return false
	}
	if f.Size != "" && p.Size != f.Size {
		return false
	}
	if f.Gender != "" && p.Gender != f.Gender {
		return false
	}
	if f.ShelterID != "" && p.ShelterID != f.ShelterID {
		return false
	}
	q := strings.ToLower(f.Query)
	if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Breed), q) {
		return false
	}
	return true
}
