package memory

import (
	"context"
	"sort"
	"sync"

	"pet-adoption-marketplace/internal/domain/favorites"
	"pet-adoption-marketplace/internal/ports/recordstore"
)

type favoriteKey struct {
	userID string
	petID  string
}

// favoriteRepo: el mutex hace de índice único (user_id, pet_id).
type favoriteRepo struct {
	mu      sync.RWMutex
	entries map[favoriteKey]favorites.Entry
}

func NewFavoriteRepo() favorites.Repository {
	return &favoriteRepo{
		entries: make(map[favoriteKey]favorites.Entry),
	}
}

func (r *favoriteRepo) Exists(ctx context.Context, userID, petID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[favoriteKey{userID, petID}]
	return ok, nil
}

func (r *favoriteRepo) Insert(ctx context.Context, e favorites.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := favoriteKey{e.UserID, e.PetID}
	if _, ok := r.entries[k]; ok {
		return recordstore.ErrDuplicate
	}
	r.entries[k] = e
	return nil
}

func (r *favoriteRepo) Delete(ctx context.Context, userID, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, favoriteKey{userID, petID})
	return nil
}

func (r *favoriteRepo) ListByUser(ctx context.Context, userID string) ([]favorites.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]favorites.Entry, 0)
	for k, e := range r.entries {
		if k.userID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PetID < out[j].PetID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
