package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-adoption-marketplace/internal/domain/cart"
	"pet-adoption-marketplace/internal/ports/recordstore"
)

type productRepo struct {
	mu   sync.RWMutex
	byID map[string]cart.Product
}

func NewProductRepo() cart.ProductRepository {
	return &productRepo{
		byID: make(map[string]cart.Product),
	}
}

func (r *productRepo) CreateProduct(ctx context.Context, p cart.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("product id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return recordstore.ErrDuplicate
	}
	r.byID[p.ID] = p
	return nil
}

func (r *productRepo) GetProduct(ctx context.Context, id string) (cart.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return cart.Product{}, recordstore.ErrNotFound
	}
	return p, nil
}

func (r *productRepo) ListProducts(ctx context.Context, category cart.Category) ([]cart.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]cart.Product, 0)
	for _, p := range r.byID {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type cartKey struct {
	userID    string
	productID string
}

type cartRepo struct {
	mu    sync.RWMutex
	items map[cartKey]cart.Item
}

func NewCartRepo() cart.Repository {
	return &cartRepo{
		items: make(map[cartKey]cart.Item),
	}
}

func (r *cartRepo) GetItem(ctx context.Context, userID, productID string) (cart.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[cartKey{userID, productID}]
	if !ok {
		return cart.Item{}, recordstore.ErrNotFound
	}
	return it, nil
}

func (r *cartRepo) SaveItem(ctx context.Context, it cart.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[cartKey{it.UserID, it.ProductID}] = it
	return nil
}

func (r *cartRepo) RemoveItem(ctx context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, cartKey{userID, productID})
	return nil
}

func (r *cartRepo) ListItems(ctx context.Context, userID string) ([]cart.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]cart.Item, 0)
	for k, it := range r.items {
		if k.userID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out, nil
}

func (r *cartRepo) Clear(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k := range r.items {
		if k.userID == userID {
			delete(r.items, k)
		}
	}
	return nil
}
