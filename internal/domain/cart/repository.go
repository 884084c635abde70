package cart

import "context"

type ProductRepository interface {
	CreateProduct(ctx context.Context, p Product) error
	GetProduct(ctx context.Context, id string) (Product, error)
	// ListProducts filtra por categoría si no está vacía; orden por nombre.
	ListProducts(ctx context.Context, category Category) ([]Product, error)
}

// Repository guarda un Item por (UserID, ProductID). Las lecturas inexistentes
// devuelven recordstore.ErrNotFound.
type Repository interface {
	GetItem(ctx context.Context, userID, productID string) (Item, error)
	// SaveItem inserta o reemplaza la fila del par.
	SaveItem(ctx context.Context, it Item) error
	RemoveItem(ctx context.Context, userID, productID string) error
	// ListItems ordena por AddedAt ascendente.
	ListItems(ctx context.Context, userID string) ([]Item, error)
	Clear(ctx context.Context, userID string) error
}
