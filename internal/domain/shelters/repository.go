package shelters

import "context"

// Repository: Update y Delete devuelven recordstore.ErrNotFound si el id no
// existe. Delete puede devolver recordstore.ErrConflict si el store impide
// borrar un refugio con mascotas.
type Repository interface {
	Create(ctx context.Context, s Shelter) error
	GetByID(ctx context.Context, id string) (Shelter, error)
	List(ctx context.Context) ([]Shelter, error)
	Update(ctx context.Context, s Shelter) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
