package pets

import "context"

// Repository: Update y Delete devuelven recordstore.ErrNotFound si el id no existe.
type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	List(ctx context.Context, filter ListFilter) ([]Pet, error)
	Update(ctx context.Context, p Pet) error
	Delete(ctx context.Context, id string) error
	// Count ignora Limit.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter: campos vacíos = no filtrar.
type ListFilter struct {
	Species   Species
	Size      Size
	Gender    Gender
	ShelterID string
	Query     string // busca en nombre y raza
	Limit     int
}
