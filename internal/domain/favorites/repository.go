package favorites

import "context"

// Repository garantiza a lo sumo un Entry por (UserID, PetID): Insert de un
// par existente devuelve recordstore.ErrDuplicate.
type Repository interface {
	Exists(ctx context.Context, userID, petID string) (bool, error)
	Insert(ctx context.Context, e Entry) error
	// Delete de un par inexistente no es error.
	Delete(ctx context.Context, userID, petID string) error
	// ListByUser ordena por CreatedAt descendente.
	ListByUser(ctx context.Context, userID string) ([]Entry, error)
}
