package applications

import (
	"context"
	"time"
)

// Repository persiste solicitudes. Create devuelve recordstore.ErrDuplicate
// si ya existe una con el mismo SubmissionKey; las lecturas inexistentes
// devuelven recordstore.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, a Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	GetBySubmissionKey(ctx context.Context, key string) (Application, error)

	// ListByUser ordena por CreatedAt descendente.
	ListByUser(ctx context.Context, userID string) ([]Application, error)
	// ListAll ordena por CreatedAt descendente; status vacío = todas.
	ListAll(ctx context.Context, status Status) ([]Application, error)
	// CountByStatus omite los estados sin solicitudes.
	CountByStatus(ctx context.Context) (map[Status]int, error)

	// UpdateStatus cambia from -> to sólo si el registro sigue en from.
	// Si existe en otro estado devuelve recordstore.ErrConflict.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error
	Delete(ctx context.Context, id string) error
}
