package identity

import (
	"context"
	"time"
)

// Repository persiste usuarios, tokens de reseteo y tokens revocados.
// CreateUser devuelve recordstore.ErrDuplicate si el email ya existe
// (comparación sin mayúsculas); las lecturas vacías, recordstore.ErrNotFound.
type Repository interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	UpdatePassword(ctx context.Context, userID, hash string, at time.Time) error

	SaveResetToken(ctx context.Context, t ResetToken) error
	// ConsumeResetToken marca el token como usado y devuelve su UserID.
	// Un token inexistente, vencido o ya usado es recordstore.ErrNotFound.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error)

	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)

	GetProfile(ctx context.Context, userID string) (Profile, error)
	// SaveProfile inserta o reemplaza el perfil del usuario.
	SaveProfile(ctx context.Context, p Profile) error
}
