package identity

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile son los datos de contacto que el usuario edita desde su panel.
// Es aparte de User para que los usuarios de un IdP externo también lo tengan.
type Profile struct {
	UserID    string
	FullName  string
	Phone     string
	UpdatedAt time.Time
}

// ResetToken guarda sólo el hash del token que recibe el usuario.
type ResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	UsedAt    *time.Time
}
