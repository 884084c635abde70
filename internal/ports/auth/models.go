package auth

import (
	"errors"
	"strings"
	"time"
)

var ErrUnauthenticated = errors.New("unauthenticated")

const RoleAdmin = "admin"

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	Role   string

	// TokenID y ExpiresAt permiten revocar el token en sign-out.
	TokenID   string
	ExpiresAt time.Time
}

// Session es la capability del usuario autenticado. Se pasa explícita
// a los services (submission, sync, favoritos) en vez de leerse de un global;
// una Session nil o sin UserID equivale a "no autenticado".
type Session struct {
	UserID string
	Email  string
	Admin  bool
}

// SessionFromClaims construye la capability a partir de claims verificados.
func SessionFromClaims(c Claims) *Session {
	uid := strings.TrimSpace(c.UserID)
	if uid == "" {
		return nil
	}
	return &Session{
		UserID: uid,
		Email:  strings.TrimSpace(c.Email),
		Admin:  c.Role == RoleAdmin,
	}
}

func (s *Session) Authenticated() bool {
	return s != nil && strings.TrimSpace(s.UserID) != ""
}

// Require devuelve ErrUnauthenticated si la sesión no sirve.
func (s *Session) Require() error {
	if !s.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}
