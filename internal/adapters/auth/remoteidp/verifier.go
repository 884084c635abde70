package remoteidp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-adoption-marketplace/internal/ports/auth"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier implementa auth.AuthVerifier contra el proveedor externo.
// Admins: app_metadata.role o la política local (ADMIN_EMAILS).
type Verifier struct {
	client  *Client
	isAdmin func(email string) bool
}

func NewVerifier(client *Client, isAdmin func(email string) bool) *Verifier {
	return &Verifier{client: client, isAdmin: isAdmin}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	u, err := v.client.FetchUser(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("remote idp verify failed: %w", err)
	}

	claims := auth.Claims{UserID: u.ID, Email: u.Email}
	if adminFromMetadata(u) || (v.isAdmin != nil && v.isAdmin(u.Email)) {
		claims.Role = auth.RoleAdmin
	}
	return claims, nil
}
