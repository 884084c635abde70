package auth

import (
	"context"
	"errors"
)

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

var ErrNoVerifier = errors.New("no verifier accepted the token")

// FirstOf prueba los verifiers en orden y se queda con el primero que acepte
// el token (JWT propio y, si está configurado, el proveedor externo).
func FirstOf(verifiers ...AuthVerifier) AuthVerifier {
	out := make(chain, 0, len(verifiers))
	for _, v := range verifiers {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

type chain []AuthVerifier

func (c chain) Verify(ctx context.Context, token string) (Claims, error) {
	errs := make([]error, 0, len(c))
	for _, v := range c {
		claims, err := v.Verify(ctx, token)
		if err == nil {
			return claims, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return Claims{}, ErrNoVerifier
	}
	return Claims{}, errors.Join(append([]error{ErrNoVerifier}, errs...)...)
}
