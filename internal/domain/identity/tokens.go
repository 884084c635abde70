package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	tokenIssuer     = "pet-adoption-marketplace"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWeakSecret   = errors.New("jwt secret must be at least 32 bytes")
)

// RevocationStore es el subconjunto del Repository que usa el verificador.
type RevocationStore interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Tokens emite y verifica JWT HS256. Implementa auth.AuthVerifier.
type Tokens struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationStore
	now     func() time.Time
}

func NewTokens(secret string, ttl time.Duration, revoked RevocationStore) (*Tokens, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}, nil
}

// Issue firma un token nuevo para el usuario.
func (t *Tokens) Issue(u User, role string) (string, auth.Claims, error) {
	now := t.now().UTC()
	claims := tokenClaims{
		Email: u.Email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", auth.Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, toAuthClaims(claims), nil
}

func (t *Tokens) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.Subject == "" || parsed.ID == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	if t.revoked != nil {
		revoked, err := t.revoked.IsTokenRevoked(ctx, parsed.ID)
		if err != nil {
			return auth.Claims{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return auth.Claims{}, ErrInvalidToken
		}
	}
	return toAuthClaims(parsed), nil
}

func toAuthClaims(c tokenClaims) auth.Claims {
	out := auth.Claims{
		UserID:  c.Subject,
		Email:   c.Email,
		Role:    c.Role,
		TokenID: c.ID,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
