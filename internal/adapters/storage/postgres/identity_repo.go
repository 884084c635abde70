package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/domain/identity"
)

type IdentityRepo struct {
	db *sql.DB
}

func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{db: db}
}

const userColumns = `id, name, email, password_hash, created_at, updated_at`

func (r *IdentityRepo) CreateUser(ctx context.Context, u identity.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES ($1,$2,$3,$4,$5,$6)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	return mapErr(err)
}

func (r *IdentityRepo) GetUserByEmail(ctx context.Context, email string) (identity.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE lower(email) = $1
	`, strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

func (r *IdentityRepo) GetUserByID(ctx context.Context, id string) (identity.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *IdentityRepo) UpdatePassword(ctx context.Context, userID, hash string, at time.Time) error {
	return requireAffected(r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, userID, hash, at))
}

func (r *IdentityRepo) SaveResetToken(ctx context.Context, t identity.ResetToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_resets (token_hash, user_id, expires_at) VALUES ($1,$2,$3)
	`, t.TokenHash, t.UserID, t.ExpiresAt)
	return mapErr(err)
}

// ConsumeResetToken es un único UPDATE condicional: dos confirmaciones
// concurrentes del mismo token no pueden ganar ambas.
func (r *IdentityRepo) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE password_resets
		SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING user_id
	`, tokenHash, now).Scan(&userID)
	if err != nil {
		return "", mapErr(err)
	}
	return userID, nil
}

func (r *IdentityRepo) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1,$2)
		ON CONFLICT (jti) DO NOTHING
	`, tokenID, expiresAt)
	return mapErr(err)
}

func (r *IdentityRepo) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)
	`, tokenID).Scan(&ok)
	return ok, mapErr(err)
}

func (r *IdentityRepo) GetProfile(ctx context.Context, userID string) (identity.Profile, error) {
	var p identity.Profile
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, full_name, phone, updated_at FROM user_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.FullName, &p.Phone, &p.UpdatedAt)
	if err != nil {
		return identity.Profile{}, mapErr(err)
	}
	return p, nil
}

func (r *IdentityRepo) SaveProfile(ctx context.Context, p identity.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, full_name, phone, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id) DO UPDATE
		SET full_name = EXCLUDED.full_name, phone = EXCLUDED.phone, updated_at = EXCLUDED.updated_at
	`, p.UserID, p.FullName, p.Phone, p.UpdatedAt)
	return mapErr(err)
}

func scanUser(row scanner) (identity.User, error) {
	var u identity.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return identity.User{}, mapErr(err)
	}
	return u, nil
}
