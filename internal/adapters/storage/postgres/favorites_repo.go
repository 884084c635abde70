package postgres

import (
	"context"
	"database/sql"

	"pet-adoption-marketplace/internal/domain/favorites"
)

// FavoritesRepo usa la tabla wishlists; el índice único (user_id, pet_id)
// convierte la carrera de dos inserts en ErrDuplicate.
type FavoritesRepo struct {
	db *sql.DB
}

func NewFavoritesRepo(db *sql.DB) *FavoritesRepo {
	return &FavoritesRepo{db: db}
}

func (r *FavoritesRepo) Exists(ctx context.Context, userID, petID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM wishlists WHERE user_id = $1 AND pet_id = $2)
	`, userID, petID).Scan(&ok)
	return ok, mapErr(err)
}

func (r *FavoritesRepo) Insert(ctx context.Context, e favorites.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wishlists (user_id, pet_id, created_at) VALUES ($1,$2,$3)
	`, e.UserID, e.PetID, e.CreatedAt)
	return mapErr(err)
}

func (r *FavoritesRepo) Delete(ctx context.Context, userID, petID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM wishlists WHERE user_id = $1 AND pet_id = $2`, userID, petID)
	return mapErr(err)
}

func (r *FavoritesRepo) ListByUser(ctx context.Context, userID string) ([]favorites.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, pet_id, created_at
		FROM wishlists
		WHERE user_id = $1
		ORDER BY created_at DESC, pet_id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]favorites.Entry, 0)
	for rows.Next() {
		var e favorites.Entry
		if err := rows.Scan(&e.UserID, &e.PetID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
