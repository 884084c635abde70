package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-adoption-marketplace/internal/domain/shelters"
	"pet-adoption-marketplace/internal/ports/recordstore"
)

type SheltersRepo struct {
	db *sql.DB
}

func NewSheltersRepo(db *sql.DB) *SheltersRepo {
	return &SheltersRepo{db: db}
}

const shelterColumns = `
	id, name, address, city, state, zip_code,
	phone_number, email, website_url, description, image_url,
	lat, lng, hours,
	created_at, updated_at`

func (r *SheltersRepo) Create(ctx context.Context, s shelters.Shelter) error {
	hours, err := toJSONB(s.Hours)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shelters (`+shelterColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		s.ID, s.Name, s.Address, s.City, s.State, s.ZipCode,
		s.PhoneNumber, s.Email, s.WebsiteURL, s.Description, s.ImageURL,
		s.Location.Lat, s.Location.Lng, hours,
		s.CreatedAt, s.UpdatedAt,
	)
	return mapErr(err)
}

func (r *SheltersRepo) GetByID(ctx context.Context, id string) (shelters.Shelter, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return shelters.Shelter{}, recordstore.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+shelterColumns+` FROM shelters WHERE id = $1`, id)
	return scanShelter(row)
}

func (r *SheltersRepo) List(ctx context.Context) ([]shelters.Shelter, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+shelterColumns+` FROM shelters ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]shelters.Shelter, 0)
	for rows.Next() {
		s, err := scanShelter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SheltersRepo) Update(ctx context.Context, s shelters.Shelter) error {
	hours, err := toJSONB(s.Hours)
	if err != nil {
		return err
	}
	return requireAffected(r.db.ExecContext(ctx, `
		UPDATE shelters SET
			name = $2, address = $3, city = $4, state = $5, zip_code = $6,
			phone_number = $7, email = $8, website_url = $9, description = $10, image_url = $11,
			lat = $12, lng = $13, hours = $14,
			updated_at = $15
		WHERE id = $1
	`,
		s.ID, s.Name, s.Address, s.City, s.State, s.ZipCode,
		s.PhoneNumber, s.Email, s.WebsiteURL, s.Description, s.ImageURL,
		s.Location.Lat, s.Location.Lng, hours,
		s.UpdatedAt,
	))
}

// Delete devuelve recordstore.ErrConflict si todavía hay mascotas del refugio.
func (r *SheltersRepo) Delete(ctx context.Context, id string) error {
	return requireAffected(r.db.ExecContext(ctx, `DELETE FROM shelters WHERE id = $1`, id))
}

func (r *SheltersRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shelters`).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShelter(row scanner) (shelters.Shelter, error) {
	var s shelters.Shelter
	var hours []byte
	if err := row.Scan(
		&s.ID, &s.Name, &s.Address, &s.City, &s.State, &s.ZipCode,
		&s.PhoneNumber, &s.Email, &s.WebsiteURL, &s.Description, &s.ImageURL,
		&s.Location.Lat, &s.Location.Lng, &hours,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return shelters.Shelter{}, mapErr(err)
	}
	if err := fromJSONB(hours, &s.Hours); err != nil {
		return shelters.Shelter{}, err
	}
	return s, nil
}
