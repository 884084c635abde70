package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/ports/recordstore"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, shelter_id,
	name, species, breed, age, size, gender,
	description, image_url, health_status,
	vaccinated, neutered, microchipped, house_trained,
	good_with_kids, good_with_dogs, good_with_cats,
	activity_level,
	created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`,
		p.ID,
		p.ShelterID,
		p.Name,
		string(p.Species),
		p.Breed,
		p.Age,
		string(p.Size),
		string(p.Gender),
		p.Description,
		p.ImageURL,
		p.HealthStatus,
		p.Vaccinated,
		p.Neutered,
		p.Microchipped,
		p.HouseTrained,
		p.GoodWith.Kids,
		p.GoodWith.Dogs,
		p.GoodWith.Cats,
		string(p.ActivityLevel),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return mapErr(err)
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, recordstore.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	return scanPet(row)
}

func (r *PetsRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, error) {
	where, args := petWhere(f)
	q := `SELECT ` + petColumns + ` FROM pets` + where + ` ORDER BY created_at DESC, id ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	return requireAffected(r.db.ExecContext(ctx, `
		UPDATE pets SET
			shelter_id = $2,
			name = $3, species = $4, breed = $5, age = $6, size = $7, gender = $8,
			description = $9, image_url = $10, health_status = $11,
			vaccinated = $12, neutered = $13, microchipped = $14, house_trained = $15,
			good_with_kids = $16, good_with_dogs = $17, good_with_cats = $18,
			activity_level = $19,
			updated_at = $20
		WHERE id = $1
	`,
		p.ID,
		p.ShelterID,
		p.Name,
		string(p.Species),
		p.Breed,
		p.Age,
		string(p.Size),
		string(p.Gender),
		p.Description,
		p.ImageURL,
		p.HealthStatus,
		p.Vaccinated,
		p.Neutered,
		p.Microchipped,
		p.HouseTrained,
		p.GoodWith.Kids,
		p.GoodWith.Dogs,
		p.GoodWith.Cats,
		string(p.ActivityLevel),
		p.UpdatedAt,
	))
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	return requireAffected(r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id))
}

func (r *PetsRepo) Count(ctx context.Context, f pets.ListFilter) (int, error) {
	where, args := petWhere(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets`+where, args...).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

// petWhere arma el WHERE (con espacio inicial) y sus args; Limit no se usa.
func petWhere(f pets.ListFilter) (string, []any) {
	where := make([]string, 0, 5)
	args := make([]any, 0, 6)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Species != "" {
		add("species = $%d", string(f.Species))
	}
	if f.Size != "" {
		add("size = $%d", string(f.Size))
	}
	if f.Gender != "" {
		add("gender = $%d", string(f.Gender))
	}
	if f.ShelterID != "" {
		add("shelter_id = $%d", f.ShelterID)
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR breed ILIKE $%d)", n, n))
	}

	if len(where) == 0 {
		return "", args
	}
	return ` WHERE ` + strings.Join(where, " AND "), args
}

func scanPet(row scanner) (pets.Pet, error) {
	var p pets.Pet
	var species, size, gender, activity string
	if err := row.Scan(
		&p.ID,
		&p.ShelterID,
		&p.Name,
		&species,
		&p.Breed,
		&p.Age,
		&size,
		&gender,
		&p.Description,
		&p.ImageURL,
		&p.HealthStatus,
		&p.Vaccinated,
		&p.Neutered,
		&p.Microchipped,
		&p.HouseTrained,
		&p.GoodWith.Kids,
		&p.GoodWith.Dogs,
		&p.GoodWith.Cats,
		&activity,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, mapErr(err)
	}
	p.Species = pets.Species(species)
	p.Size = pets.Size(size)
	p.Gender = pets.Gender(gender)
	p.ActivityLevel = pets.ActivityLevel(activity)
	return p, nil
}
