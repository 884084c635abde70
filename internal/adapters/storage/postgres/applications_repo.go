package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/domain/applications"
	"pet-adoption-marketplace/internal/ports/recordstore"
)

// ApplicationsRepo persiste en adoption_applications. Las secciones del
// formulario van como JSONB; submission_key tiene índice único.
type ApplicationsRepo struct {
	db *sql.DB
}

func NewApplicationsRepo(db *sql.DB) *ApplicationsRepo {
	return &ApplicationsRepo{db: db}
}

const applicationColumns = `
	id, user_id, pet_id, submission_key, status,
	personal_info, home_info, experience, reference_info,
	created_at, updated_at`

func (r *ApplicationsRepo) Create(ctx context.Context, a applications.Application) error {
	sections := make([][]byte, 0, 4)
	for _, s := range []applications.Section{a.PersonalInfo, a.HomeInfo, a.Experience, a.References} {
		b, err := toJSONB(s)
		if err != nil {
			return err
		}
		sections = append(sections, b)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO adoption_applications (`+applicationColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		a.ID,
		a.UserID,
		a.PetID,
		nullString(a.SubmissionKey),
		string(a.Status),
		sections[0],
		sections[1],
		sections[2],
		sections[3],
		a.CreatedAt,
		a.UpdatedAt,
	)
	return mapErr(err)
}

func (r *ApplicationsRepo) GetByID(ctx context.Context, id string) (applications.Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return applications.Application{}, recordstore.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM adoption_applications WHERE id = $1`, id)
	return scanApplication(row)
}

func (r *ApplicationsRepo) GetBySubmissionKey(ctx context.Context, key string) (applications.Application, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return applications.Application{}, recordstore.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM adoption_applications WHERE submission_key = $1`, key)
	return scanApplication(row)
}

func (r *ApplicationsRepo) ListByUser(ctx context.Context, userID string) ([]applications.Application, error) {
	return r.query(ctx, `
		SELECT `+applicationColumns+`
		FROM adoption_applications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
}

func (r *ApplicationsRepo) ListAll(ctx context.Context, status applications.Status) ([]applications.Application, error) {
	if status == "" {
		return r.query(ctx, `
			SELECT `+applicationColumns+`
			FROM adoption_applications
			ORDER BY created_at DESC, id DESC
		`)
	}
	return r.query(ctx, `
		SELECT `+applicationColumns+`
		FROM adoption_applications
		WHERE status = $1
		ORDER BY created_at DESC, id DESC
	`, string(status))
}

func (r *ApplicationsRepo) CountByStatus(ctx context.Context) (map[applications.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM adoption_applications GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[applications.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[applications.Status(status)] = n
	}
	return out, rows.Err()
}

func (r *ApplicationsRepo) UpdateStatus(ctx context.Context, id string, from, to applications.Status, at time.Time) error {
	err := requireAffected(r.db.ExecContext(ctx, `
		UPDATE adoption_applications
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`, id, string(to), at, string(from)))
	if !errors.Is(err, recordstore.ErrNotFound) {
		return err
	}

	// 0 filas: o no existe o alguien ya lo movió de from.
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM adoption_applications WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return mapErr(err)
	}
	if !exists {
		return recordstore.ErrNotFound
	}
	return recordstore.ErrConflict
}

func (r *ApplicationsRepo) Delete(ctx context.Context, id string) error {
	return requireAffected(r.db.ExecContext(ctx, `DELETE FROM adoption_applications WHERE id = $1`, id))
}

func (r *ApplicationsRepo) query(ctx context.Context, q string, args ...any) ([]applications.Application, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]applications.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanApplication(row scanner) (applications.Application, error) {
	var a applications.Application
	var key sql.NullString
	var status string
	var personal, home, experience, references []byte
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.PetID,
		&key,
		&status,
		&personal,
		&home,
		&experience,
		&references,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return applications.Application{}, mapErr(err)
	}
	a.SubmissionKey = key.String
	a.Status = applications.Status(status)

	for _, s := range []struct {
		raw []byte
		dst *applications.Section
	}{
		{personal, &a.PersonalInfo},
		{home, &a.HomeInfo},
		{experience, &a.Experience},
		{references, &a.References},
	} {
		if err := fromJSONB(s.raw, s.dst); err != nil {
			return applications.Application{}, err
		}
	}
	return a, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
