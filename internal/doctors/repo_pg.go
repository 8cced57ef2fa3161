package doctors

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const doctorColumns = `
id, user_id, email, full_name, specialization, workplace, position,
profile_image_url, is_active, created_at, updated_at`

// Create inserts a new doctor.
func (r *PGRepo) Create(ctx context.Context, doctor Doctor) error {
	const query = `
INSERT INTO doctors (
	id, user_id, email, full_name, specialization, workplace, position,
	profile_image_url, is_active, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.DB.ExecContext(ctx, query,
		doctor.ID,
		nullIfEmpty(doctor.UserID),
		doctor.Email,
		doctor.FullName,
		doctor.Specialization,
		doctor.Workplace,
		doctor.Position,
		nullIfEmpty(doctor.ProfileImageURL),
		doctor.Active,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	return err
}

// GetByID returns a doctor by ID.
func (r *PGRepo) GetByID(ctx context.Context, doctorID string) (Doctor, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1 LIMIT 1`, doctorID)
	return scanDoctor(row)
}

// GetByUserID returns the doctor linked to an identity-provider account.
func (r *PGRepo) GetByUserID(ctx context.Context, userID string) (Doctor, error) {
	if userID == "" {
		return Doctor{}, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE user_id = $1 LIMIT 1`, userID)
	return scanDoctor(row)
}

// GetByEmail returns a doctor by email.
func (r *PGRepo) GetByEmail(ctx context.Context, email string) (Doctor, error) {
	if email == "" {
		return Doctor{}, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE lower(email) = lower($1) LIMIT 1`, email)
	return scanDoctor(row)
}

// ListActive returns active doctors ordered by name.
func (r *PGRepo) ListActive(ctx context.Context) ([]Doctor, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE is_active = TRUE ORDER BY full_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoctors(rows)
}

// ListAll returns every doctor, newest first.
func (r *PGRepo) ListAll(ctx context.Context) ([]Doctor, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+doctorColumns+` FROM doctors ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoctors(rows)
}

// Update replaces mutable doctor fields.
func (r *PGRepo) Update(ctx context.Context, doctor Doctor) error {
	const query = `
UPDATE doctors
SET email = $2, full_name = $3, specialization = $4, workplace = $5,
    position = $6, profile_image_url = $7, is_active = $8, updated_at = $9
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		doctor.ID,
		doctor.Email,
		doctor.FullName,
		doctor.Specialization,
		doctor.Workplace,
		doctor.Position,
		nullIfEmpty(doctor.ProfileImageURL),
		doctor.Active,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Relink points the doctor profile at the given account. Last write wins
// when two sessions race; both converge to the same account id.
func (r *PGRepo) Relink(ctx context.Context, doctorID, userID string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE doctors SET user_id = $2, updated_at = $3 WHERE id = $1`,
		doctorID, userID, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a doctor.
func (r *PGRepo) Delete(ctx context.Context, doctorID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, doctorID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoctor(row rowScanner) (Doctor, error) {
	var d Doctor
	var userID sql.NullString
	var imageURL sql.NullString
	err := row.Scan(
		&d.ID,
		&userID,
		&d.Email,
		&d.FullName,
		&d.Specialization,
		&d.Workplace,
		&d.Position,
		&imageURL,
		&d.Active,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Doctor{}, ErrNotFound
		}
		return Doctor{}, err
	}
	d.UserID = userID.String
	d.ProfileImageURL = imageURL.String
	return d, nil
}

func collectDoctors(rows *sql.Rows) ([]Doctor, error) {
	var out []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Doctor{}
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
