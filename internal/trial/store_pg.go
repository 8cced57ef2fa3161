package trial

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed trial store.
func NewPGStore(db *sql.DB) Store {
	return &pgStore{DB: db}
}

func (s *pgStore) Read(ctx context.Context, guestID string) (int, error) {
	var count int
	row := s.DB.QueryRowContext(ctx, `
SELECT usage_count FROM trial_usage WHERE guest_id = $1`, guestID)
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (s *pgStore) Write(ctx context.Context, guestID string, count int) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO trial_usage (guest_id, usage_count, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (guest_id) DO UPDATE SET usage_count = EXCLUDED.usage_count, updated_at = EXCLUDED.updated_at`,
		guestID, count, time.Now().UTC())
	return err
}

func (s *pgStore) Clear(ctx context.Context, guestID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM trial_usage WHERE guest_id = $1`, guestID)
	return err
}
