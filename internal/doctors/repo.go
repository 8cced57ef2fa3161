package doctors

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("doctor not found")

// Repo defines persistence operations for doctor profiles.
type Repo interface {
	Create(ctx context.Context, doctor Doctor) error
	GetByID(ctx context.Context, doctorID string) (Doctor, error)
	GetByUserID(ctx context.Context, userID string) (Doctor, error)
	GetByEmail(ctx context.Context, email string) (Doctor, error)
	ListActive(ctx context.Context) ([]Doctor, error)
	ListAll(ctx context.Context) ([]Doctor, error)
	Update(ctx context.Context, doctor Doctor) error
	Relink(ctx context.Context, doctorID, userID string) error
	Delete(ctx context.Context, doctorID string) error
}
