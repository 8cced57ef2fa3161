package consultations

import "context"

// Repo defines persistence operations for consultations.
type Repo interface {
	Create(ctx context.Context, consultation Consultation) error
	GetByID(ctx context.Context, consultationID string) (Consultation, error)
	ListByUser(ctx context.Context, userID string) ([]Consultation, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]Consultation, error)
	ListAll(ctx context.Context) ([]Consultation, error)
	Update(ctx context.Context, consultation Consultation) error
}
