package consultations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores consultations in memory and is safe for concurrent
// use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Consultation
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Consultation)}
}

// Create stores the consultation.
func (r *MemoryRepo) Create(ctx context.Context, consultation Consultation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[consultation.ID] = consultation
	return nil
}

// GetByID returns a consultation by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, consultationID string) (Consultation, error) {
	if err := ctx.Err(); err != nil {
		return Consultation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	consultation, ok := r.byID[consultationID]
	if !ok {
		return Consultation{}, ErrNotFound
	}
	return consultation, nil
}

// ListByUser returns the user's consultations, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Consultation, error) {
	return r.list(ctx, func(c Consultation) bool { return c.UserID == userID })
}

// ListByDoctor returns the doctor's consultations, newest first.
func (r *MemoryRepo) ListByDoctor(ctx context.Context, doctorID string) ([]Consultation, error) {
	return r.list(ctx, func(c Consultation) bool { return c.DoctorID == doctorID })
}

// ListAll returns every consultation, newest first.
func (r *MemoryRepo) ListAll(ctx context.Context) ([]Consultation, error) {
	return r.list(ctx, func(Consultation) bool { return true })
}

// Update replaces a stored consultation.
func (r *MemoryRepo) Update(ctx context.Context, consultation Consultation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[consultation.ID]; !ok {
		return ErrNotFound
	}
	consultation.UpdatedAt = time.Now().UTC()
	r.byID[consultation.ID] = consultation
	return nil
}

func (r *MemoryRepo) list(ctx context.Context, keep func(Consultation) bool) ([]Consultation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Consultation, 0)
	for _, consultation := range r.byID {
		if keep(consultation) {
			out = append(out, consultation)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
