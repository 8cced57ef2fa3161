package doctors

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo stores doctors in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Doctor
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Doctor)}
}

// Create stores the doctor.
func (r *MemoryRepo) Create(ctx context.Context, doctor Doctor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[doctor.ID] = doctor
	return nil
}

// GetByID returns a doctor by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, doctorID string) (Doctor, error) {
	if err := ctx.Err(); err != nil {
		return Doctor{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doctor, ok := r.byID[doctorID]
	if !ok {
		return Doctor{}, ErrNotFound
	}
	return doctor, nil
}

// GetByUserID returns the doctor linked to an identity-provider account.
func (r *MemoryRepo) GetByUserID(ctx context.Context, userID string) (Doctor, error) {
	if err := ctx.Err(); err != nil {
		return Doctor{}, err
	}
	if userID == "" {
		return Doctor{}, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doctor := range r.byID {
		if doctor.UserID == userID {
			return doctor, nil
		}
	}
	return Doctor{}, ErrNotFound
}

// GetByEmail returns a doctor by email, the fallback lookup used when
// the account link is missing or stale.
func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (Doctor, error) {
	if err := ctx.Err(); err != nil {
		return Doctor{}, err
	}
	if email == "" {
		return Doctor{}, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doctor := range r.byID {
		if strings.EqualFold(doctor.Email, email) {
			return doctor, nil
		}
	}
	return Doctor{}, ErrNotFound
}

// ListActive returns active doctors ordered by name.
func (r *MemoryRepo) ListActive(ctx context.Context) ([]Doctor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Doctor, 0, len(r.byID))
	for _, doctor := range r.byID {
		if doctor.Active {
			out = append(out, doctor)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FullName < out[j].FullName
	})
	return out, nil
}

// ListAll returns every doctor, newest first.
func (r *MemoryRepo) ListAll(ctx context.Context) ([]Doctor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Doctor, 0, len(r.byID))
	for _, doctor := range r.byID {
		out = append(out, doctor)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces a stored doctor.
func (r *MemoryRepo) Update(ctx context.Context, doctor Doctor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[doctor.ID]; !ok {
		return ErrNotFound
	}
	doctor.UpdatedAt = time.Now().UTC()
	r.byID[doctor.ID] = doctor
	return nil
}

// Relink points the doctor profile at the given account.
func (r *MemoryRepo) Relink(ctx context.Context, doctorID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor, ok := r.byID[doctorID]
	if !ok {
		return ErrNotFound
	}
	doctor.UserID = userID
	doctor.UpdatedAt = time.Now().UTC()
	r.byID[doctorID] = doctor
	return nil
}

// Delete removes a doctor.
func (r *MemoryRepo) Delete(ctx context.Context, doctorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[doctorID]; !ok {
		return ErrNotFound
	}
	delete(r.byID, doctorID)
	return nil
}
