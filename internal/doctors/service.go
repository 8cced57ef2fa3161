package doctors

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service contains business logic for doctor profiles.
type Service struct {
	Repo Repo
}

// CreateInput carries the fields an admin supplies for a new profile.
type CreateInput struct {
	Email           string
	FullName        string
	Specialization  string
	Workplace       string
	Position        string
	ProfileImageURL string
	UserID          string
}

// Create provisions a doctor profile. The account link (UserID) is
// optional: profiles are usually created before the doctor's first
// sign-in and linked later by email.
func (s *Service) Create(ctx context.Context, in CreateInput) (Doctor, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Email == "" || in.FullName == "" {
		return Doctor{}, ErrInvalidInput
	}

	now := time.Now().UTC()
	d := Doctor{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Email:           in.Email,
		FullName:        in.FullName,
		Specialization:  strings.TrimSpace(in.Specialization),
		Workplace:       strings.TrimSpace(in.Workplace),
		Position:        strings.TrimSpace(in.Position),
		ProfileImageURL: strings.TrimSpace(in.ProfileImageURL),
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.Repo.Create(ctx, d); err != nil {
		return Doctor{}, err
	}
	return d, nil
}

// Get returns one profile by id.
func (s *Service) Get(ctx context.Context, id string) (Doctor, error) {
	if id == "" {
		return Doctor{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, id)
}

// ListActive lists profiles visible to patients when booking.
func (s *Service) ListActive(ctx context.Context) ([]Doctor, error) {
	return s.Repo.ListActive(ctx)
}

// ListAll lists every profile for the admin panel, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Doctor, error) {
	return s.Repo.ListAll(ctx)
}

// UpdateInput carries editable profile fields. Nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	Email           *string
	FullName        *string
	Specialization  *string
	Workplace       *string
	Position        *string
	ProfileImageURL *string
	Active          *bool
}

// Update applies a partial edit to a profile.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Doctor, error) {
	if id == "" {
		return Doctor{}, ErrInvalidInput
	}

	d, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Doctor{}, err
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return Doctor{}, ErrInvalidInput
		}
		d.Email = email
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return Doctor{}, ErrInvalidInput
		}
		d.FullName = name
	}
	if in.Specialization != nil {
		d.Specialization = strings.TrimSpace(*in.Specialization)
	}
	if in.Workplace != nil {
		d.Workplace = strings.TrimSpace(*in.Workplace)
	}
	if in.Position != nil {
		d.Position = strings.TrimSpace(*in.Position)
	}
	if in.ProfileImageURL != nil {
		d.ProfileImageURL = strings.TrimSpace(*in.ProfileImageURL)
	}
	if in.Active != nil {
		d.Active = *in.Active
	}
	d.UpdatedAt = time.Now().UTC()

	if err := s.Repo.Update(ctx, d); err != nil {
		return Doctor{}, err
	}
	return d, nil
}

// ToggleActive flips the hidden/visible state of a profile.
func (s *Service) ToggleActive(ctx context.Context, id string) (Doctor, error) {
	if id == "" {
		return Doctor{}, ErrInvalidInput
	}
	d, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Doctor{}, err
	}
	active := !d.Active
	return s.Update(ctx, id, UpdateInput{Active: &active})
}

// Delete removes a profile permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.Repo.Delete(ctx, id)
}
