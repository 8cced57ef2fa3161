package consultations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"melanox-backend/internal/analyses"
	"melanox-backend/internal/doctors"
	"melanox-backend/internal/join"
)

// Service contains business logic for consultations.
type Service struct {
	Repo     Repo
	Doctors  doctors.Repo
	Analyses analyses.Repo
}

// CreateInput carries the booking form fields.
type CreateInput struct {
	DoctorID   string
	AnalysisID string

	PatientFullName    string
	PatientAge         int
	PatientGender      string
	PatientPhone       string
	PatientEmail       string
	PatientAddress     string
	MedicalHistory     string
	CurrentMedications string
	Allergies          string
	AdditionalNotes    string
}

// Create books a consultation with a doctor. An attached analysis must
// belong to the requesting user.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Consultation, error) {
	if userID == "" {
		return Consultation{}, ErrInvalidInput
	}
	in.PatientFullName = strings.TrimSpace(in.PatientFullName)
	in.PatientPhone = strings.TrimSpace(in.PatientPhone)
	in.PatientEmail = strings.TrimSpace(in.PatientEmail)
	if in.DoctorID == "" || in.PatientFullName == "" || in.PatientPhone == "" {
		return Consultation{}, ErrInvalidInput
	}
	if in.PatientAge <= 0 || in.PatientAge > 120 {
		return Consultation{}, ErrInvalidInput
	}

	doctor, err := s.Doctors.GetByID(ctx, in.DoctorID)
	if err != nil {
		if errors.Is(err, doctors.ErrNotFound) {
			return Consultation{}, ErrInvalidInput
		}
		return Consultation{}, err
	}
	if !doctor.Active {
		return Consultation{}, ErrInvalidInput
	}

	if in.AnalysisID != "" {
		analysis, err := s.Analyses.GetByID(ctx, in.AnalysisID)
		if err != nil {
			if errors.Is(err, analyses.ErrNotFound) {
				return Consultation{}, ErrInvalidInput
			}
			return Consultation{}, err
		}
		if analysis.UserID != userID {
			return Consultation{}, ErrInvalidInput
		}
	}

	now := time.Now().UTC()
	c := Consultation{
		ID:                 uuid.NewString(),
		AnalysisID:         in.AnalysisID,
		UserID:             userID,
		DoctorID:           in.DoctorID,
		PatientFullName:    in.PatientFullName,
		PatientAge:         in.PatientAge,
		PatientGender:      strings.TrimSpace(in.PatientGender),
		PatientPhone:       in.PatientPhone,
		PatientEmail:       in.PatientEmail,
		PatientAddress:     strings.TrimSpace(in.PatientAddress),
		MedicalHistory:     strings.TrimSpace(in.MedicalHistory),
		CurrentMedications: strings.TrimSpace(in.CurrentMedications),
		Allergies:          strings.TrimSpace(in.Allergies),
		AdditionalNotes:    strings.TrimSpace(in.AdditionalNotes),
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return Consultation{}, err
	}
	return c, nil
}

// WithDoctor is a consultation with its doctor profile attached.
type WithDoctor = join.Joined[Consultation, doctors.Doctor]

// ListOwn returns the user's consultations with doctor profiles
// attached, newest first.
func (s *Service) ListOwn(ctx context.Context, userID string) ([]WithDoctor, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	list, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.joinDoctors(ctx, list)
}

// WithAnalysis is a consultation with its screening result attached.
type WithAnalysis = join.Joined[Consultation, analyses.Analysis]

// ListForDoctor returns the doctor's queue with attached analyses,
// newest first.
func (s *Service) ListForDoctor(ctx context.Context, doctorID string) ([]WithAnalysis, error) {
	if doctorID == "" {
		return nil, ErrInvalidInput
	}
	list, err := s.Repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return join.WithJoin(ctx, list,
		func(c Consultation) string { return c.AnalysisID },
		func(ctx context.Context, analysisID string) (analyses.Analysis, error) {
			analysis, err := s.Analyses.GetByID(ctx, analysisID)
			if errors.Is(err, analyses.ErrNotFound) {
				return analyses.Analysis{}, join.ErrNotFound
			}
			return analysis, err
		})
}

// AdminList returns every consultation with doctor profiles attached,
// newest first.
func (s *Service) AdminList(ctx context.Context) ([]WithDoctor, error) {
	list, err := s.Repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.joinDoctors(ctx, list)
}

// GetOwned returns one consultation if it belongs to the user.
func (s *Service) GetOwned(ctx context.Context, consultationID, userID string) (Consultation, error) {
	c, err := s.Repo.GetByID(ctx, consultationID)
	if err != nil {
		return Consultation{}, err
	}
	if c.UserID != userID {
		return Consultation{}, ErrNotFound
	}
	return c, nil
}

// Last returns the user's most recent consultation, used to prefill the
// booking form.
func (s *Service) Last(ctx context.Context, userID string) (Consultation, error) {
	if userID == "" {
		return Consultation{}, ErrInvalidInput
	}
	list, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return Consultation{}, err
	}
	if len(list) == 0 {
		return Consultation{}, ErrNotFound
	}
	return list[0], nil
}

// UpdateStatus moves a consultation through its lifecycle on behalf of
// the assigned doctor. Completed and cancelled are terminal.
func (s *Service) UpdateStatus(ctx context.Context, consultationID, doctorID, status string) (Consultation, error) {
	if !validStatus(status) {
		return Consultation{}, ErrInvalidInput
	}
	c, err := s.getForDoctor(ctx, consultationID, doctorID)
	if err != nil {
		return Consultation{}, err
	}
	if !canTransition(c.Status, status) {
		return Consultation{}, ErrInvalidTransition
	}
	c.Status = status
	if err := s.Repo.Update(ctx, c); err != nil {
		return Consultation{}, err
	}
	return c, nil
}

// RespondInput carries the doctor's answer. Either response shape may
// be filled.
type RespondInput struct {
	ActualDiagnosis       string
	ActualLesionType      string
	DoctorDiagnosis       string
	DoctorRecommendations string
	DoctorNotes           string
}

// Respond records the doctor's answer and completes the consultation.
func (s *Service) Respond(ctx context.Context, consultationID, doctorID string, in RespondInput) (Consultation, error) {
	if strings.TrimSpace(in.ActualDiagnosis) == "" &&
		strings.TrimSpace(in.ActualLesionType) == "" &&
		strings.TrimSpace(in.DoctorDiagnosis) == "" &&
		strings.TrimSpace(in.DoctorRecommendations) == "" &&
		strings.TrimSpace(in.DoctorNotes) == "" {
		return Consultation{}, ErrInvalidInput
	}
	c, err := s.getForDoctor(ctx, consultationID, doctorID)
	if err != nil {
		return Consultation{}, err
	}
	if !canTransition(c.Status, StatusCompleted) {
		return Consultation{}, ErrInvalidTransition
	}

	now := time.Now().UTC()
	c.ActualDiagnosis = strings.TrimSpace(in.ActualDiagnosis)
	c.ActualLesionType = strings.TrimSpace(in.ActualLesionType)
	c.DoctorDiagnosis = strings.TrimSpace(in.DoctorDiagnosis)
	c.DoctorRecommendations = strings.TrimSpace(in.DoctorRecommendations)
	c.DoctorNotes = strings.TrimSpace(in.DoctorNotes)
	c.DoctorResponseDate = &now
	c.Status = StatusCompleted
	if err := s.Repo.Update(ctx, c); err != nil {
		return Consultation{}, err
	}
	return c, nil
}

// Rate records the patient's 1..5 rating, once, after completion.
func (s *Service) Rate(ctx context.Context, consultationID, userID string, rating int) (Consultation, error) {
	if rating < 1 || rating > 5 {
		return Consultation{}, ErrInvalidInput
	}
	c, err := s.GetOwned(ctx, consultationID, userID)
	if err != nil {
		return Consultation{}, err
	}
	if c.Status != StatusCompleted {
		return Consultation{}, ErrNotCompleted
	}
	if c.Rating != 0 {
		return Consultation{}, ErrAlreadyRated
	}
	c.Rating = rating
	if err := s.Repo.Update(ctx, c); err != nil {
		return Consultation{}, err
	}
	return c, nil
}

// Cancel lets the patient withdraw a pending request.
func (s *Service) Cancel(ctx context.Context, consultationID, userID string) (Consultation, error) {
	c, err := s.GetOwned(ctx, consultationID, userID)
	if err != nil {
		return Consultation{}, err
	}
	if !canTransition(c.Status, StatusCancelled) {
		return Consultation{}, ErrInvalidTransition
	}
	c.Status = StatusCancelled
	if err := s.Repo.Update(ctx, c); err != nil {
		return Consultation{}, err
	}
	return c, nil
}

func (s *Service) getForDoctor(ctx context.Context, consultationID, doctorID string) (Consultation, error) {
	c, err := s.Repo.GetByID(ctx, consultationID)
	if err != nil {
		return Consultation{}, err
	}
	if c.DoctorID != doctorID {
		return Consultation{}, ErrNotFound
	}
	return c, nil
}

func (s *Service) joinDoctors(ctx context.Context, list []Consultation) ([]WithDoctor, error) {
	return join.WithJoin(ctx, list,
		func(c Consultation) string { return c.DoctorID },
		func(ctx context.Context, doctorID string) (doctors.Doctor, error) {
			doctor, err := s.Doctors.GetByID(ctx, doctorID)
			if errors.Is(err, doctors.ErrNotFound) {
				return doctors.Doctor{}, join.ErrNotFound
			}
			return doctor, err
		})
}
