package consultations

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

const consultationColumns = `
id, analysis_id, user_id, doctor_id, patient_full_name, patient_age,
patient_gender, patient_phone, patient_email, patient_address,
medical_history, current_medications, allergies, additional_notes,
status, actual_diagnosis, actual_lesion_type, doctor_diagnosis,
doctor_recommendations, doctor_notes, doctor_response_date, rating,
created_at, updated_at`

// Create inserts a new consultation.
func (r *PGRepo) Create(ctx context.Context, c Consultation) error {
	const query = `
INSERT INTO consultations (
	id, analysis_id, user_id, doctor_id, patient_full_name, patient_age,
	patient_gender, patient_phone, patient_email, patient_address,
	medical_history, current_medications, allergies, additional_notes,
	status, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.DB.ExecContext(ctx, query,
		c.ID,
		nullIfEmpty(c.AnalysisID),
		c.UserID,
		c.DoctorID,
		c.PatientFullName,
		c.PatientAge,
		c.PatientGender,
		c.PatientPhone,
		c.PatientEmail,
		nullIfEmpty(c.PatientAddress),
		nullIfEmpty(c.MedicalHistory),
		nullIfEmpty(c.CurrentMedications),
		nullIfEmpty(c.Allergies),
		nullIfEmpty(c.AdditionalNotes),
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

// GetByID returns a consultation by ID.
func (r *PGRepo) GetByID(ctx context.Context, consultationID string) (Consultation, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+consultationColumns+` FROM consultations WHERE id = $1 LIMIT 1`, consultationID)
	return scanConsultation(row)
}

// ListByUser returns the user's consultations, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Consultation, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+consultationColumns+` FROM consultations WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConsultations(rows)
}

// ListByDoctor returns the doctor's consultations, newest first.
func (r *PGRepo) ListByDoctor(ctx context.Context, doctorID string) ([]Consultation, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+consultationColumns+` FROM consultations WHERE doctor_id = $1 ORDER BY created_at DESC`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConsultations(rows)
}

// ListAll returns every consultation, newest first.
func (r *PGRepo) ListAll(ctx context.Context) ([]Consultation, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+consultationColumns+` FROM consultations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConsultations(rows)
}

// Update replaces the mutable consultation fields.
func (r *PGRepo) Update(ctx context.Context, c Consultation) error {
	const query = `
UPDATE consultations
SET status = $2, actual_diagnosis = $3, actual_lesion_type = $4,
    doctor_diagnosis = $5, doctor_recommendations = $6, doctor_notes = $7,
    doctor_response_date = $8, rating = $9, updated_at = $10
WHERE id = $1`
	var responseDate any
	if c.DoctorResponseDate != nil {
		responseDate = *c.DoctorResponseDate
	}
	var rating any
	if c.Rating > 0 {
		rating = c.Rating
	}
	res, err := r.DB.ExecContext(ctx, query,
		c.ID,
		c.Status,
		nullIfEmpty(c.ActualDiagnosis),
		nullIfEmpty(c.ActualLesionType),
		nullIfEmpty(c.DoctorDiagnosis),
		nullIfEmpty(c.DoctorRecommendations),
		nullIfEmpty(c.DoctorNotes),
		responseDate,
		rating,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsultation(row rowScanner) (Consultation, error) {
	var c Consultation
	var analysisID, address, history, medications, allergies, notes sql.NullString
	var actualDiagnosis, actualLesion, diagnosis, recommendations, doctorNotes sql.NullString
	var responseDate sql.NullTime
	var rating sql.NullInt64
	err := row.Scan(
		&c.ID,
		&analysisID,
		&c.UserID,
		&c.DoctorID,
		&c.PatientFullName,
		&c.PatientAge,
		&c.PatientGender,
		&c.PatientPhone,
		&c.PatientEmail,
		&address,
		&history,
		&medications,
		&allergies,
		&notes,
		&c.Status,
		&actualDiagnosis,
		&actualLesion,
		&diagnosis,
		&recommendations,
		&doctorNotes,
		&responseDate,
		&rating,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Consultation{}, ErrNotFound
		}
		return Consultation{}, err
	}
	c.AnalysisID = analysisID.String
	c.PatientAddress = address.String
	c.MedicalHistory = history.String
	c.CurrentMedications = medications.String
	c.Allergies = allergies.String
	c.AdditionalNotes = notes.String
	c.ActualDiagnosis = actualDiagnosis.String
	c.ActualLesionType = actualLesion.String
	c.DoctorDiagnosis = diagnosis.String
	c.DoctorRecommendations = recommendations.String
	c.DoctorNotes = doctorNotes.String
	if responseDate.Valid {
		ts := responseDate.Time
		c.DoctorResponseDate = &ts
	}
	c.Rating = int(rating.Int64)
	return c, nil
}

func collectConsultations(rows *sql.Rows) ([]Consultation, error) {
	var out []Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Consultation{}
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
