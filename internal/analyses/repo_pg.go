package analyses

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const analysisColumns = `
id, user_id, image_url, processed_image_url, prediction, confidence,
lesion_type, risk_level, recommendation, asymmetry, border, color,
diameter, medical_feedback, created_at`

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
	id, user_id, image_url, processed_image_url, prediction, confidence,
	lesion_type, risk_level, recommendation, asymmetry, border, color,
	diameter, medical_feedback, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.DB.ExecContext(ctx, query,
		analysis.ID,
		nullIfEmpty(analysis.UserID),
		analysis.ImageKey,
		nullIfEmpty(analysis.ProcessedImageKey),
		analysis.Prediction,
		analysis.Confidence,
		analysis.LesionType,
		analysis.RiskLevel,
		analysis.Recommendation,
		nullIfEmpty(analysis.Asymmetry),
		nullIfEmpty(analysis.Border),
		nullIfEmpty(analysis.Color),
		nullIfEmpty(analysis.Diameter),
		nullIfEmpty(analysis.MedicalFeedback),
		analysis.CreatedAt,
	)
	return err
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = $1 LIMIT 1`, analysisID)
	return scanAnalysis(row)
}

// ListByUser returns the user's analyses, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Analysis, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

// ListAll returns every analysis, newest first.
func (r *PGRepo) ListAll(ctx context.Context) ([]Analysis, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+analysisColumns+` FROM analyses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

// UpdateFeedback sets the stored medical feedback text.
func (r *PGRepo) UpdateFeedback(ctx context.Context, analysisID, feedback string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE analyses SET medical_feedback = $2 WHERE id = $1`, analysisID, nullIfEmpty(feedback))
	if err != nil {
		return err
	}
	return requireAnalysisRow(res)
}

// Delete removes an analysis.
func (r *PGRepo) Delete(ctx context.Context, analysisID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM analyses WHERE id = $1`, analysisID)
	if err != nil {
		return err
	}
	return requireAnalysisRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var a Analysis
	var userID, processedKey sql.NullString
	var asymmetry, border, color, diameter, feedback sql.NullString
	err := row.Scan(
		&a.ID,
		&userID,
		&a.ImageKey,
		&processedKey,
		&a.Prediction,
		&a.Confidence,
		&a.LesionType,
		&a.RiskLevel,
		&a.Recommendation,
		&asymmetry,
		&border,
		&color,
		&diameter,
		&feedback,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	a.UserID = userID.String
	a.ProcessedImageKey = processedKey.String
	a.Asymmetry = asymmetry.String
	a.Border = border.String
	a.Color = color.String
	a.Diameter = diameter.String
	a.MedicalFeedback = feedback.String
	return a, nil
}

func collectAnalyses(rows *sql.Rows) ([]Analysis, error) {
	var out []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Analysis{}
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireAnalysisRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
