package classifier

import (
	"context"
	"errors"
)

// Characteristics describes the ABCD features extracted from a lesion
// image.
type Characteristics struct {
	Asymmetry string `json:"asymmetry"`
	Border    string `json:"border"`
	Color     string `json:"color"`
	Diameter  string `json:"diameter"`
}

// Result is the outcome of classifying one lesion image.
type Result struct {
	Prediction      string          `json:"prediction"`
	Confidence      float64         `json:"confidence"`
	LesionType      string          `json:"type"`
	RiskLevel       string          `json:"risk"`
	Recommendation  string          `json:"recommendation"`
	Characteristics Characteristics `json:"characteristics"`

	// ProcessedImage is an optional data URL of the annotated image
	// some backends return alongside the verdict.
	ProcessedImage string `json:"-"`
}

// Prediction labels.
const (
	PredictionBenign    = "benign"
	PredictionMalignant = "malignant"
)

// Risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// ErrUnavailable means the classifier backend could not produce a
// result. Callers treat it as a transient failure.
var ErrUnavailable = errors.New("classifier unavailable")

// Client classifies lesion images.
type Client interface {
	Classify(ctx context.Context, image []byte, mimeType string) (Result, error)
}
