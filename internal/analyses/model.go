package analyses

import (
	"math"
	"time"

	"melanox-backend/internal/classifier"
)

// Analysis is one stored skin-lesion screening result.
type Analysis struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	ImageKey          string    `json:"-"`
	ProcessedImageKey string    `json:"-"`
	Prediction        string    `json:"prediction"`
	Confidence        float64   `json:"confidence"`
	LesionType        string    `json:"lesionType"`
	RiskLevel         string    `json:"riskLevel"`
	Recommendation    string    `json:"recommendation"`
	Asymmetry         string    `json:"asymmetry,omitempty"`
	Border            string    `json:"border,omitempty"`
	Color             string    `json:"color,omitempty"`
	Diameter          string    `json:"diameter,omitempty"`
	MedicalFeedback   string    `json:"medicalFeedback,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// fromResult copies classifier output into the stored record.
// Confidence is normalized here so external backends cannot push values
// outside the percentage range into storage or responses.
func (a *Analysis) fromResult(res classifier.Result) {
	a.Prediction = res.Prediction
	a.Confidence = normalizeConfidence(res.Confidence)
	a.LesionType = res.LesionType
	a.RiskLevel = res.RiskLevel
	a.Recommendation = res.Recommendation
	a.Asymmetry = res.Characteristics.Asymmetry
	a.Border = res.Characteristics.Border
	a.Color = res.Characteristics.Color
	a.Diameter = res.Characteristics.Diameter
}

// normalizeConfidence clamps to [0,100] and keeps 2-decimal precision,
// matching the NUMERIC(5,2) column.
func normalizeConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return math.Round(v*100) / 100
}

// Result rebuilds the classifier-shaped view of the record.
func (a Analysis) Result() classifier.Result {
	return classifier.Result{
		Prediction:     a.Prediction,
		Confidence:     a.Confidence,
		LesionType:     a.LesionType,
		RiskLevel:      a.RiskLevel,
		Recommendation: a.Recommendation,
		Characteristics: classifier.Characteristics{
			Asymmetry: a.Asymmetry,
			Border:    a.Border,
			Color:     a.Color,
			Diameter:  a.Diameter,
		},
	}
}
