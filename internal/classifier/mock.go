package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"time"
)

// MockClient produces deterministic pseudo-results without a model
// backend. The result is derived from the image bytes, so the same
// image always classifies the same way. Used in dev and tests.
type MockClient struct {
	// Delay simulates model latency. Zero means no delay.
	Delay time.Duration
}

// Classify derives a stable result from a hash of the image.
func (m *MockClient) Classify(ctx context.Context, image []byte, mimeType string) (Result, error) {
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sum := sha256.Sum256(image)
	rng := rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(sum[:8]))))

	malignant := rng.Float64() < 0.3
	if malignant {
		return Result{
			Prediction:     PredictionMalignant,
			Confidence:     round2(70 + rng.Float64()*25),
			LesionType:     "Melanoma",
			RiskLevel:      RiskHigh,
			Recommendation: "Immediate consultation with a dermatologist is recommended",
			Characteristics: Characteristics{
				Asymmetry: "Asymmetric shape detected",
				Border:    "Irregular, poorly defined borders",
				Color:     "Multiple colors present",
				Diameter:  "Larger than 6mm",
			},
		}, nil
	}

	return Result{
		Prediction:     PredictionBenign,
		Confidence:     round2(75 + rng.Float64()*24),
		LesionType:     "Benign nevus",
		RiskLevel:      RiskLow,
		Recommendation: "Routine monitoring, re-check in 6 months",
		Characteristics: Characteristics{
			Asymmetry: "Symmetric shape",
			Border:    "Regular, well-defined borders",
			Color:     "Uniform coloration",
			Diameter:  "Smaller than 6mm",
		},
	}, nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
