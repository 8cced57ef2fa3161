package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/signintech/gopdf"

	"melanox-backend/internal/analyses"
	"melanox-backend/internal/users"
)

// fontPaths lists common DejaVuSans locations across base images.
var fontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// Service renders analysis results as downloadable PDF reports.
type Service struct {
	FontPath string
}

// Render builds a PDF report for one analysis. user may be zero-valued
// when the owner record is unavailable.
func (s *Service) Render(ctx context.Context, analysis analyses.Analysis, user users.User) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := s.loadFont(&pdf); err != nil {
		return nil, err
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Skin Lesion Screening Report")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Generated: %s", time.Now().Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Analysis ID: %s", analysis.ID))
	pdf.Br(15)
	if user.FullName != "" || user.Email != "" {
		pdf.Cell(nil, fmt.Sprintf("Patient: %s (%s)", user.FullName, user.Email))
		pdf.Br(15)
	}
	pdf.Cell(nil, fmt.Sprintf("Analyzed: %s", analysis.CreatedAt.Format("02.01.2006 15:04")))
	pdf.Br(25)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Result:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Prediction: %s (%.2f%% confidence)", strings.ToUpper(analysis.Prediction), analysis.Confidence))
	pdf.Br(12)
	pdf.Cell(nil, fmt.Sprintf("Lesion type: %s", analysis.LesionType))
	pdf.Br(12)
	pdf.Cell(nil, fmt.Sprintf("Risk level: %s", analysis.RiskLevel))
	pdf.Br(20)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Characteristics:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	for _, row := range []struct{ label, value string }{
		{"Asymmetry", analysis.Asymmetry},
		{"Border", analysis.Border},
		{"Color", analysis.Color},
		{"Diameter", analysis.Diameter},
	} {
		if row.value == "" {
			continue
		}
		pdf.Cell(nil, fmt.Sprintf("- %s: %s", row.label, row.value))
		pdf.Br(12)
	}
	pdf.Br(10)

	if analysis.Recommendation != "" {
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return nil, err
		}
		pdf.Cell(nil, "Recommendation:")
		pdf.Br(15)
		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return nil, err
		}
		lines, _ := pdf.SplitText(analysis.Recommendation, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
	}

	if analysis.MedicalFeedback != "" {
		pdf.Br(10)
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return nil, err
		}
		pdf.Cell(nil, "Patient notes:")
		pdf.Br(15)
		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return nil, err
		}
		lines, _ := pdf.SplitText(analysis.MedicalFeedback, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
	}

	pdf.SetY(800)
	if err := pdf.SetFont("DejaVu", "", 9); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "This screening is not a medical diagnosis. Consult a dermatologist for any concerns.")

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) loadFont(pdf *gopdf.GoPdf) error {
	paths := fontPaths
	if s.FontPath != "" {
		paths = append([]string{s.FontPath}, paths...)
	}
	var lastErr error
	for _, path := range paths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("failed to load report font: %w", lastErr)
}
