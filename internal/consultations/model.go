package consultations

import "time"

// Consultation statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Consultation is a patient's request for a doctor to review a
// screening result.
type Consultation struct {
	ID         string `json:"id"`
	AnalysisID string `json:"analysisId,omitempty"`
	UserID     string `json:"userId"`
	DoctorID   string `json:"doctorId"`

	PatientFullName    string `json:"patientFullName"`
	PatientAge         int    `json:"patientAge"`
	PatientGender      string `json:"patientGender"`
	PatientPhone       string `json:"patientPhone"`
	PatientEmail       string `json:"patientEmail"`
	PatientAddress     string `json:"patientAddress,omitempty"`
	MedicalHistory     string `json:"medicalHistory,omitempty"`
	CurrentMedications string `json:"currentMedications,omitempty"`
	Allergies          string `json:"allergies,omitempty"`
	AdditionalNotes    string `json:"additionalNotes,omitempty"`

	Status string `json:"status"`

	// Older responses recorded a confirmed diagnosis pair; newer ones
	// record free-text diagnosis, recommendations and notes. Both
	// shapes are kept and surfaced.
	ActualDiagnosis       string `json:"actualDiagnosis,omitempty"`
	ActualLesionType      string `json:"actualLesionType,omitempty"`
	DoctorDiagnosis       string `json:"doctorDiagnosis,omitempty"`
	DoctorRecommendations string `json:"doctorRecommendations,omitempty"`
	DoctorNotes           string `json:"doctorNotes,omitempty"`

	DoctorResponseDate *time.Time `json:"doctorResponseDate,omitempty"`
	Rating             int        `json:"rating,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Responded reports whether the doctor has answered.
func (c Consultation) Responded() bool {
	return c.DoctorResponseDate != nil
}

var statusTransitions = map[string][]string{
	StatusPending:    {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// canTransition reports whether a status change is allowed. Completed
// and cancelled are terminal.
func canTransition(from, to string) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func validStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
