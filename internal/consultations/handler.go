package consultations

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"melanox-backend/internal/roles"
	"melanox-backend/internal/shared/server/middleware"
	"melanox-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches patient-facing consultation routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/consultations", h.create)
	rg.GET("/consultations", h.list)
	rg.GET("/consultations/last", h.last)
	rg.GET("/consultations/:id", h.get)
	rg.POST("/consultations/:id/rating", h.rate)
	rg.POST("/consultations/:id/cancel", h.cancel)
}

// RegisterDoctorRoutes attaches the doctor panel routes. The group is
// expected to be guarded by a doctor check.
func (h *Handler) RegisterDoctorRoutes(rg *gin.RouterGroup) {
	rg.GET("/consultations", h.doctorQueue)
	rg.PUT("/consultations/:id/status", h.updateStatus)
	rg.POST("/consultations/:id/respond", h.respond)
}

// RegisterAdminRoutes attaches the admin listing. The group is expected
// to be guarded by an admin check.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/consultations", h.adminList)
}

type createRequest struct {
	DoctorID           string `json:"doctorId"`
	AnalysisID         string `json:"analysisId"`
	PatientFullName    string `json:"patientFullName"`
	PatientAge         int    `json:"patientAge"`
	PatientGender      string `json:"patientGender"`
	PatientPhone       string `json:"patientPhone"`
	PatientEmail       string `json:"patientEmail"`
	PatientAddress     string `json:"patientAddress"`
	MedicalHistory     string `json:"medicalHistory"`
	CurrentMedications string `json:"currentMedications"`
	Allergies          string `json:"allergies"`
	AdditionalNotes    string `json:"additionalNotes"`
}

func (h *Handler) create(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	consultation, err := h.Svc.Create(c.Request.Context(), userID, CreateInput{
		DoctorID:           req.DoctorID,
		AnalysisID:         req.AnalysisID,
		PatientFullName:    req.PatientFullName,
		PatientAge:         req.PatientAge,
		PatientGender:      req.PatientGender,
		PatientPhone:       req.PatientPhone,
		PatientEmail:       req.PatientEmail,
		PatientAddress:     req.PatientAddress,
		MedicalHistory:     req.MedicalHistory,
		CurrentMedications: req.CurrentMedications,
		Allergies:          req.Allergies,
		AdditionalNotes:    req.AdditionalNotes,
	})
	if err != nil {
		h.writeError(c, err, "failed to create consultation")
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(consultation))
}

func (h *Handler) list(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	list, err := h.Svc.ListOwn(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list consultations", nil)
		return
	}
	respond.JSON(c, http.StatusOK, withDoctorList(list))
}

func (h *Handler) last(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	consultation, err := h.Svc.Last(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, "failed to load last consultation")
		return
	}

	// Only the reusable patient fields are returned for the prefill.
	respond.JSON(c, http.StatusOK, gin.H{
		"patientFullName":    consultation.PatientFullName,
		"patientAge":         consultation.PatientAge,
		"patientGender":      consultation.PatientGender,
		"patientPhone":       consultation.PatientPhone,
		"patientEmail":       consultation.PatientEmail,
		"patientAddress":     consultation.PatientAddress,
		"medicalHistory":     consultation.MedicalHistory,
		"currentMedications": consultation.CurrentMedications,
		"allergies":          consultation.Allergies,
	})
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

func (h *Handler) get(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	consultation, err := h.Svc.GetOwned(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeError(c, err, "failed to load consultation")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(consultation))
}

func (h *Handler) rate(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	consultation, err := h.Svc.Rate(c.Request.Context(), c.Param("id"), userID, req.Rating)
	if err != nil {
		h.writeError(c, err, "failed to rate consultation")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(consultation))
}

func (h *Handler) cancel(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	consultation, err := h.Svc.Cancel(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeError(c, err, "failed to cancel consultation")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(consultation))
}

func (h *Handler) doctorQueue(c *gin.Context) {
	doctorID := roles.DoctorIDFromContext(c)

	list, err := h.Svc.ListForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list consultations", nil)
		return
	}

	resp := make([]gin.H, 0, len(list))
	for _, row := range list {
		item := toResponse(row.Record)
		if row.Relation != nil {
			item["analysis"] = gin.H{
				"analysisId": row.Relation.ID,
				"prediction": row.Relation.Prediction,
				"confidence": row.Relation.Confidence,
				"riskLevel":  row.Relation.RiskLevel,
			}
		}
		resp = append(resp, item)
	}
	respond.JSON(c, http.StatusOK, resp)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	consultation, err := h.Svc.UpdateStatus(c.Request.Context(), c.Param("id"), roles.DoctorIDFromContext(c), req.Status)
	if err != nil {
		h.writeError(c, err, "failed to update status")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(consultation))
}

type respondRequest struct {
	ActualDiagnosis       string `json:"actualDiagnosis"`
	ActualLesionType      string `json:"actualLesionType"`
	DoctorDiagnosis       string `json:"doctorDiagnosis"`
	DoctorRecommendations string `json:"doctorRecommendations"`
	DoctorNotes           string `json:"doctorNotes"`
}

func (h *Handler) respond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	consultation, err := h.Svc.Respond(c.Request.Context(), c.Param("id"), roles.DoctorIDFromContext(c), RespondInput{
		ActualDiagnosis:       req.ActualDiagnosis,
		ActualLesionType:      req.ActualLesionType,
		DoctorDiagnosis:       req.DoctorDiagnosis,
		DoctorRecommendations: req.DoctorRecommendations,
		DoctorNotes:           req.DoctorNotes,
	})
	if err != nil {
		h.writeError(c, err, "failed to record response")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(consultation))
}

func (h *Handler) adminList(c *gin.Context) {
	list, err := h.Svc.AdminList(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list consultations", nil)
		return
	}
	respond.JSON(c, http.StatusOK, withDoctorList(list))
}

func (h *Handler) requireUser(c *gin.Context) (string, bool) {
	if middleware.IsGuestFromContext(c) {
		respond.Error(c, http.StatusUnauthorized, "login_required", "Login required", nil)
		return "", false
	}
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return "", false
	}
	return userID, true
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "consultation not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, ErrAlreadyRated):
		respond.Error(c, http.StatusConflict, "already_rated", err.Error(), nil)
	case errors.Is(err, ErrNotCompleted):
		respond.Error(c, http.StatusConflict, "not_completed", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func withDoctorList(list []WithDoctor) []gin.H {
	resp := make([]gin.H, 0, len(list))
	for _, row := range list {
		item := toResponse(row.Record)
		if row.Relation != nil {
			item["doctor"] = gin.H{
				"doctorId":        row.Relation.ID,
				"fullName":        row.Relation.FullName,
				"specialization":  row.Relation.Specialization,
				"workplace":       row.Relation.Workplace,
				"profileImageUrl": row.Relation.ProfileImageURL,
			}
		}
		resp = append(resp, item)
	}
	return resp
}

func toResponse(c Consultation) gin.H {
	body := gin.H{
		"consultationId":     c.ID,
		"analysisId":         c.AnalysisID,
		"doctorId":           c.DoctorID,
		"patientFullName":    c.PatientFullName,
		"patientAge":         c.PatientAge,
		"patientGender":      c.PatientGender,
		"patientPhone":       c.PatientPhone,
		"patientEmail":       c.PatientEmail,
		"patientAddress":     c.PatientAddress,
		"medicalHistory":     c.MedicalHistory,
		"currentMedications": c.CurrentMedications,
		"allergies":          c.Allergies,
		"additionalNotes":    c.AdditionalNotes,
		"status":             c.Status,
		"createdAt":          c.CreatedAt.Format(time.RFC3339),
		"updatedAt":          c.UpdatedAt.Format(time.RFC3339),
	}
	if c.Responded() {
		body["actualDiagnosis"] = c.ActualDiagnosis
		body["actualLesionType"] = c.ActualLesionType
		body["doctorDiagnosis"] = c.DoctorDiagnosis
		body["doctorRecommendations"] = c.DoctorRecommendations
		body["doctorNotes"] = c.DoctorNotes
		body["doctorResponseDate"] = c.DoctorResponseDate.Format(time.RFC3339)
	}
	if c.Rating > 0 {
		body["rating"] = c.Rating
	}
	return body
}
