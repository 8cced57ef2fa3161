package analyses

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"melanox-backend/internal/shared/server/middleware"
	"melanox-backend/internal/shared/server/respond"
	"melanox-backend/internal/trial"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group. The
// analyze endpoint accepts guests; everything else requires a login.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.analyze)
	rg.GET("/analyses", h.list)
	rg.GET("/analyses/:id", h.get)
	rg.GET("/analyses/:id/image", h.image)
	rg.POST("/analyses/:id/feedback", h.feedback)
	rg.DELETE("/analyses/:id", h.remove)
}

// RegisterAdminRoutes attaches the admin listing. The group is expected
// to be guarded by an admin check.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/analyses", h.adminList)
	rg.GET("/analyses/:id", h.adminGet)
	rg.DELETE("/analyses/:id", h.adminRemove)
}

type analyzeBody struct {
	Image string `json:"image"`
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	actor := trial.ActorFromContext(c)
	outcome, err := h.Svc.Analyze(c.Request.Context(), actor, req.Image)
	if err != nil {
		switch {
		case errors.Is(err, ErrTrialExhausted):
			respond.Error(c, http.StatusForbidden, "login_required", "Free analysis used. Log in to continue.", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "image must be a base64 data URL", nil)
		default:
			respond.Error(c, http.StatusBadGateway, "analysis_failed", "failed to analyze image", nil)
		}
		return
	}

	res := outcome.Analysis.Result()
	body := gin.H{
		"success":    true,
		"prediction": res.Prediction,
		"confidence": res.Confidence,
		"details": gin.H{
			"type":            res.LesionType,
			"risk":            res.RiskLevel,
			"recommendation":  res.Recommendation,
			"characteristics": res.Characteristics,
		},
	}
	if outcome.Stored {
		body["analysisId"] = outcome.Analysis.ID
	}
	if actor.Guest {
		body["trial"] = gin.H{"used": outcome.Used, "limit": outcome.Limit}
	}
	respond.JSON(c, http.StatusOK, body)
}

func (h *Handler) list(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	list, err := h.Svc.ListOwn(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	resp := make([]gin.H, 0, len(list))
	for _, a := range list {
		resp = append(resp, toResponse(a))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	analysis, err := h.Svc.GetOwned(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeError(c, err, "failed to fetch analysis")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(analysis))
}

func (h *Handler) image(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	rc, err := h.Svc.OpenImage(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeError(c, err, "failed to open image")
		return
	}
	defer rc.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(rc, head)
	head = head[:n]

	c.Header("Content-Type", http.DetectContentType(head))
	c.Status(http.StatusOK)
	c.Writer.Write(head)
	io.Copy(c.Writer, rc)
}

type feedbackBody struct {
	Feedback string `json:"feedback"`
}

func (h *Handler) feedback(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req feedbackBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	if err := h.Svc.SaveFeedback(c.Request.Context(), c.Param("id"), userID, req.Feedback); err != nil {
		h.writeError(c, err, "failed to save feedback")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"saved": true})
}

func (h *Handler) remove(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	if err := h.Svc.DeleteOwned(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeError(c, err, "failed to delete analysis")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) adminList(c *gin.Context) {
	filters := AdminFilters{
		Prediction: c.Query("prediction"),
		RiskLevel:  c.Query("risk"),
		UserEmail:  c.Query("email"),
	}
	if v := c.Query("from"); v != "" {
		if ts, err := time.Parse("2006-01-02", v); err == nil {
			filters.From = ts
		}
	}
	if v := c.Query("to"); v != "" {
		if ts, err := time.Parse("2006-01-02", v); err == nil {
			// Inclusive day bound.
			filters.To = ts.Add(24*time.Hour - time.Nanosecond)
		}
	}

	list, err := h.Svc.AdminList(c.Request.Context(), filters)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	resp := make([]gin.H, 0, len(list))
	for _, row := range list {
		item := toResponse(row.Record)
		if row.Relation != nil {
			item["user"] = gin.H{
				"id":       row.Relation.ID,
				"email":    row.Relation.Email,
				"fullName": row.Relation.FullName,
			}
		}
		resp = append(resp, item)
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) adminGet(c *gin.Context) {
	row, err := h.Svc.AdminGet(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to fetch analysis")
		return
	}
	item := toResponse(row.Record)
	if row.Relation != nil {
		item["user"] = gin.H{
			"id":       row.Relation.ID,
			"email":    row.Relation.Email,
			"fullName": row.Relation.FullName,
		}
	}
	respond.JSON(c, http.StatusOK, item)
}

func (h *Handler) adminRemove(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "failed to delete analysis")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
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
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func toResponse(a Analysis) gin.H {
	return gin.H{
		"analysisId":      a.ID,
		"prediction":      a.Prediction,
		"confidence":      a.Confidence,
		"lesionType":      a.LesionType,
		"riskLevel":       a.RiskLevel,
		"recommendation":  a.Recommendation,
		"characteristics": a.Result().Characteristics,
		"medicalFeedback": a.MedicalFeedback,
		"createdAt":       a.CreatedAt.Format(time.RFC3339),
	}
}
