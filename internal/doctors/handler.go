package doctors

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

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

// RegisterPublicRoutes attaches the patient-facing doctor directory.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/doctors", h.listActive)
}

// RegisterAdminRoutes attaches profile management routes. The group is
// expected to be guarded by an admin check.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/doctors", h.listAll)
	rg.POST("/doctors", h.create)
	rg.PUT("/doctors/:id", h.update)
	rg.POST("/doctors/:id/toggle", h.toggleActive)
	rg.DELETE("/doctors/:id", h.remove)
}

func (h *Handler) listActive(c *gin.Context) {
	list, err := h.Svc.ListActive(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list doctors", nil)
		return
	}

	resp := make([]gin.H, 0, len(list))
	for _, d := range list {
		resp = append(resp, gin.H{
			"doctorId":        d.ID,
			"fullName":        d.FullName,
			"specialization":  d.Specialization,
			"workplace":       d.Workplace,
			"position":        d.Position,
			"profileImageUrl": d.ProfileImageURL,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) listAll(c *gin.Context) {
	list, err := h.Svc.ListAll(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list doctors", nil)
		return
	}

	resp := make([]gin.H, 0, len(list))
	for _, d := range list {
		resp = append(resp, toAdminResponse(d))
	}
	respond.JSON(c, http.StatusOK, resp)
}

type createRequest struct {
	Email           string `json:"email"`
	FullName        string `json:"fullName"`
	Specialization  string `json:"specialization"`
	Workplace       string `json:"workplace"`
	Position        string `json:"position"`
	ProfileImageURL string `json:"profileImageUrl"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	d, err := h.Svc.Create(c.Request.Context(), CreateInput{
		Email:           req.Email,
		FullName:        req.FullName,
		Specialization:  req.Specialization,
		Workplace:       req.Workplace,
		Position:        req.Position,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "email and fullName are required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create doctor", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toAdminResponse(d))
}

type updateRequest struct {
	Email           *string `json:"email"`
	FullName        *string `json:"fullName"`
	Specialization  *string `json:"specialization"`
	Workplace       *string `json:"workplace"`
	Position        *string `json:"position"`
	ProfileImageURL *string `json:"profileImageUrl"`
	Active          *bool   `json:"isActive"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	d, err := h.Svc.Update(c.Request.Context(), c.Param("id"), UpdateInput{
		Email:           req.Email,
		FullName:        req.FullName,
		Specialization:  req.Specialization,
		Workplace:       req.Workplace,
		Position:        req.Position,
		ProfileImageURL: req.ProfileImageURL,
		Active:          req.Active,
	})
	if err != nil {
		h.writeError(c, err, "failed to update doctor")
		return
	}

	respond.JSON(c, http.StatusOK, toAdminResponse(d))
}

func (h *Handler) toggleActive(c *gin.Context) {
	d, err := h.Svc.ToggleActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to toggle doctor")
		return
	}
	respond.JSON(c, http.StatusOK, toAdminResponse(d))
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "failed to delete doctor")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "doctor not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func toAdminResponse(d Doctor) gin.H {
	return gin.H{
		"doctorId":        d.ID,
		"userId":          d.UserID,
		"email":           d.Email,
		"fullName":        d.FullName,
		"specialization":  d.Specialization,
		"workplace":       d.Workplace,
		"position":        d.Position,
		"profileImageUrl": d.ProfileImageURL,
		"isActive":        d.Active,
		"createdAt":       d.CreatedAt.Format(time.RFC3339),
		"updatedAt":       d.UpdatedAt.Format(time.RFC3339),
	}
}
