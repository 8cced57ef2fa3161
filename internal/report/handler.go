package report

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"melanox-backend/internal/analyses"
	"melanox-backend/internal/shared/server/middleware"
	"melanox-backend/internal/shared/server/respond"
	"melanox-backend/internal/users"
)

// Handler serves PDF downloads of screening results.
type Handler struct {
	Svc      *Service
	Analyses *analyses.Service
	Users    users.Repo
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, analysesSvc *analyses.Service, usersRepo users.Repo) *Handler {
	return &Handler{Svc: svc, Analyses: analysesSvc, Users: usersRepo}
}

// RegisterRoutes attaches the report route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analyses/:id/report", h.download)
}

func (h *Handler) download(c *gin.Context) {
	if middleware.IsGuestFromContext(c) {
		respond.Error(c, http.StatusUnauthorized, "login_required", "Login required", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)

	analysis, err := h.Analyses.GetOwned(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, analyses.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load analysis", nil)
		return
	}

	// Owner lookup is best effort; the report renders without it.
	owner, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		owner = users.User{}
	}

	pdf, err := h.Svc.Render(c.Request.Context(), analysis, owner)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render report", nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="screening-%s.pdf"`, analysis.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
