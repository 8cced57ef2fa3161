package trial

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"melanox-backend/internal/shared/server/middleware"
	"melanox-backend/internal/shared/server/respond"
)

// Handler exposes trial endpoints for the anonymous free-analysis flow.
type Handler struct {
	Gate *Gate
}

// NewHandler constructs a Handler.
func NewHandler(gate *Gate) *Handler {
	return &Handler{Gate: gate}
}

// RegisterRoutes attaches trial routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/trial", h.getTrial)
	rg.POST("/trial/prompt", h.consumePrompt)
	rg.POST("/trial/reset", h.resetTrial)
}

func (h *Handler) getTrial(c *gin.Context) {
	actor := ActorFromContext(c)
	if !actor.Guest {
		respond.JSON(c, http.StatusOK, gin.H{"unlimited": true})
		return
	}

	used, limit := h.Gate.Usage(c.Request.Context(), actor)
	respond.JSON(c, http.StatusOK, gin.H{
		"used":       used,
		"limit":      limit,
		"canAnalyze": h.Gate.CanInvoke(c.Request.Context(), actor),
	})
}

func (h *Handler) consumePrompt(c *gin.Context) {
	actor := ActorFromContext(c)
	if !actor.Guest {
		respond.JSON(c, http.StatusOK, gin.H{"pending": false})
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"pending": h.Gate.ConsumePrompt(actor.ID)})
}

func (h *Handler) resetTrial(c *gin.Context) {
	actor := ActorFromContext(c)
	if !actor.Guest {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
		return
	}
	h.Gate.Reset(c.Request.Context(), actor.ID)
	respond.JSON(c, http.StatusOK, gin.H{"ok": true})
}

// ActorFromContext builds a trial Actor from the auth middleware identity.
func ActorFromContext(c *gin.Context) Actor {
	return Actor{
		ID:    middleware.UserIDFromContext(c),
		Email: middleware.UserEmailFromContext(c),
		Guest: middleware.IsGuestFromContext(c),
	}
}
