package roles

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"melanox-backend/internal/shared/server/middleware"
	"melanox-backend/internal/shared/server/respond"
)

const doctorIDKey = "doctorId"

// ActorFromContext builds the resolver actor from request identity.
func ActorFromContext(c *gin.Context) Actor {
	return Actor{
		ID:    middleware.UserIDFromContext(c),
		Email: middleware.UserEmailFromContext(c),
		Guest: middleware.IsGuestFromContext(c),
	}
}

// RequireAdmin rejects requests from actors outside the admin
// allow-list with 403.
func RequireAdmin(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if actor.Guest || !r.IsAdmin(actor.Email) {
			respond.Error(c, http.StatusForbidden, "forbidden", "admin access required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireDoctor resolves the actor's doctor profile and stores its id
// in the request context. Requests without a profile get 403.
func RequireDoctor(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorID, err := r.ResolveDoctorID(c.Request.Context(), ActorFromContext(c))
		if err != nil {
			respond.Error(c, http.StatusForbidden, "forbidden", "doctor access required", nil)
			c.Abort()
			return
		}
		c.Set(doctorIDKey, doctorID)
		c.Next()
	}
}

// DoctorIDFromContext returns the doctor id set by RequireDoctor.
func DoctorIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(doctorIDKey); ok {
		if id, ok2 := v.(string); ok2 {
			return id
		}
	}
	return ""
}
