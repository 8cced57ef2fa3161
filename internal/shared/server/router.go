package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"melanox-backend/internal/analyses"
	googleauth "melanox-backend/internal/auth"
	"melanox-backend/internal/consultations"
	"melanox-backend/internal/doctors"
	"melanox-backend/internal/report"
	"melanox-backend/internal/roles"
	"melanox-backend/internal/shared/config"
	"melanox-backend/internal/shared/metrics"
	"melanox-backend/internal/shared/server/middleware"
	"melanox-backend/internal/shared/server/respond"
	"melanox-backend/internal/trial"
	"melanox-backend/internal/users"
)

// RouterDeps carries the wired handlers the router mounts.
type RouterDeps struct {
	Config              config.Config
	Resolver            *roles.Resolver
	AnalysisHandler     *analyses.Handler
	ConsultationHandler *consultations.Handler
	DoctorHandler       *doctors.Handler
	TrialHandler        *trial.Handler
	UserHandler         *users.Handler
	ReportHandler       *report.Handler
	GoogleAuth          *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes
// registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(
			"/api/v1/health",
			"/api/v1/metrics",
			"/api/v1/auth/google",
			"/api/v1/doctors",
		),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"ANALYZE": {Rate: 0.5, Burst: 5},
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/analyses" {
					return "ANALYZE"
				}
				return ""
			},
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	deps.GoogleAuth.RegisterRoutes(api)
	deps.TrialHandler.RegisterRoutes(api)
	deps.DoctorHandler.RegisterPublicRoutes(api)
	deps.AnalysisHandler.RegisterRoutes(api)
	deps.ConsultationHandler.RegisterRoutes(api)
	deps.UserHandler.RegisterRoutes(api)
	deps.ReportHandler.RegisterRoutes(api)

	doctorPanel := api.Group("/doctor", roles.RequireDoctor(deps.Resolver))
	deps.ConsultationHandler.RegisterDoctorRoutes(doctorPanel)

	admin := api.Group("/admin", roles.RequireAdmin(deps.Resolver))
	deps.DoctorHandler.RegisterAdminRoutes(admin)
	deps.AnalysisHandler.RegisterAdminRoutes(admin)
	deps.ConsultationHandler.RegisterAdminRoutes(admin)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
