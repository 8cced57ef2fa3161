package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"melanox-backend/internal/analyses"
	googleauth "melanox-backend/internal/auth"
	"melanox-backend/internal/classifier"
	"melanox-backend/internal/consultations"
	"melanox-backend/internal/doctors"
	"melanox-backend/internal/report"
	"melanox-backend/internal/roles"
	"melanox-backend/internal/shared/config"
	"melanox-backend/internal/shared/server"
	"melanox-backend/internal/shared/storage/db"
	"melanox-backend/internal/shared/storage/object"
	localstore "melanox-backend/internal/shared/storage/object/local"
	s3store "melanox-backend/internal/shared/storage/object/s3"
	"melanox-backend/internal/trial"
	"melanox-backend/internal/users"
)

var errDatabaseRequired = errors.New("DATABASE_URL is required")

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	DoctorsRepo       doctors.Repo
	AnalysesRepo      analyses.Repo
	ConsultationsRepo consultations.Repo
	UsersRepo         users.Repo

	TrialGate  *trial.Gate
	Resolver   *roles.Resolver
	Classifier classifier.Client

	DoctorsService       *doctors.Service
	AnalysesService      *analyses.Service
	ConsultationsService *consultations.Service
	UsersService         *users.Service
	ReportService        *report.Service
	GoogleAuth           *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              app.Config,
		Resolver:            app.Resolver,
		AnalysisHandler:     analyses.NewHandler(app.AnalysesService),
		ConsultationHandler: consultations.NewHandler(app.ConsultationsService),
		DoctorHandler:       doctors.NewHandler(app.DoctorsService),
		TrialHandler:        trial.NewHandler(app.TrialGate),
		UserHandler:         users.NewHandler(app.UsersService),
		ReportHandler:       report.NewHandler(app.ReportService, app.AnalysesService, app.UsersRepo),
		GoogleAuth:          app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, errDatabaseRequired
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildClassifier(cfg config.Config) classifier.Client {
	if cfg.ClassifierMode == "http" && strings.TrimSpace(cfg.ClassifierURL) != "" {
		return classifier.NewHTTPClient(cfg.ClassifierURL)
	}
	return &classifier.MockClient{Delay: 300 * time.Millisecond}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.DoctorsRepo = &doctors.PGRepo{DB: app.DB}
		app.AnalysesRepo = &analyses.PGRepo{DB: app.DB}
		app.ConsultationsRepo = &consultations.PGRepo{DB: app.DB}
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.TrialGate = trial.NewGate(trial.NewPGStore(app.DB))
	} else {
		app.DoctorsRepo = doctors.NewMemoryRepo()
		app.AnalysesRepo = analyses.NewMemoryRepo()
		app.ConsultationsRepo = consultations.NewMemoryRepo()
		app.UsersRepo = users.NewMemoryRepo()
		app.TrialGate = trial.NewGate(trial.NewMemoryStore())
	}

	app.Classifier = buildClassifier(app.Config)
	app.Resolver = roles.NewResolver(app.Config.AdminEmails, app.DoctorsRepo)

	app.DoctorsService = &doctors.Service{Repo: app.DoctorsRepo}
	app.AnalysesService = &analyses.Service{
		Repo:       app.AnalysesRepo,
		Store:      app.Store,
		Classifier: app.Classifier,
		Gate:       app.TrialGate,
		Users:      app.UsersRepo,
	}
	app.ConsultationsService = &consultations.Service{
		Repo:     app.ConsultationsRepo,
		Doctors:  app.DoctorsRepo,
		Analyses: app.AnalysesRepo,
	}
	app.UsersService = users.NewService(app.UsersRepo)
	app.ReportService = &report.Service{}
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		app.UsersService,
		app.TrialGate,
	)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
