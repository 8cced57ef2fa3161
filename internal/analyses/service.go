package analyses

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"

	"melanox-backend/internal/classifier"
	"melanox-backend/internal/join"
	"melanox-backend/internal/shared/metrics"
	"melanox-backend/internal/shared/storage/object"
	"melanox-backend/internal/shared/telemetry"
	"melanox-backend/internal/shared/util"
	"melanox-backend/internal/trial"
	"melanox-backend/internal/users"
)

// anonymousNamespace is the object-store namespace for guest uploads.
const anonymousNamespace = "anonymous"

// Service contains business logic for analyses.
type Service struct {
	Repo       Repo
	Store      object.ObjectStore
	Classifier classifier.Client
	Gate       *trial.Gate
	Users      users.Repo
}

// Outcome is the result of running one analysis.
type Outcome struct {
	Analysis Analysis
	// Stored is false for guest runs, which are never written to history.
	Stored bool
	// Used/Limit report trial consumption for guest actors.
	Used  int
	Limit int
}

// Analyze decodes the uploaded image, classifies it and, for signed-in
// users, stores the result. Guests are checked against the trial gate
// first and counted after a successful run.
func (s *Service) Analyze(ctx context.Context, actor trial.Actor, rawImage string) (Outcome, error) {
	if strings.TrimSpace(rawImage) == "" {
		return Outcome{}, ErrInvalidInput
	}
	if !s.Gate.CanInvoke(ctx, actor) {
		return Outcome{}, ErrTrialExhausted
	}

	data, mimeType, err := util.DecodeDataURL(rawImage)
	if err != nil {
		return Outcome{}, ErrInvalidInput
	}

	metrics.IncAnalysisStarted()
	started := time.Now()

	namespace := actor.ID
	if actor.Guest || namespace == "" {
		namespace = anonymousNamespace
	}
	fileName := "lesion-" + uuid.NewString() + extensionFor(mimeType)
	storageKey, _, detectedMime, err := s.Store.Save(ctx, namespace, fileName, bytes.NewReader(data))
	if err != nil {
		metrics.IncAnalysisFailed()
		return Outcome{}, err
	}
	if mimeType == "" {
		mimeType = detectedMime
	}

	result, err := s.Classifier.Classify(ctx, data, mimeType)
	if err != nil {
		metrics.IncAnalysisFailed()
		return Outcome{}, err
	}

	analysis := Analysis{
		ID:        uuid.NewString(),
		ImageKey:  storageKey,
		CreatedAt: time.Now().UTC(),
	}
	analysis.fromResult(result)

	if result.ProcessedImage != "" {
		if processed, processedMime, decErr := util.DecodeDataURL(result.ProcessedImage); decErr == nil {
			processedName := "lesion-processed-" + uuid.NewString() + extensionFor(processedMime)
			if key, _, _, saveErr := s.Store.Save(ctx, namespace, processedName, bytes.NewReader(processed)); saveErr == nil {
				analysis.ProcessedImageKey = key
			} else {
				telemetry.Warn("analyses.processed_image_save_failed", map[string]any{
					"error": saveErr.Error(),
				})
			}
		}
	}

	stored := false
	if !actor.Guest && actor.ID != "" {
		analysis.UserID = actor.ID
		if err := s.Repo.Create(ctx, analysis); err != nil {
			metrics.IncAnalysisFailed()
			return Outcome{}, err
		}
		stored = true
	}

	s.Gate.RecordInvocation(ctx, actor)
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(time.Since(started).Milliseconds()))

	used, limit := s.Gate.Usage(ctx, actor)
	return Outcome{Analysis: analysis, Stored: stored, Used: used, Limit: limit}, nil
}

// ListOwn returns the user's history, newest first.
func (s *Service) ListOwn(ctx context.Context, userID string) ([]Analysis, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID)
}

// GetOwned returns one analysis if it belongs to the user.
func (s *Service) GetOwned(ctx context.Context, analysisID, userID string) (Analysis, error) {
	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return Analysis{}, err
	}
	if analysis.UserID != userID {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

// Get returns one analysis without an ownership check. Callers gate
// access themselves.
func (s *Service) Get(ctx context.Context, analysisID string) (Analysis, error) {
	return s.Repo.GetByID(ctx, analysisID)
}

// DeleteOwned removes the user's analysis.
func (s *Service) DeleteOwned(ctx context.Context, analysisID, userID string) error {
	if _, err := s.GetOwned(ctx, analysisID, userID); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, analysisID)
}

// SaveFeedback stores medical feedback text on the user's analysis.
func (s *Service) SaveFeedback(ctx context.Context, analysisID, userID, feedback string) error {
	if strings.TrimSpace(feedback) == "" {
		return ErrInvalidInput
	}
	if _, err := s.GetOwned(ctx, analysisID, userID); err != nil {
		return err
	}
	return s.Repo.UpdateFeedback(ctx, analysisID, feedback)
}

// OpenImage streams the stored lesion image for an analysis.
func (s *Service) OpenImage(ctx context.Context, analysisID, userID string) (io.ReadCloser, error) {
	analysis, err := s.GetOwned(ctx, analysisID, userID)
	if err != nil {
		return nil, err
	}
	return s.Store.Open(ctx, analysis.ImageKey)
}

// AdminFilters narrows the admin listing. Empty fields are skipped.
type AdminFilters struct {
	Prediction string
	RiskLevel  string
	UserEmail  string
	From       time.Time
	To         time.Time
}

// WithUser is an analysis with its owner attached.
type WithUser = join.Joined[Analysis, users.User]

// AdminList returns every analysis with its owner attached, filtered
// in memory after the join so the email filter can see user fields.
func (s *Service) AdminList(ctx context.Context, f AdminFilters) ([]WithUser, error) {
	list, err := s.Repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	joined, err := join.WithJoin(ctx, list,
		func(a Analysis) string { return a.UserID }, s.fetchOwner)
	if err != nil {
		return nil, err
	}

	filters := join.Filters[WithUser]{
		"prediction": join.Exact(f.Prediction, func(w WithUser) string { return w.Record.Prediction }),
		"risk":       join.Exact(f.RiskLevel, func(w WithUser) string { return w.Record.RiskLevel }),
		"email": join.Substring(f.UserEmail, func(w WithUser) string {
			if w.Relation == nil {
				return ""
			}
			return w.Relation.Email
		}),
		"from": join.DateFrom(f.From, func(w WithUser) time.Time { return w.Record.CreatedAt }),
		"to":   join.DateTo(f.To, func(w WithUser) time.Time { return w.Record.CreatedAt }),
	}
	return join.Apply(joined, filters), nil
}

// AdminGet returns any analysis with its owner attached.
func (s *Service) AdminGet(ctx context.Context, analysisID string) (WithUser, error) {
	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return WithUser{}, err
	}
	joined, err := join.WithJoin(ctx, []Analysis{analysis},
		func(a Analysis) string { return a.UserID }, s.fetchOwner)
	if err != nil {
		return WithUser{}, err
	}
	return joined[0], nil
}

// Delete removes an analysis regardless of owner.
func (s *Service) Delete(ctx context.Context, analysisID string) error {
	return s.Repo.Delete(ctx, analysisID)
}

func (s *Service) fetchOwner(ctx context.Context, userID string) (users.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return users.User{}, join.ErrNotFound
	}
	return user, err
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
