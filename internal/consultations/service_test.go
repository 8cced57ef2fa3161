package consultations

import (
	"context"
	"errors"
	"testing"
	"time"

	"melanox-backend/internal/analyses"
	"melanox-backend/internal/doctors"
)

func newTestService(t *testing.T) (*Service, doctors.Doctor) {
	t.Helper()
	doctorRepo := doctors.NewMemoryRepo()
	doctor := doctors.Doctor{ID: "d1", Email: "doc@clinic.test", FullName: "Dr. A", Active: true, CreatedAt: time.Now().UTC()}
	if err := doctorRepo.Create(context.Background(), doctor); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	svc := &Service{
		Repo:     NewMemoryRepo(),
		Doctors:  doctorRepo,
		Analyses: analyses.NewMemoryRepo(),
	}
	return svc, doctor
}

func validInput(doctorID string) CreateInput {
	return CreateInput{
		DoctorID:        doctorID,
		PatientFullName: "Jane Roe",
		PatientAge:      34,
		PatientGender:   "female",
		PatientPhone:    "+15551234567",
		PatientEmail:    "jane@example.com",
	}
}

func TestCreateStartsPending(t *testing.T) {
	svc, doctor := newTestService(t)

	c, err := svc.Create(context.Background(), "google:1", validInput(doctor.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != StatusPending {
		t.Fatalf("status %q, want pending", c.Status)
	}
	if c.ID == "" || c.UserID != "google:1" {
		t.Fatalf("bad record: %+v", c)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"missing doctor", CreateInput{PatientFullName: "Jane", PatientAge: 30, PatientPhone: "+1555"}},
		{"unknown doctor", func() CreateInput { in := validInput("ghost"); return in }()},
		{"missing name", func() CreateInput { in := validInput(doctor.ID); in.PatientFullName = " "; return in }()},
		{"zero age", func() CreateInput { in := validInput(doctor.ID); in.PatientAge = 0; return in }()},
		{"absurd age", func() CreateInput { in := validInput(doctor.ID); in.PatientAge = 200; return in }()},
		{"missing phone", func() CreateInput { in := validInput(doctor.ID); in.PatientPhone = ""; return in }()},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, "google:1", tc.in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: got %v, want ErrInvalidInput", tc.name, err)
		}
	}
}

func TestCreateRejectsHiddenDoctor(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	doctor.Active = false
	if err := svc.Doctors.Update(ctx, doctor); err != nil {
		t.Fatalf("hide doctor: %v", err)
	}

	if _, err := svc.Create(ctx, "google:1", validInput(doctor.ID)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("hidden doctor must not accept bookings, got %v", err)
	}
}

func TestCreateRejectsForeignAnalysis(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	if err := svc.Analyses.Create(ctx, analyses.Analysis{ID: "a1", UserID: "google:2", ImageKey: "k", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("seed analysis: %v", err)
	}

	in := validInput(doctor.ID)
	in.AnalysisID = "a1"
	if _, err := svc.Create(ctx, "google:1", in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("foreign analysis must be rejected, got %v", err)
	}
}

func TestRespondCompletesAndStampsDate(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "google:1", validInput(doctor.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	answered, err := svc.Respond(ctx, c.ID, doctor.ID, RespondInput{
		DoctorDiagnosis:       "Benign nevus, no concern",
		DoctorRecommendations: "Re-check in 12 months",
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if answered.Status != StatusCompleted {
		t.Fatalf("status %q, want completed", answered.Status)
	}
	if !answered.Responded() {
		t.Fatalf("response date missing")
	}

	// Terminal: a second response is rejected.
	if _, err := svc.Respond(ctx, c.ID, doctor.ID, RespondInput{DoctorDiagnosis: "changed my mind"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second respond: got %v, want ErrInvalidTransition", err)
	}
}

func TestRespondAcceptsAnyResponseField(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "google:1", validInput(doctor.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Respond(ctx, c.ID, doctor.ID, RespondInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty respond: got %v, want ErrInvalidInput", err)
	}

	answered, err := svc.Respond(ctx, c.ID, doctor.ID, RespondInput{
		DoctorRecommendations: "Biopsy within two weeks",
	})
	if err != nil {
		t.Fatalf("recommendations-only respond: %v", err)
	}
	if answered.Status != StatusCompleted || answered.DoctorRecommendations == "" {
		t.Fatalf("recommendations-only respond not recorded: %+v", answered)
	}
}

func TestRespondRequiresAssignedDoctor(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "google:1", validInput(doctor.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Respond(ctx, c.ID, "other-doctor", RespondInput{DoctorDiagnosis: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign doctor must not see the consultation, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "google:1", validInput(doctor.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, c.ID, doctor.ID, "bogus"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bogus status: got %v", err)
	}

	moved, err := svc.UpdateStatus(ctx, c.ID, doctor.ID, StatusInProgress)
	if err != nil {
		t.Fatalf("to in_progress: %v", err)
	}
	if moved.Status != StatusInProgress {
		t.Fatalf("status %q", moved.Status)
	}

	if _, err := svc.UpdateStatus(ctx, c.ID, doctor.ID, StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("backwards transition: got %v", err)
	}

	done, err := svc.UpdateStatus(ctx, c.ID, doctor.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, done.ID, doctor.ID, StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed is terminal, got %v", err)
	}
}

func TestRatingRules(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "google:1", validInput(doctor.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Not completed yet.
	if _, err := svc.Rate(ctx, c.ID, "google:1", 5); !errors.Is(err, ErrNotCompleted) {
		t.Fatalf("rate before completion: got %v", err)
	}

	if _, err := svc.Respond(ctx, c.ID, doctor.ID, RespondInput{DoctorDiagnosis: "ok"}); err != nil {
		t.Fatalf("respond: %v", err)
	}

	// Bounds.
	if _, err := svc.Rate(ctx, c.ID, "google:1", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("rating 0: got %v", err)
	}
	if _, err := svc.Rate(ctx, c.ID, "google:1", 6); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("rating 6: got %v", err)
	}

	rated, err := svc.Rate(ctx, c.ID, "google:1", 4)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rated.Rating != 4 {
		t.Fatalf("rating %d", rated.Rating)
	}

	// Only once.
	if _, err := svc.Rate(ctx, c.ID, "google:1", 5); !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("second rating: got %v", err)
	}

	// Only the owner.
	if _, err := svc.Rate(ctx, c.ID, "google:2", 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign rating: got %v", err)
	}
}

func TestCancelOnlyWhileOpen(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "google:1", validInput(doctor.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, c.ID, "google:1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("status %q", cancelled.Status)
	}

	if _, err := svc.Cancel(ctx, c.ID, "google:1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double cancel: got %v", err)
	}
}

func TestListOwnJoinsDoctor(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "google:1", validInput(doctor.ID)); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := svc.ListOwn(ctx, "google:1")
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 row, got %d", len(list))
	}
	if list[0].Relation == nil || list[0].Relation.FullName != "Dr. A" {
		t.Fatalf("doctor not joined: %+v", list[0].Relation)
	}
}

func TestDoctorQueueJoinsAnalyses(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	if err := svc.Analyses.Create(ctx, analyses.Analysis{
		ID: "a1", UserID: "google:1", ImageKey: "k", Prediction: "malignant", RiskLevel: "high", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed analysis: %v", err)
	}

	in := validInput(doctor.ID)
	in.AnalysisID = "a1"
	if _, err := svc.Create(ctx, "google:1", in); err != nil {
		t.Fatalf("create with analysis: %v", err)
	}
	if _, err := svc.Create(ctx, "google:1", validInput(doctor.ID)); err != nil {
		t.Fatalf("create without analysis: %v", err)
	}

	queue, err := svc.ListForDoctor(ctx, doctor.ID)
	if err != nil {
		t.Fatalf("doctor queue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(queue))
	}

	var withAnalysis, without int
	for _, row := range queue {
		if row.Relation != nil {
			withAnalysis++
			if row.Relation.Prediction != "malignant" {
				t.Fatalf("wrong analysis joined: %+v", row.Relation)
			}
		} else {
			without++
		}
	}
	if withAnalysis != 1 || without != 1 {
		t.Fatalf("join mismatch: %d with, %d without", withAnalysis, without)
	}
}

func TestLastForPrefill(t *testing.T) {
	svc, doctor := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Last(ctx, "google:1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty history: got %v", err)
	}

	first := validInput(doctor.ID)
	first.PatientPhone = "+10000000001"
	if _, err := svc.Create(ctx, "google:1", first); err != nil {
		t.Fatalf("create first: %v", err)
	}

	second := validInput(doctor.ID)
	second.PatientPhone = "+10000000002"
	c2, err := svc.Create(ctx, "google:1", second)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	// Force distinct creation order for the newest-first contract.
	c2.CreatedAt = c2.CreatedAt.Add(time.Second)
	if err := svc.Repo.Update(ctx, c2); err != nil {
		t.Fatalf("bump timestamp: %v", err)
	}

	last, err := svc.Last(ctx, "google:1")
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last.PatientPhone != "+10000000002" {
		t.Fatalf("expected most recent consultation, got %+v", last)
	}
}
