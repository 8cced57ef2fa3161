package consultations_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"melanox-backend/internal/analyses"
	"melanox-backend/internal/consultations"
	"melanox-backend/internal/doctors"
	"melanox-backend/internal/roles"
)

type testEnv struct {
	router *gin.Engine
	doctor doctors.Doctor
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()

	doctorRepo := doctors.NewMemoryRepo()
	doctor := doctors.Doctor{ID: "d1", UserID: "google:doc", Email: "doc@clinic.test", FullName: "Dr. A", Active: true, CreatedAt: time.Now().UTC()}
	if err := doctorRepo.Create(ctx, doctor); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}

	svc := &consultations.Service{
		Repo:     consultations.NewMemoryRepo(),
		Doctors:  doctorRepo,
		Analyses: analyses.NewMemoryRepo(),
	}
	h := consultations.NewHandler(svc)
	resolver := roles.NewResolver([]string{"admin@example.com"}, doctorRepo)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-Test-User"); userID != "" {
			c.Set("userId", userID)
			c.Set("userEmail", c.GetHeader("X-Test-Email"))
			c.Set("isGuest", false)
		}
		c.Next()
	})
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)
	h.RegisterDoctorRoutes(api.Group("/doctor", roles.RequireDoctor(resolver)))
	h.RegisterAdminRoutes(api.Group("/admin", roles.RequireAdmin(resolver)))
	return testEnv{router: router, doctor: doctor}
}

func do(t *testing.T, env testEnv, method, path, userID, email string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	if email != "" {
		req.Header.Set("X-Test-Email", email)
	}
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	return resp
}

func bookConsultation(t *testing.T, env testEnv) string {
	t.Helper()
	resp := do(t, env, http.MethodPost, "/api/v1/consultations", "google:patient", "", gin.H{
		"doctorId":        env.doctor.ID,
		"patientFullName": "Jane Roe",
		"patientAge":      34,
		"patientPhone":    "+15551234567",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("book: %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ConsultationID string `json:"consultationId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return created.ConsultationID
}

func TestDoctorQueueRequiresProfile(t *testing.T) {
	env := newTestEnv(t)

	resp := do(t, env, http.MethodGet, "/api/v1/doctor/consultations", "google:stranger", "s@x.test", nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("stranger queue: got %d, want 403", resp.Code)
	}

	resp = do(t, env, http.MethodGet, "/api/v1/doctor/consultations", "google:doc", "doc@clinic.test", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("doctor queue: got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDoctorRespondFlow(t *testing.T) {
	env := newTestEnv(t)
	id := bookConsultation(t, env)

	resp := do(t, env, http.MethodPost, "/api/v1/doctor/consultations/"+id+"/respond", "google:doc", "doc@clinic.test", gin.H{
		"doctorDiagnosis":       "Benign nevus",
		"doctorRecommendations": "Re-check in 12 months",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("respond: %d: %s", resp.Code, resp.Body.String())
	}
	var answered struct {
		Status             string `json:"status"`
		DoctorResponseDate string `json:"doctorResponseDate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&answered); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if answered.Status != consultations.StatusCompleted || answered.DoctorResponseDate == "" {
		t.Fatalf("unexpected response: %+v", answered)
	}

	// Patient can now rate.
	respRate := do(t, env, http.MethodPost, "/api/v1/consultations/"+id+"/rating", "google:patient", "", gin.H{"rating": 5})
	if respRate.Code != http.StatusOK {
		t.Fatalf("rate: %d: %s", respRate.Code, respRate.Body.String())
	}

	respAgain := do(t, env, http.MethodPost, "/api/v1/consultations/"+id+"/rating", "google:patient", "", gin.H{"rating": 1})
	if respAgain.Code != http.StatusConflict {
		t.Fatalf("second rating: got %d, want 409", respAgain.Code)
	}
}

func TestAdminListRequiresAllowList(t *testing.T) {
	env := newTestEnv(t)
	bookConsultation(t, env)

	resp := do(t, env, http.MethodGet, "/api/v1/admin/consultations", "google:user", "user@example.com", nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("non-admin: got %d, want 403", resp.Code)
	}

	resp = do(t, env, http.MethodGet, "/api/v1/admin/consultations", "google:admin", "admin@example.com", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin: got %d: %s", resp.Code, resp.Body.String())
	}
	var list []struct {
		Doctor struct {
			FullName string `json:"fullName"`
		} `json:"doctor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Doctor.FullName != "Dr. A" {
		t.Fatalf("expected joined doctor in admin list: %+v", list)
	}
}
