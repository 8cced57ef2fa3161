package doctors_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"melanox-backend/internal/doctors"
)

func newTestRouter() (*gin.Engine, *doctors.Service) {
	gin.SetMode(gin.TestMode)
	svc := &doctors.Service{Repo: doctors.NewMemoryRepo()}
	h := doctors.NewHandler(svc)

	router := gin.New()
	api := router.Group("/api/v1")
	h.RegisterPublicRoutes(api)
	h.RegisterAdminRoutes(api.Group("/admin"))
	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAdminCreateAndPublicList(t *testing.T) {
	router, _ := newTestRouter()

	resp := doJSON(t, router, http.MethodPost, "/api/v1/admin/doctors", gin.H{
		"email":          "ada@clinic.test",
		"fullName":       "Dr. Ada",
		"specialization": "Dermatology",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		DoctorID string `json:"doctorId"`
		IsActive bool   `json:"isActive"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.DoctorID == "" {
		t.Fatalf("expected doctorId, got empty")
	}
	if !created.IsActive {
		t.Fatalf("new doctors should be active by default")
	}

	respList := doJSON(t, router, http.MethodGet, "/api/v1/doctors", nil)
	if respList.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", respList.Code)
	}
	var list []struct {
		DoctorID string `json:"doctorId"`
		FullName string `json:"fullName"`
	}
	if err := json.NewDecoder(respList.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].FullName != "Dr. Ada" {
		t.Fatalf("unexpected public list: %+v", list)
	}
}

func TestCreateRequiresEmailAndName(t *testing.T) {
	router, _ := newTestRouter()

	resp := doJSON(t, router, http.MethodPost, "/api/v1/admin/doctors", gin.H{"email": "x@y.test"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestToggleHidesDoctorFromPublicList(t *testing.T) {
	router, _ := newTestRouter()

	resp := doJSON(t, router, http.MethodPost, "/api/v1/admin/doctors", gin.H{
		"email":    "ada@clinic.test",
		"fullName": "Dr. Ada",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: %d", resp.Code)
	}
	var created struct {
		DoctorID string `json:"doctorId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	respToggle := doJSON(t, router, http.MethodPost, "/api/v1/admin/doctors/"+created.DoctorID+"/toggle", nil)
	if respToggle.Code != http.StatusOK {
		t.Fatalf("toggle: %d", respToggle.Code)
	}

	respList := doJSON(t, router, http.MethodGet, "/api/v1/doctors", nil)
	var list []json.RawMessage
	if err := json.NewDecoder(respList.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("hidden doctor must not appear in public list, got %d entries", len(list))
	}

	// Still visible to the admin panel.
	respAll := doJSON(t, router, http.MethodGet, "/api/v1/admin/doctors", nil)
	var all []json.RawMessage
	if err := json.NewDecoder(respAll.Body).Decode(&all); err != nil {
		t.Fatalf("decode admin list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("admin list should keep hidden doctors, got %d entries", len(all))
	}
}

func TestUpdateAndDelete(t *testing.T) {
	router, _ := newTestRouter()

	resp := doJSON(t, router, http.MethodPost, "/api/v1/admin/doctors", gin.H{
		"email":    "ada@clinic.test",
		"fullName": "Dr. Ada",
	})
	var created struct {
		DoctorID string `json:"doctorId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	respUpd := doJSON(t, router, http.MethodPut, "/api/v1/admin/doctors/"+created.DoctorID, gin.H{
		"workplace": "City Hospital",
	})
	if respUpd.Code != http.StatusOK {
		t.Fatalf("update: %d: %s", respUpd.Code, respUpd.Body.String())
	}
	var updated struct {
		Workplace string `json:"workplace"`
		FullName  string `json:"fullName"`
	}
	if err := json.NewDecoder(respUpd.Body).Decode(&updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated.Workplace != "City Hospital" || updated.FullName != "Dr. Ada" {
		t.Fatalf("partial update went wrong: %+v", updated)
	}

	respDel := doJSON(t, router, http.MethodDelete, "/api/v1/admin/doctors/"+created.DoctorID, nil)
	if respDel.Code != http.StatusOK {
		t.Fatalf("delete: %d", respDel.Code)
	}

	respGone := doJSON(t, router, http.MethodDelete, "/api/v1/admin/doctors/"+created.DoctorID, nil)
	if respGone.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted doctor, got %d", respGone.Code)
	}
}
