package analyses_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"melanox-backend/internal/analyses"
	"melanox-backend/internal/classifier"
	"melanox-backend/internal/shared/storage/object/local"
	"melanox-backend/internal/trial"
	"melanox-backend/internal/users"
)

func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if guestID := c.GetHeader("X-Guest-Id"); guestID != "" {
			c.Set("userId", "guest:"+guestID)
			c.Set("isGuest", true)
		} else if userID := c.GetHeader("X-Test-User"); userID != "" {
			c.Set("userId", userID)
			c.Set("userEmail", c.GetHeader("X-Test-Email"))
			c.Set("isGuest", false)
		}
		c.Next()
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &analyses.Service{
		Repo:       analyses.NewMemoryRepo(),
		Store:      local.New(t.TempDir()),
		Classifier: &classifier.MockClient{},
		Gate:       trial.NewGate(trial.NewMemoryStore()),
		Users:      users.NewMemoryRepo(),
	}
	h := analyses.NewHandler(svc)

	router := gin.New()
	router.Use(identityMiddleware())
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)
	h.RegisterAdminRoutes(api.Group("/admin"))
	return router
}

func analyzeBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	payload := map[string]string{
		"image": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("fake image")),
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	return buf
}

func TestAnalyzeGuestThenLoginRequired(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", analyzeBody(t))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "visitor-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("first guest analysis: %d: %s", resp.Code, resp.Body.String())
	}
	var first struct {
		Success    bool    `json:"success"`
		Prediction string  `json:"prediction"`
		Confidence float64 `json:"confidence"`
		AnalysisID string  `json:"analysisId"`
		Trial      struct {
			Used  int `json:"used"`
			Limit int `json:"limit"`
		} `json:"trial"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !first.Success || first.Prediction == "" {
		t.Fatalf("unexpected response: %+v", first)
	}
	if first.AnalysisID != "" {
		t.Fatalf("guest run must not expose a stored id")
	}
	if first.Trial.Used != 1 || first.Trial.Limit != trial.FreeLimit {
		t.Fatalf("trial block %+v", first.Trial)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", analyzeBody(t))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set("X-Guest-Id", "visitor-1")
	resp2 := httptest.NewRecorder()
	router.ServeHTTP(resp2, req2)

	if resp2.Code != http.StatusForbidden {
		t.Fatalf("second guest analysis: got %d, want 403", resp2.Code)
	}
	var denied struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&denied); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if denied.Error.Code != "login_required" {
		t.Fatalf("error code %q, want login_required", denied.Error.Code)
	}
}

func TestAnalyzeAuthenticatedAndHistory(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", analyzeBody(t))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "google:1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("analyze: %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		AnalysisID string `json:"analysisId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.AnalysisID == "" {
		t.Fatalf("expected stored analysis id")
	}

	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil)
	reqList.Header.Set("X-Test-User", "google:1")
	respList := httptest.NewRecorder()
	router.ServeHTTP(respList, reqList)

	if respList.Code != http.StatusOK {
		t.Fatalf("history: %d", respList.Code)
	}
	var history []struct {
		AnalysisID string `json:"analysisId"`
	}
	if err := json.NewDecoder(respList.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].AnalysisID != created.AnalysisID {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestHistoryRequiresLogin(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil)
	req.Header.Set("X-Guest-Id", "visitor-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("guest history: got %d, want 401", resp.Code)
	}
}

func TestImageRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", analyzeBody(t))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "google:1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var created struct {
		AnalysisID string `json:"analysisId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	reqImg := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+created.AnalysisID+"/image", nil)
	reqImg.Header.Set("X-Test-User", "google:1")
	respImg := httptest.NewRecorder()
	router.ServeHTTP(respImg, reqImg)

	if respImg.Code != http.StatusOK {
		t.Fatalf("image fetch: %d", respImg.Code)
	}
	if respImg.Body.String() != "fake image" {
		t.Fatalf("image bytes corrupted: %q", respImg.Body.String())
	}
}
