package classifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPClientClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"prediction": "malignant",
			"confidence": 91.5,
			"details": {
				"type": "Melanoma",
				"risk": "high",
				"recommendation": "See a dermatologist",
				"characteristics": {
					"asymmetry": "Asymmetric",
					"border": "Irregular",
					"color": "Varied",
					"diameter": ">6mm"
				}
			}
		}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	res, err := c.Classify(context.Background(), []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Prediction != PredictionMalignant || res.Confidence != 91.5 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.RiskLevel != RiskHigh || res.Characteristics.Border != "Irregular" {
		t.Fatalf("details not mapped: %+v", res)
	}
}

func TestHTTPClientBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	if _, err := c.Classify(context.Background(), []byte("img"), ""); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestHTTPClientSuccessFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "no image provided"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	_, err := c.Classify(context.Background(), []byte("img"), "")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "no image provided") {
		t.Fatalf("expected backend error message, got %v", err)
	}
}

func TestMockClientDeterministic(t *testing.T) {
	m := &MockClient{}
	img := []byte("same image bytes")

	first, err := m.Classify(context.Background(), img, "image/jpeg")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	second, err := m.Classify(context.Background(), img, "image/jpeg")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if first != second {
		t.Fatalf("mock must be stable for the same image: %+v vs %+v", first, second)
	}
	if first.Prediction != PredictionBenign && first.Prediction != PredictionMalignant {
		t.Fatalf("unexpected prediction %q", first.Prediction)
	}
	if first.Confidence < 70 || first.Confidence > 99 {
		t.Fatalf("confidence out of band: %v", first.Confidence)
	}
}

func TestMockClientHonorsCancellation(t *testing.T) {
	m := &MockClient{Delay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Classify(ctx, []byte("img"), ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
