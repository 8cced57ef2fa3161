package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient calls an external model-serving endpoint over HTTP.
type HTTPClient struct {
	URL    string
	Client *http.Client
}

// NewHTTPClient constructs an HTTPClient for the given analyze URL.
func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{
		URL:    url,
		Client: &http.Client{Timeout: 60 * time.Second},
	}
}

type analyzeRequest struct {
	Image string `json:"image"`
}

type analyzeResponse struct {
	Success    bool    `json:"success"`
	Error      string  `json:"error"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Details    struct {
		Type            string          `json:"type"`
		Risk            string          `json:"risk"`
		Recommendation  string          `json:"recommendation"`
		Characteristics Characteristics `json:"characteristics"`
	} `json:"details"`
	ProcessedImage string `json:"processed_image"`
}

// Classify sends the image as a base64 data URL and maps the response.
func (c *HTTPClient) Classify(ctx context.Context, image []byte, mimeType string) (Result, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	payload := analyzeRequest{
		Image: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if !out.Success {
		if out.Error != "" {
			return Result{}, fmt.Errorf("%w: %s", ErrUnavailable, out.Error)
		}
		return Result{}, ErrUnavailable
	}

	return Result{
		Prediction:      out.Prediction,
		Confidence:      out.Confidence,
		LesionType:      out.Details.Type,
		RiskLevel:       out.Details.Risk,
		Recommendation:  out.Details.Recommendation,
		Characteristics: out.Details.Characteristics,
		ProcessedImage:  out.ProcessedImage,
	}, nil
}
