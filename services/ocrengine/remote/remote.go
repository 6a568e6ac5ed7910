// Package remote calls an HTTP OCR service that accepts base64-encoded
// images and returns recognized text as JSON.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"ocr-api-go/logcolors"
	"ocr-api-go/services/ocrengine"
)

const defaultTimeout = 30 * time.Second

// Engine implements ocrengine.Engine against a remote recognition API.
type Engine struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a remote engine. timeout bounds the whole HTTP exchange;
// zero falls back to the default.
func New(baseURL, apiKey string, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Engine{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (e *Engine) Name() string { return "remote" }

type recognizeRequest struct {
	Image     string   `json:"image"`
	Languages []string `json:"languages,omitempty"`
}

type recognizeResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
	Error      string  `json:"error"`
}

// Recognize posts the image to the remote service's /v1/recognize endpoint.
func (e *Engine) Recognize(ctx context.Context, image []byte, languages []string) (ocrengine.Result, error) {
	payload, err := json.Marshal(recognizeRequest{
		Image:     base64.StdEncoding.EncodeToString(image),
		Languages: languages,
	})
	if err != nil {
		return ocrengine.Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/recognize", bytes.NewReader(payload))
	if err != nil {
		return ocrengine.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	log.Debugf("%s Sending %d image bytes to remote engine", logcolors.LogOCR, len(image))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return ocrengine.Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ocrengine.Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return ocrengine.Result{}, fmt.Errorf("remote OCR returned status %d", resp.StatusCode)
	}

	var parsed recognizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ocrengine.Result{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != "" {
		return ocrengine.Result{}, fmt.Errorf("remote OCR error: %s", parsed.Error)
	}

	return ocrengine.Result{
		Text:       parsed.Text,
		Confidence: parsed.Confidence,
		Language:   parsed.Language,
	}, nil
}
