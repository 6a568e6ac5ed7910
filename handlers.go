package main

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"ocr-api-go/circuitbreaker"
	"ocr-api-go/extract"
	"ocr-api-go/logcolors"
	"ocr-api-go/stats"
	"ocr-api-go/validate"
)

// maxMultipartMemory bounds how much of an upload stays in memory while
// parsing; the rest spills to temp files.
const maxMultipartMemory = 32 << 20

// readUpload drains one multipart file into an extract.Upload
func readUpload(fh *multipart.FileHeader) (extract.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return extract.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return extract.Upload{}, err
	}

	return extract.Upload{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}, nil
}

// parseLanguages splits the optional comma-separated language hints
func parseLanguages(raw string) []string {
	if raw == "" {
		return nil
	}
	var langs []string
	for _, l := range strings.Split(raw, ",") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}

// errorStatus maps a service error onto an HTTP status and a stable code
func errorStatus(err error) (int, string) {
	var rejection *validate.Rejection
	if errors.As(err, &rejection) {
		switch rejection.Reason {
		case validate.ReasonTooLarge:
			return http.StatusRequestEntityTooLarge, string(rejection.Reason)
		case validate.ReasonUnsupportedFormat:
			return http.StatusUnsupportedMediaType, string(rejection.Reason)
		default:
			return http.StatusBadRequest, string(rejection.Reason)
		}
	}

	var batchErr *extract.BatchTooLargeError
	if errors.As(err, &batchErr) {
		return http.StatusBadRequest, "batch_too_large"
	}

	var cacheOnly *extract.CacheOnlyMissError
	if errors.As(err, &cacheOnly) {
		return http.StatusTooManyRequests, "rate_limited"
	}

	var external *extract.ExternalServiceError
	if errors.As(err, &external) {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return http.StatusServiceUnavailable, "external_service_error"
		}
		return http.StatusInternalServerError, "external_service_error"
	}

	return http.StatusInternalServerError, "internal_error"
}

func metadataFor(outcome *extract.Outcome) *ResultMetadata {
	return &ResultMetadata{
		Language:    outcome.Language,
		ImageWidth:  outcome.Width,
		ImageHeight: outcome.Height,
		ImageFormat: outcome.Format,
		Cached:      outcome.Cached,
	}
}

// extractTextHandler serves POST /extract-text: one multipart image field,
// optional "languages" form value with comma-separated hints.
func extractTextHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{
			Error: "invalid multipart form", Code: "bad_request", Detail: err.Error(),
		})
		return
	}

	fh, err := formImage(r, "image")
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{
			Error: "no image provided, upload a file in the \"image\" field", Code: "bad_request",
		})
		return
	}

	upload, err := readUpload(fh)
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{
			Error: "failed to read upload", Code: "bad_request", Detail: err.Error(),
		})
		return
	}

	cacheOnlyMode, _ := r.Context().Value(cacheOnlyModeKey).(bool)
	params := extract.Params{
		Languages: parseLanguages(r.FormValue("languages")),
		CacheOnly: cacheOnlyMode,
	}

	outcome, err := svc.Extract(r.Context(), upload, params)
	if err != nil {
		status, code := errorStatus(err)
		resp := Respond(w, r)
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "60")
			resp.SetCacheStatus("MISS")
		}
		resp.Error(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	cacheStatus := "MISS"
	if outcome.Cached {
		cacheStatus = "HIT"
	}

	Respond(w, r).SetCacheStatus(cacheStatus).JSON(OCRResponse{
		Success:          true,
		Text:             outcome.Text,
		Confidence:       outcome.Confidence,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Metadata:         metadataFor(outcome),
	})
}

// batchExtractHandler serves POST /batch-extract: repeated "images" fields,
// at most the configured batch ceiling. Items fail independently.
func batchExtractHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{
			Error: "invalid multipart form", Code: "bad_request", Detail: err.Error(),
		})
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["images"]
	}

	uploads := make([]extract.Upload, 0, len(headers))
	for _, fh := range headers {
		upload, err := readUpload(fh)
		if err != nil {
			Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{
				Error: "failed to read upload " + fh.Filename, Code: "bad_request", Detail: err.Error(),
			})
			return
		}
		uploads = append(uploads, upload)
	}

	cacheOnlyMode, _ := r.Context().Value(cacheOnlyModeKey).(bool)
	params := extract.Params{
		Languages: parseLanguages(r.FormValue("languages")),
		CacheOnly: cacheOnlyMode,
	}

	results, err := svc.ExtractBatch(r.Context(), uploads, params)
	if err != nil {
		status, code := errorStatus(err)
		Respond(w, r).Error(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	items := make([]BatchItemResult, len(results))
	failed := 0
	for i, res := range results {
		item := BatchItemResult{Index: res.Index, Filename: res.Filename}
		if res.Err != nil {
			failed++
			_, code := errorStatus(res.Err)
			item.Error = res.Err.Error()
			item.Code = code
		} else {
			item.Success = true
			item.Text = res.Outcome.Text
			item.Confidence = res.Outcome.Confidence
			item.Metadata = metadataFor(res.Outcome)
		}
		items[i] = item
	}

	log.Infof("%s Processed %d images (%d failed) in %v", logcolors.LogBatch,
		len(items), failed, time.Since(start))

	Respond(w, r).JSON(BatchOCRResponse{
		Success:          true,
		Results:          items,
		TotalImages:      len(items),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		FailedCount:      failed,
	})
}

// formImage returns the first uploaded file under field, or an error
func formImage(r *http.Request, field string) (*multipart.FileHeader, error) {
	if r.MultipartForm != nil {
		if headers := r.MultipartForm.File[field]; len(headers) > 0 {
			return headers[0], nil
		}
	}
	return nil, http.ErrMissingFile
}

func getHealthStatus(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":          "ok",
		"service":         "ocr-api",
		"engine":          svc.EngineName(),
		"circuit_breaker": ocrBreaker.State().String(),
	}

	if ocrBreaker.IsOpen() {
		health["status"] = "degraded"
		health["circuit_breaker_retry_in"] = ocrBreaker.TimeUntilRetry().String()
	}

	Respond(w, r).JSON(health)
}

func getStats(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	snapshot := stats.Get().Snapshot()
	snapshot["response_cache"] = respCache.Snapshot()
	snapshot["circuit_breaker"] = map[string]interface{}{
		"state":              ocrBreaker.State().String(),
		"failures":           ocrBreaker.Failures(),
		"cooldown_remaining": ocrBreaker.TimeUntilRetry().String(),
	}

	Respond(w, r).JSON(snapshot)
}

func getCacheStats(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	Respond(w, r).JSON(respCache.Snapshot())
}

func clearCache(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respCache.Clear()
	Respond(w, r).JSON(map[string]interface{}{"success": true, "message": "cache cleared"})
}

func getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"state":              ocrBreaker.State().String(),
		"failures":           ocrBreaker.Failures(),
		"cooldown_remaining": ocrBreaker.TimeUntilRetry().String(),
	})
}

func resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ocrBreaker.Reset()
	Respond(w, r).JSON(map[string]interface{}{"success": true, "state": ocrBreaker.State().String()})
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"service": "OCR Image Text Extraction API",
		"help": "POST an image to /extract-text (multipart field \"image\") or up to 10 images " +
			"to /batch-extract (repeated field \"images\"). Supported formats: JPG, PNG, GIF, WebP, BMP. " +
			"Optional \"languages\" form value takes comma-separated language hints.",
	})
}

// authorized checks the admin access token on protected endpoints
func authorized(r *http.Request) bool {
	token := conf.Configuration.AccessToken
	return token != "" && r.Header.Get("Authorization") == token
}
