// Package extract couples the validation, fingerprinting, caching and OCR
// stages into the single entry point the HTTP layer calls.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"ocr-api-go/cache"
	"ocr-api-go/circuitbreaker"
	"ocr-api-go/fingerprint"
	"ocr-api-go/logcolors"
	"ocr-api-go/services/ocrengine"
	"ocr-api-go/stats"
	"ocr-api-go/utils"
	"ocr-api-go/validate"
)

// Upload is one raw uploaded file plus its client-declared metadata.
type Upload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Params are the request parameters that influence recognition.
// Languages participates in the cache key; CacheOnly does not (it only
// controls whether a miss may fall through to the engine).
type Params struct {
	Languages []string
	CacheOnly bool
}

func (p Params) fingerprintParams() fingerprint.Params {
	fp := fingerprint.Params{}
	if len(p.Languages) > 0 {
		fp["languages"] = strings.Join(p.Languages, ",")
	}
	return fp
}

// Outcome is the result of one extraction, cached or fresh.
type Outcome struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
	Format     string  `json:"format"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Cached     bool    `json:"-"`
}

// ItemResult is the per-item outcome of a batch. Exactly one of Outcome
// and Err is set.
type ItemResult struct {
	Index    int
	Filename string
	Outcome  *Outcome
	Err      error
}

// Config wires a Service.
type Config struct {
	Cache           *cache.LRU
	Engine          ocrengine.Engine
	Breaker         *circuitbreaker.CircuitBreaker
	MaxFileSize     int64
	MaxBatchSize    int
	OCRTimeout      time.Duration
	CompressEntries bool
}

// Service orchestrates validate -> fingerprint -> cache -> engine -> cache.
type Service struct {
	cache       *cache.LRU
	engine      ocrengine.Engine
	breaker     *circuitbreaker.CircuitBreaker
	maxFileSize int64
	maxBatch    int
	ocrTimeout  time.Duration
	compress    bool
}

func NewService(cfg Config) *Service {
	return &Service{
		cache:       cfg.Cache,
		engine:      cfg.Engine,
		breaker:     cfg.Breaker,
		maxFileSize: cfg.MaxFileSize,
		maxBatch:    cfg.MaxBatchSize,
		ocrTimeout:  cfg.OCRTimeout,
		compress:    cfg.CompressEntries,
	}
}

// EngineName reports which OCR engine the service is wired to.
func (s *Service) EngineName() string {
	return s.engine.Name()
}

// Extract processes a single upload. Validation failures return a
// *validate.Rejection; engine failures return an *ExternalServiceError and
// are never written to the cache.
func (s *Service) Extract(ctx context.Context, up Upload, params Params) (*Outcome, error) {
	accepted, err := validate.Upload(up.Data, up.Filename, up.ContentType, s.maxFileSize)
	if err != nil {
		stats.Get().RecordValidationRejection()
		log.Infof("%s Rejected %q: %v", logcolors.LogValidate, up.Filename, err)
		return nil, err
	}

	key := fingerprint.Key(accepted.Bytes, params.fingerprintParams())

	if outcome, ok := s.lookup(key); ok {
		stats.Get().RecordCacheHit()
		log.Infof("%s Cache hit for %q", logcolors.LogExtract, up.Filename)
		return outcome, nil
	}
	stats.Get().RecordCacheMiss()

	if params.CacheOnly {
		return nil, &CacheOnlyMissError{}
	}

	outcome, err := s.recognize(ctx, accepted, params)
	if err != nil {
		return nil, err
	}

	s.store(key, outcome)
	return outcome, nil
}

// ExtractBatch applies Extract independently to every item. The batch size
// ceiling is enforced before any per-item work; within the batch one item's
// failure never aborts its siblings. Items run concurrently.
func (s *Service) ExtractBatch(ctx context.Context, uploads []Upload, params Params) ([]ItemResult, error) {
	if len(uploads) == 0 {
		return nil, &BatchTooLargeError{Detail: "no images provided, upload at least one image"}
	}
	if len(uploads) > s.maxBatch {
		return nil, &BatchTooLargeError{
			Detail: fmt.Sprintf("too many images (%d), maximum is %d per batch", len(uploads), s.maxBatch),
		}
	}

	results := make([]ItemResult, len(uploads))
	var wg sync.WaitGroup

	for i, up := range uploads {
		wg.Add(1)
		go func(i int, up Upload) {
			defer wg.Done()
			outcome, err := s.Extract(ctx, up, params)
			results[i] = ItemResult{Index: i, Filename: up.Filename, Outcome: outcome, Err: err}
		}(i, up)
	}
	wg.Wait()

	return results, nil
}

// recognize invokes the engine behind the circuit breaker with the
// configured timeout. A cancelled or failed call leaves the cache untouched.
func (s *Service) recognize(ctx context.Context, accepted *validate.Accepted, params Params) (*Outcome, error) {
	if s.breaker != nil && !s.breaker.Allow() {
		stats.Get().RecordEngineFailure()
		return nil, &ExternalServiceError{Err: circuitbreaker.ErrCircuitOpen}
	}

	callCtx := ctx
	if s.ocrTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.ocrTimeout)
		defer cancel()
	}

	stats.Get().RecordEngineCall()
	result, err := s.engine.Recognize(callCtx, accepted.Bytes, params.Languages)
	if err != nil {
		if s.breaker != nil {
			s.breaker.RecordFailure()
		}
		stats.Get().RecordEngineFailure()
		log.Errorf("%s Engine %s failed: %v", logcolors.LogOCR, s.engine.Name(), err)
		return nil, &ExternalServiceError{Err: err}
	}
	if s.breaker != nil {
		s.breaker.RecordSuccess()
	}

	return &Outcome{
		Text:       utils.CleanText(result.Text),
		Confidence: result.Confidence,
		Language:   result.Language,
		Format:     accepted.Format,
		Width:      accepted.Width,
		Height:     accepted.Height,
	}, nil
}

// lookup fetches and decodes a cached outcome. Undecodable entries are
// dropped and treated as misses.
func (s *Service) lookup(key string) (*Outcome, bool) {
	raw, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}

	data := []byte(raw)
	if s.compress {
		decompressed, err := utils.Decompress(raw)
		if err != nil {
			log.Errorf("%s Error decompressing cached entry: %v", logcolors.LogCache, err)
			s.cache.Delete(key)
			return nil, false
		}
		data = decompressed
	}

	var outcome Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		log.Errorf("%s Error decoding cached entry: %v", logcolors.LogCache, err)
		s.cache.Delete(key)
		return nil, false
	}

	outcome.Cached = true
	return &outcome, true
}

// store serializes a successful outcome into the cache. Failures to encode
// only cost us the cache entry, never the response.
func (s *Service) store(key string, outcome *Outcome) {
	data, err := json.Marshal(outcome)
	if err != nil {
		log.Errorf("%s Failed to marshal outcome for caching: %v", logcolors.LogCache, err)
		return
	}

	value := string(data)
	if s.compress {
		value, err = utils.Compress(data)
		if err != nil {
			log.Errorf("%s Error compressing cache value: %v", logcolors.LogCache, err)
			return
		}
	}

	s.cache.Put(key, value)
}
