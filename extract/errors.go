package extract

import "fmt"

// ExternalServiceError wraps an OCR engine failure (timeout, upstream
// error, open circuit). These are never cached and are safe to retry at a
// layer above this service.
type ExternalServiceError struct {
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("OCR engine failed: %v", e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// BatchTooLargeError rejects a batch before any per-item work happens.
type BatchTooLargeError struct {
	Detail string
}

func (e *BatchTooLargeError) Error() string {
	return e.Detail
}

// CacheOnlyMissError is returned when a request admitted under the
// cache-only rate limit tier has no cached result to serve.
type CacheOnlyMissError struct{}

func (e *CacheOnlyMissError) Error() string {
	return "no cached result available and request rate requires cached data"
}
