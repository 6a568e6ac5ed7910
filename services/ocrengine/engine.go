// Package ocrengine defines the boundary to the external text recognition
// engine. The orchestrator treats engines as opaque: failures are surfaced,
// never retried, and never cached.
package ocrengine

import "context"

// Result is the outcome of a successful recognition call.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
}

// Engine recognizes text in a validated image. Implementations must honor
// context cancellation and deadlines.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte, languages []string) (Result, error)
}
