// Package tesseract runs OCR locally through the gosseract Tesseract
// binding.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"ocr-api-go/services/ocrengine"
)

// Engine implements ocrengine.Engine with a per-call gosseract client.
// Clients are not safe for concurrent use, so each call gets its own.
type Engine struct {
	clientFactory func() *gosseract.Client
}

func New() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize extracts text from image. Language hints map directly onto
// Tesseract language codes ("eng", "deu", ...).
func (e *Engine) Recognize(ctx context.Context, image []byte, languages []string) (ocrengine.Result, error) {
	select {
	case <-ctx.Done():
		return ocrengine.Result{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return ocrengine.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return ocrengine.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return ocrengine.Result{}, fmt.Errorf("recognize text: %w", err)
	}

	confidence := wordConfidence(c)
	lang := ""
	if len(languages) > 0 {
		lang = languages[0]
	}

	return ocrengine.Result{
		Text:       strings.TrimSpace(text),
		Confidence: confidence,
		Language:   lang,
	}, nil
}

// wordConfidence averages per-word confidences, normalized to 0..1.
func wordConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}
