// Package validate gates uploads through a fixed sequence of
// cheapest-first checks before any hashing or OCR work happens.
package validate

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	// Register decoders for the structural integrity check.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Reason is a stable machine-matchable rejection code.
type Reason string

const (
	ReasonTooLarge          Reason = "too_large"
	ReasonUnsupportedFormat Reason = "unsupported_format"
	ReasonCorruptedInput    Reason = "corrupted_input"
)

// Rejection is returned when an upload fails a validation check.
type Rejection struct {
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("upload rejected (%s): %s", r.Reason, r.Detail)
}

func reject(reason Reason, format string, args ...interface{}) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Accepted is a validated upload. Format is the format detected from the
// binary signature and confirmed by a full decode; the client-declared
// extension and content type are advisory only and never trusted.
type Accepted struct {
	Bytes  []byte
	Format string
	Width  int
	Height int
}

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
}

var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// Upload runs the full validation sequence: size, extension, declared MIME,
// binary signature, then a full decode. Each check short-circuits so
// obviously bad input is turned away before any expensive work.
func Upload(data []byte, filename, contentType string, maxSizeBytes int64) (*Accepted, error) {
	if err := checkSize(data, maxSizeBytes); err != nil {
		return nil, err
	}
	if err := checkExtension(filename); err != nil {
		return nil, err
	}
	if err := checkDeclaredMIME(contentType); err != nil {
		return nil, err
	}

	format, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}

	width, height, err := checkIntegrity(data)
	if err != nil {
		return nil, err
	}

	return &Accepted{Bytes: data, Format: format, Width: width, Height: height}, nil
}

func checkSize(data []byte, maxSizeBytes int64) error {
	if len(data) == 0 {
		return reject(ReasonCorruptedInput, "file is empty")
	}
	if int64(len(data)) > maxSizeBytes {
		return reject(ReasonTooLarge, "file too large (%.1fMB), maximum is %dMB",
			float64(len(data))/1024/1024, maxSizeBytes/1024/1024)
	}
	return nil
}

func checkExtension(filename string) error {
	if filename == "" {
		return reject(ReasonUnsupportedFormat, "no filename provided")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedExtensions[ext] {
		return reject(ReasonUnsupportedFormat, "unsupported file type %q, supported: JPG, PNG, GIF, WebP, BMP", ext)
	}
	return nil
}

// checkDeclaredMIME treats the declared content type as advisory evidence.
// application/octet-stream passes through (curl and some browsers send it);
// the binary signature check is what actually decides the format.
func checkDeclaredMIME(contentType string) error {
	if contentType == "" || contentType == "application/octet-stream" {
		return nil
	}
	// Strip any parameters such as "; charset=binary".
	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !allowedMIMETypes[mime] {
		return reject(ReasonUnsupportedFormat, "unsupported content type %q", mime)
	}
	return nil
}

// checkIntegrity attempts a full decode of the image container, not just a
// header parse, so truncated or internally inconsistent files are caught
// before they reach the OCR engine.
func checkIntegrity(data []byte) (width, height int, err error) {
	img, _, decodeErr := image.Decode(bytes.NewReader(data))
	if decodeErr != nil {
		return 0, 0, reject(ReasonCorruptedInput, "image decode failed: %v", decodeErr)
	}

	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0, 0, reject(ReasonCorruptedInput, "image has zero dimensions")
	}
	if width < 3 && height < 3 {
		return 0, 0, reject(ReasonCorruptedInput, "image too small: %dx%d", width, height)
	}

	return width, height, nil
}
