package validate

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"strings"
	"testing"
)

const testMaxSize = 10 * 1024 * 1024

// encodePNG renders a solid image of the given size as a real PNG so the
// integrity check has something decodable to chew on.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, width, height), color.Palette{color.White, color.Black})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode test GIF: %v", err)
	}
	return buf.Bytes()
}

func rejectionReason(t *testing.T, err error) Reason {
	t.Helper()
	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("Expected a *Rejection, got %T: %v", err, err)
	}
	return rej.Reason
}

func TestUpload_ValidPNG(t *testing.T) {
	data := encodePNG(t, 40, 20)

	accepted, err := Upload(data, "scan.png", "image/png", testMaxSize)
	if err != nil {
		t.Fatalf("Expected valid PNG to pass, got %v", err)
	}
	if accepted.Format != "png" {
		t.Errorf("Expected detected format png, got %q", accepted.Format)
	}
	if accepted.Width != 40 || accepted.Height != 20 {
		t.Errorf("Expected dimensions 40x20, got %dx%d", accepted.Width, accepted.Height)
	}
	if !bytes.Equal(accepted.Bytes, data) {
		t.Error("Expected accepted bytes to be the original upload")
	}
}

func TestUpload_ValidGIF(t *testing.T) {
	data := encodeGIF(t, 16, 16)

	accepted, err := Upload(data, "anim.gif", "image/gif", testMaxSize)
	if err != nil {
		t.Fatalf("Expected valid GIF to pass, got %v", err)
	}
	if accepted.Format != "gif" {
		t.Errorf("Expected detected format gif, got %q", accepted.Format)
	}
}

func TestUpload_EmptyFile(t *testing.T) {
	_, err := Upload(nil, "scan.png", "image/png", testMaxSize)
	if err == nil {
		t.Fatal("Expected empty file to be rejected")
	}
	if reason := rejectionReason(t, err); reason != ReasonCorruptedInput {
		t.Errorf("Expected reason %q, got %q", ReasonCorruptedInput, reason)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	data := encodePNG(t, 10, 10)

	_, err := Upload(data, "scan.png", "image/png", int64(len(data)-1))
	if err == nil {
		t.Fatal("Expected oversized file to be rejected")
	}
	if reason := rejectionReason(t, err); reason != ReasonTooLarge {
		t.Errorf("Expected reason %q, got %q", ReasonTooLarge, reason)
	}
}

func TestUpload_SizeCheckRunsFirst(t *testing.T) {
	// Garbage bytes over the limit must fail on size, not on format
	data := bytes.Repeat([]byte{0x00}, 64)

	_, err := Upload(data, "whatever.xyz", "application/garbage", 32)
	if reason := rejectionReason(t, err); reason != ReasonTooLarge {
		t.Errorf("Expected size check to short-circuit with %q, got %q", ReasonTooLarge, reason)
	}
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	data := encodePNG(t, 10, 10)

	cases := []string{"scan.tiff", "scan.pdf", "scan.txt", "scan", ""}
	for _, filename := range cases {
		_, err := Upload(data, filename, "image/png", testMaxSize)
		if err == nil {
			t.Errorf("Expected filename %q to be rejected", filename)
			continue
		}
		if reason := rejectionReason(t, err); reason != ReasonUnsupportedFormat {
			t.Errorf("Filename %q: expected reason %q, got %q", filename, ReasonUnsupportedFormat, reason)
		}
	}
}

func TestUpload_ExtensionCaseInsensitive(t *testing.T) {
	data := encodePNG(t, 10, 10)

	if _, err := Upload(data, "SCAN.PNG", "image/png", testMaxSize); err != nil {
		t.Errorf("Expected uppercase extension to pass, got %v", err)
	}
}

func TestUpload_UnsupportedDeclaredMIME(t *testing.T) {
	data := encodePNG(t, 10, 10)

	_, err := Upload(data, "scan.png", "application/pdf", testMaxSize)
	if err == nil {
		t.Fatal("Expected unsupported content type to be rejected")
	}
	if reason := rejectionReason(t, err); reason != ReasonUnsupportedFormat {
		t.Errorf("Expected reason %q, got %q", ReasonUnsupportedFormat, reason)
	}
}

func TestUpload_OctetStreamPasses(t *testing.T) {
	data := encodePNG(t, 10, 10)

	if _, err := Upload(data, "scan.png", "application/octet-stream", testMaxSize); err != nil {
		t.Errorf("Expected application/octet-stream to defer to the signature check, got %v", err)
	}
}

func TestUpload_EmptyContentTypePasses(t *testing.T) {
	data := encodePNG(t, 10, 10)

	if _, err := Upload(data, "scan.png", "", testMaxSize); err != nil {
		t.Errorf("Expected missing content type to defer to the signature check, got %v", err)
	}
}

func TestUpload_MIMEParametersStripped(t *testing.T) {
	data := encodePNG(t, 10, 10)

	if _, err := Upload(data, "scan.png", "image/png; charset=binary", testMaxSize); err != nil {
		t.Errorf("Expected content type parameters to be ignored, got %v", err)
	}
}

func TestUpload_SpoofedExtensionUsesDetectedFormat(t *testing.T) {
	// PNG bytes named .jpg: the signature decides, the extension does not
	data := encodePNG(t, 10, 10)

	accepted, err := Upload(data, "photo.jpg", "image/jpeg", testMaxSize)
	if err != nil {
		t.Fatalf("Expected PNG bytes under a .jpg name to pass, got %v", err)
	}
	if accepted.Format != "png" {
		t.Errorf("Expected detected format png for PNG bytes, got %q", accepted.Format)
	}
}

func TestUpload_UnknownSignature(t *testing.T) {
	data := []byte(strings.Repeat("this is not an image ", 10))

	_, err := Upload(data, "scan.png", "image/png", testMaxSize)
	if err == nil {
		t.Fatal("Expected unrecognized signature to be rejected")
	}
	if reason := rejectionReason(t, err); reason != ReasonUnsupportedFormat {
		t.Errorf("Expected reason %q, got %q", ReasonUnsupportedFormat, reason)
	}
}

func TestUpload_TruncatedPNG(t *testing.T) {
	data := encodePNG(t, 40, 40)

	// Keep the signature intact but chop the body so decode fails
	truncated := data[:len(data)/2]

	_, err := Upload(truncated, "scan.png", "image/png", testMaxSize)
	if err == nil {
		t.Fatal("Expected truncated PNG to be rejected")
	}
	if reason := rejectionReason(t, err); reason != ReasonCorruptedInput {
		t.Errorf("Expected reason %q, got %q", ReasonCorruptedInput, reason)
	}
}

func TestUpload_TinyImage(t *testing.T) {
	data := encodePNG(t, 1, 1)

	_, err := Upload(data, "dot.png", "image/png", testMaxSize)
	if err == nil {
		t.Fatal("Expected 1x1 image to be rejected")
	}
	if reason := rejectionReason(t, err); reason != ReasonCorruptedInput {
		t.Errorf("Expected reason %q, got %q", ReasonCorruptedInput, reason)
	}
}

func TestUpload_NarrowButLongImageAccepted(t *testing.T) {
	// Only images tiny in both dimensions are rejected
	data := encodePNG(t, 2, 100)

	if _, err := Upload(data, "strip.png", "image/png", testMaxSize); err != nil {
		t.Errorf("Expected 2x100 image to pass, got %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	webpHeader := append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00)
	webpHeader = append(webpHeader, []byte("WEBP")...)

	riffNotWebp := append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00)
	riffNotWebp = append(riffNotWebp, []byte("WAVE")...)

	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, "png", false},
		{"jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, "jpg", false},
		{"gif87a", []byte("GIF87a trailing"), "gif", false},
		{"gif89a", []byte("GIF89a trailing"), "gif", false},
		{"webp", webpHeader, "webp", false},
		{"bmp", []byte{0x42, 0x4D, 0x00, 0x00}, "bmp", false},
		{"riff but not webp", riffNotWebp, "", true},
		{"riff too short", []byte("RIFF"), "", true},
		{"plain text", []byte("hello world"), "", true},
		{"empty", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %s, got format %q", tt.name, got)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.name, err)
				return
			}
			if got != tt.want {
				t.Errorf("Expected format %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRejectionError(t *testing.T) {
	rej := reject(ReasonTooLarge, "file too large (%.1fMB), maximum is %dMB", 12.5, 10)

	msg := rej.Error()
	if !strings.Contains(msg, "too_large") {
		t.Errorf("Expected error message to contain the reason code, got %q", msg)
	}
	if !strings.Contains(msg, "12.5MB") {
		t.Errorf("Expected error message to contain the formatted detail, got %q", msg)
	}
}
