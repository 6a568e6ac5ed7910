package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	original := []byte(`{"text":"extracted text","confidence":0.97}`)

	compressed, err := Compress(original)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	restored, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}

	if !bytes.Equal(restored, original) {
		t.Errorf("Round trip mismatch: got %q, expected %q", restored, original)
	}
}

func TestCompressEmptyInput(t *testing.T) {
	compressed, err := Compress(nil)
	if err != nil {
		t.Fatalf("Compress failed on empty input: %v", err)
	}

	restored, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress failed on empty input: %v", err)
	}
	if len(restored) != 0 {
		t.Errorf("Expected empty output, got %d bytes", len(restored))
	}
}

func TestCompressShrinksRepetitiveInput(t *testing.T) {
	original := []byte(strings.Repeat("the same line of recognized text\n", 200))

	compressed, err := Compress(original)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	if len(compressed) >= len(original) {
		t.Errorf("Expected compression to shrink %d bytes, got %d", len(original), len(compressed))
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	if _, err := Decompress("not base64 at all!!!"); err == nil {
		t.Error("Expected error for non-base64 input")
	}

	// Valid base64 that is not a gzip stream
	if _, err := Decompress("aGVsbG8gd29ybGQ="); err == nil {
		t.Error("Expected error for base64 that is not gzip data")
	}
}
