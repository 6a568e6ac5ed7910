// Package fingerprint derives stable content-addressed cache keys.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Params are the request parameters that affect the OCR output and must
// therefore be part of the cache key.
type Params map[string]string

// Key computes a deterministic SHA-256 fingerprint over the image bytes and
// a canonical encoding of params. Parameter order never affects the key:
// keys are sorted and each pair is written length-delimited so distinct
// parameter sets can never collide by concatenation.
func Key(content []byte, params Params) string {
	h := sha256.New()
	h.Write(content)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		h.Write([]byte{0})
		writeString(h.Write, k)
		writeString(h.Write, params[k])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// writeString writes s preceded by its length so "ab"+"c" and "a"+"bc"
// hash differently.
func writeString(write func([]byte) (int, error), s string) {
	n := len(s)
	write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	write([]byte(s))
}
