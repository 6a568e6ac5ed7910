package validate

import "bytes"

// signature maps a known leading-byte pattern to the format it proves.
type signature struct {
	prefix []byte
	format string
}

// Magic numbers for the supported raster formats. Order matters only in
// that longer prefixes are listed before shorter ones sharing a lead byte.
var signatures = []signature{
	{[]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
	{[]byte{0xFF, 0xD8, 0xFF}, "jpg"},
	{[]byte("GIF87a"), "gif"},
	{[]byte("GIF89a"), "gif"},
	{[]byte("RIFF"), "webp"},
	{[]byte{0x42, 0x4D}, "bmp"},
}

// DetectFormat inspects the leading bytes against the known magic numbers
// and returns the proven format. This is the authoritative format decision:
// a spoofed extension or content type cannot get past it.
func DetectFormat(data []byte) (string, error) {
	for _, sig := range signatures {
		if !bytes.HasPrefix(data, sig.prefix) {
			continue
		}
		// RIFF is a container; require the WEBP fourcc before trusting it.
		if sig.format == "webp" {
			if len(data) < 12 || !bytes.Equal(data[8:12], []byte("WEBP")) {
				continue
			}
		}
		return sig.format, nil
	}
	return "", reject(ReasonUnsupportedFormat,
		"file signature does not match any supported image format (JPG, PNG, GIF, WebP, BMP)")
}
