package chorus

import (
	"path/filepath"

	"github.com/tphakala/go-chorus/internal/decode"
)

// SupportedExtensions lists the upload extensions recognised by the
// extractor, without leading dots.
func SupportedExtensions() []string { return decode.SupportedExtensions() }

// IsSupportedFile reports whether name carries a recognised audio
// extension. Recognised is not the same as decodable: AAC, M4A and Ogg
// files are accepted here and rejected by Extract with
// ErrUnsupportedFormat.
func IsSupportedFile(name string) bool {
	return len(filepath.Ext(name)) > 1 && decode.FormatFromHint(name) != decode.FormatUnknown
}

// DecodableExtensions lists the extensions Extract can decode.
func DecodableExtensions() []string {
	var out []string
	for _, ext := range decode.SupportedExtensions() {
		if decode.FormatFromHint(ext).Decodable() {
			out = append(out, ext)
		}
	}
	return out
}
