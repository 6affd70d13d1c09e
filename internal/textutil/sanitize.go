package textutil

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentStripper decomposes text and drops combining marks, so "Café"
// becomes "Cafe".
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Accents are folded, letters lowercased, digits and hyphens/underscores
// kept; every other run of characters becomes a single underscore. Returns
// "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if folded, _, err := transform.String(accentStripper, value); err == nil {
		value = folded
	}
	var b strings.Builder
	lastUnderscore := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// RenditionName derives an HLS rendition name from an input path: the base
// name without its extension, sanitized with SanitizeToken.
func RenditionName(inputPath string) string {
	base := filepath.Base(strings.TrimSpace(inputPath))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return SanitizeToken(base)
}

// UniqueName returns base, or base_2, base_3... for the first candidate that
// taken rejects.
func UniqueName(base string, taken func(string) bool) string {
	if taken == nil || !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + "_" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}
