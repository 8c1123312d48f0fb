package classifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, strips combining diacritical marks ("não" -> "nao")
// and trims surrounding whitespace. Normalizing an already normalized string
// returns it unchanged.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)

	// Chained transformers keep state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, lower)
	if err != nil {
		return strings.TrimSpace(lower)
	}
	return strings.TrimSpace(out)
}
