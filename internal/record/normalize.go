package record

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// keySep separates key segments. A unit separator keeps triples like
// ("a/b","c") and ("a","b/c") from colliding the way a printable join
// character would.
const keySep = "\x1f"

// Normalize collapses an identifier to its lookup form: NFC normalization,
// surrounding whitespace stripped, case folded. Store lookups, discovery
// keys, and codec matching all funnel through this one function so equality
// means the same thing everywhere in the session.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

func joinKey(parts ...string) string {
	return strings.Join(parts, keySep)
}
