package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize cleans the source text and the character name and joins them.
// Each part is trimmed, lowercased and has its line endings normalized, so
// cosmetic edits do not produce a new script on the next sync.
func Normalize(source, character string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return strings.TrimSpace(p)
	}

	// A newline separator keeps "ab"+"c" and "a"+"bc" apart.
	return strings.Join([]string{normalizePart(source), normalizePart(character)}, "\n")
}

// Of returns the SHA-256 of the normalized source and character as hex.
func Of(source, character string) string {
	sum := sha256.Sum256([]byte(Normalize(source, character)))
	return fmt.Sprintf("%x", sum)
}
