package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/snapcard/internal/domain"
)

// Normalize concatenates the pair's content after cleaning each part.
// Each field is lowercased and every run of whitespace, line endings
// included, is collapsed to a single space.
func Normalize(p domain.Pair) string {
	normalizePart := func(part string) string {
		return strings.Join(strings.Fields(strings.ToLower(part)), " ")
	}

	// Newline-joined so "ab"+"c" and "a"+"bc" stay distinct.
	return normalizePart(p.Question) + "\n" + normalizePart(p.Answer)
}

// Fingerprint returns the SHA-256 hex digest of the pair's normalized content.
// Cards with the same fingerprint are treated as duplicates on import.
func Fingerprint(p domain.Pair) string {
	sum := sha256.Sum256([]byte(Normalize(p)))
	return fmt.Sprintf("%x", sum)
}

// CardFingerprint is Fingerprint for an existing card.
func CardFingerprint(c domain.Card) string {
	return Fingerprint(domain.Pair{Question: c.Question, Answer: c.Answer})
}
