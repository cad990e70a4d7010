// Package slug builds URL-safe identifiers from human titles.
package slug

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps generated slugs, leaving room for a collision suffix
const MaxLength = 200

// Make folds s to lowercase ASCII and joins words with '-'.
// Accents are stripped ("Café Crème" becomes "cafe-creme"); other symbols split words.
func Make(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if r < '0' || (r > '9' && r < 'a') || r > 'z' {
			pendingDash = true
			continue
		}
		need := 1
		if pendingDash && b.Len() > 0 {
			need = 2
		}
		if b.Len()+need > MaxLength {
			break
		}
		if need == 2 {
			b.WriteByte('-')
		}
		pendingDash = false
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), "-")
}

// Unique returns base, or base-2, base-3... for the first candidate taken reports as free
func Unique(ctx context.Context, base string, taken func(ctx context.Context, candidate string) (bool, error)) (string, error) {
	if base == "" {
		base = "item"
	}
	candidate := base
	for n := 2; ; n++ {
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}
