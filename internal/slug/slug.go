// Package slug derives URL-safe identifiers from market questions and
// allocates unique ones against the persistent store.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxAttempts caps the uniqueness probe. Without a bound a store that keeps
// answering "exists" would loop forever.
const MaxAttempts = 1000

// ErrExhausted is returned when no unique slug could be allocated within
// MaxAttempts probes.
var ErrExhausted = errors.New("could not allocate unique slug")

// ExistsFunc reports whether a slug is already taken. Implementations query
// the persistent store; errors propagate to the caller unswallowed.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Make converts free text to a slug: lowercase, keep only ASCII letters,
// digits, and underscores, collapse whitespace and hyphen runs to single
// hyphens, trim edge hyphens. Accented and other non-ASCII letters are
// dropped like punctuation, so "Café" becomes "caf". Total and
// deterministic; degenerate input yields the empty string.
func Make(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastHyphen := false
	pendingSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case r == '-':
			pendingSpace = false
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			if pendingSpace && b.Len() > 0 && !lastHyphen {
				b.WriteByte('-')
			}
			pendingSpace = false
			b.WriteRune(r)
			lastHyphen = false
		}
		// Everything else is punctuation and dropped outright.
	}

	return strings.TrimRight(b.String(), "-")
}

// GenerateUnique probes base, base-1, base-2, ... until exists reports false.
// Probes are strictly sequential: the store the check runs against is the
// same one the caller is about to mutate, so concurrent probes could hand out
// the same answer twice.
func GenerateUnique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	candidate := base
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug existence check failed: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return "", fmt.Errorf("%w after %d attempts for %q", ErrExhausted, MaxAttempts, base)
}
