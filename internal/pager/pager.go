// Package pager computes which page buttons a paginated listing shows.
package pager

// Ellipsis is the token value standing in for a collapsed page range.
const Ellipsis = 0

// Token is either a 1-based page number or Ellipsis.
type Token int

// IsEllipsis reports whether the token is a collapsed range marker.
func (t Token) IsEllipsis() bool { return t == Ellipsis }

// Window returns the display tokens for a pagination control. Seven or fewer
// pages are listed in full; beyond that the window pins page 1 and the last
// page and collapses the rest around current. The result never exceeds seven
// tokens no matter how large total is.
//
// Degenerate input is clamped rather than rejected: total < 1 yields an empty
// window, current is forced into [1, total].
func Window(current, total int) []Token {
	if total < 1 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	if total <= 7 {
		tokens := make([]Token, 0, total)
		for p := 1; p <= total; p++ {
			tokens = append(tokens, Token(p))
		}
		return tokens
	}

	tokens := []Token{1}
	switch {
	case current <= 3:
		for p := 2; p <= 5; p++ {
			tokens = append(tokens, Token(p))
		}
		tokens = append(tokens, Ellipsis, Token(total))
	case current >= total-2:
		tokens = append(tokens, Ellipsis)
		for p := total - 4; p <= total; p++ {
			tokens = append(tokens, Token(p))
		}
	default:
		tokens = append(tokens, Ellipsis, Token(current-1), Token(current), Token(current+1), Ellipsis, Token(total))
	}
	return tokens
}
