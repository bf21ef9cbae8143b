// Package slug validates, checks and generates the human-readable identifiers
// that address a storefront.
//
// Generation prefers an authoritative generator and falls back to Normalize,
// which is byte-compatible with it, so a slug produced offline never
// mismatches server-side validation later.
package slug

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"storefront/internal/domain"
)

// MaxLength is the longest slug Validate accepts, in bytes.
const MaxLength = 64

// Normalize turns an arbitrary display name into a slug.
//
// Steps: canonical decomposition, removal of combining marks, lower-casing,
// removal of everything outside [a-z0-9], whitespace and '-', trimming,
// whitespace runs to a single '-', and '-' runs to a single '-'.
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, name)
	if err != nil {
		decomposed = name
	}
	lower := strings.ToLower(decomposed)

	var kept strings.Builder
	kept.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || isSpace(r) {
			kept.WriteRune(r)
		}
	}
	trimmed := strings.TrimFunc(kept.String(), isSpace)

	var out strings.Builder
	out.Grow(len(trimmed))
	var prevHyphen, inSpace bool
	for _, r := range trimmed {
		if isSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			inSpace = false
			if !prevHyphen {
				out.WriteByte('-')
				prevHyphen = true
			}
		}
		if r == '-' {
			if prevHyphen {
				continue
			}
			prevHyphen = true
		} else {
			prevHyphen = false
		}
		out.WriteRune(r)
	}
	return out.String()
}

// Validate reports whether s is usable as a slug as-is.
func Validate(s string) error {
	switch {
	case s == "":
		return fmt.Errorf("%w: empty", domain.ErrSlugInvalid)
	case len(s) > MaxLength:
		return fmt.Errorf("%w: longer than %d characters", domain.ErrSlugInvalid, MaxLength)
	case Normalize(s) != s:
		return fmt.Errorf("%w: %q is not normalized", domain.ErrSlugInvalid, s)
	}
	return nil
}

// Fit shortens a normalized slug to at most n bytes, cutting at the last
// hyphen inside the limit when there is one so that no word is split, and
// dropping trailing hyphens.
func Fit(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, "-")
}

// Key is the case-folded form used for uniqueness comparisons.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isSpace matches the whitespace class used by the authoritative generator
// (ECMAScript WhiteSpace and LineTerminator), which differs slightly from
// unicode.IsSpace: U+0085 is excluded and U+FEFF included.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}
