// Package theme resolves semantic colour and typography tokens against a
// site's global styles.
//
// Resolution is a flat cascade: a known token maps to the configured value,
// anything else non-empty is a literal and passes through unchanged, and an
// empty value stays undefined so the caller can apply its own default.
package theme

import "storefront/internal/domain"

// Resolve returns the effective colour for value. ok is false when the result
// is undefined: value is empty, or value names a role the palette leaves empty.
func Resolve(value string, styles domain.GlobalStyles) (string, bool) {
	if value == "" {
		return "", false
	}
	if v, isRole := styles.Palette.Lookup(value); isRole {
		return v, v != ""
	}
	return value, true
}

// ResolveFont applies the same cascade to the typography tokens "heading" and "body".
func ResolveFont(value string, styles domain.GlobalStyles) (string, bool) {
	var v string
	switch value {
	case "":
		return "", false
	case domain.FontHeading:
		v = styles.Typography.Heading
	case domain.FontBody:
		v = styles.Typography.Body
	default:
		return value, true
	}
	return v, v != ""
}

// IsRole reports whether value names a semantic palette role.
func IsRole(value string) bool {
	_, ok := domain.Palette{}.Lookup(value)
	return ok
}

// Or returns the resolved value, or fallback when the resolution is undefined.
func Or(value string, ok bool, fallback string) string {
	if !ok {
		return fallback
	}
	return value
}

// DefaultStyles is the starter theme given to newly onboarded sites.
func DefaultStyles() domain.GlobalStyles {
	return domain.GlobalStyles{
		Palette: domain.Palette{
			Primary:     "#b3261e",
			OnPrimary:   "#ffffff",
			Secondary:   "#f2b705",
			OnSecondary: "#1c1b1f",
			Background:  "#fffbfe",
			Surface:     "#f4eff4",
			Text:        "#1c1b1f",
			Muted:       "#79747e",
		},
		Typography: domain.Typography{
			Heading: "Playfair Display",
			Body:    "Inter",
		},
	}
}
