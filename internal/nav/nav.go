// Package nav derives the storefront navigation bar from a layout.
package nav

import (
	"storefront/internal/domain"
)

// Catalog resolves block types to their registry definitions and decides
// which of them appear in navigation.
type Catalog interface {
	ByType(t domain.BlockType) (domain.BlockTypeDefinition, bool)
	HiddenFromNav(t domain.BlockType) bool
}

// Generate returns one link per navigable block, in layout order. Blocks whose
// type is unknown or hidden from navigation are skipped. Activation is not
// consulted; renderers drop inactive blocks and their links themselves.
func Generate(l domain.Layout, c Catalog) []domain.NavLink {
	links := make([]domain.NavLink, 0, len(l))
	for _, b := range l {
		if c.HiddenFromNav(b.Type) {
			continue
		}
		def, ok := c.ByType(b.Type)
		if !ok {
			continue
		}
		links = append(links, domain.NavLink{Label: def.Label, URL: Anchor(b.Type)})
	}
	return links
}

// Anchor is the in-page fragment a block of type t is reachable at.
func Anchor(t domain.BlockType) string {
	return "#" + string(t)
}
