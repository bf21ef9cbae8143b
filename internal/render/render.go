// Package render turns a site configuration into the resolved model that the
// public storefront and the editor preview display.
package render

import (
	"encoding/json"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/nav"
	"storefront/internal/theme"
)

// Catalog is the registry view the renderer needs.
type Catalog interface {
	nav.Catalog
}

// Prop keys holding colour tokens.
const (
	PropBackgroundColor = "backgroundColor"
	PropTextColor       = "textColor"
	PropAccentColor     = "accentColor"
)

// Public renders what visitors see: inactive blocks are dropped, and the
// navigation only links to blocks that are shown.
func Public(cfg *domain.SiteConfiguration, c Catalog) Page {
	shown := cfg.Layout.Active()
	return page(cfg, shown, nav.Generate(shown, c), c)
}

// Preview renders what the operator sees while editing. Every block is
// included, with Active reporting whether visitors would see it. The viewport
// only selects the breakpoint width; an unrecognised viewport is treated as
// none.
func Preview(cfg *domain.SiteConfiguration, c Catalog, vp domain.Viewport) Page {
	p := page(cfg, cfg.Layout, nav.Generate(cfg.Layout.Active(), c), c)
	if vp.Valid() {
		p.Viewport = vp
		p.MaxWidth = vp.MaxWidth()
	}
	return p
}

func page(cfg *domain.SiteConfiguration, blocks domain.Layout, links []domain.NavLink, c Catalog) Page {
	styles := cfg.GlobalStyles
	p := Page{
		RestaurantID: cfg.RestaurantID,
		Slug:         cfg.Slug,
		ThemeColor:   cfg.ThemeColor,
		Fonts: Fonts{
			Heading: font(domain.FontHeading, styles),
			Body:    font(domain.FontBody, styles),
		},
		Nav:    links,
		Blocks: make([]BlockView, 0, len(blocks)),
	}
	for _, b := range blocks {
		p.Blocks = append(p.Blocks, Block(b, styles, c))
	}
	return p
}

// Block renders a single block. Props are layered over the type's defaults
// before decoding; unknown types get no defaults.
func Block(b domain.Block, styles domain.GlobalStyles, c Catalog) BlockView {
	props := b.Props
	if def, ok := c.ByType(b.Type); ok {
		props = withDefaults(def.DefaultProps, b.Props)
	}
	return BlockView{
		ID:      b.ID,
		Type:    b.Type,
		Anchor:  nav.Anchor(b.Type),
		Active:  b.IsActive,
		Colors:  colors(props, styles),
		Content: decode(b.Type, props),
	}
}

func font(token string, styles domain.GlobalStyles) string {
	v, _ := theme.ResolveFont(token, styles)
	return v
}

func withDefaults(defaults, props domain.Props) domain.Props {
	out := domain.CloneProps(defaults)
	if out == nil {
		out = domain.Props{}
	}
	for k, v := range props {
		out[k] = v
	}
	return out
}

func colors(props domain.Props, styles domain.GlobalStyles) Colors {
	role := func(key, fallbackRole string) string {
		fallback, _ := theme.Resolve(fallbackRole, styles)
		v, ok := theme.Resolve(stringProp(props, key), styles)
		return theme.Or(v, ok, fallback)
	}
	return Colors{
		Background: role(PropBackgroundColor, domain.RoleBackground),
		Text:       role(PropTextColor, domain.RoleText),
		Accent:     role(PropAccentColor, domain.RolePrimary),
	}
}

func stringProp(props domain.Props, key string) string {
	s, _ := props[key].(string)
	return s
}

func decode(t domain.BlockType, props domain.Props) Content {
	var (
		content Content
		err     error
	)
	switch t {
	case domain.BlockTypeBanner:
		content, err = decodeInto[BannerView](props)
	case domain.BlockTypeMenu:
		content, err = decodeInto[MenuView](props)
	case domain.BlockTypeText:
		content, err = decodeInto[TextView](props)
	case domain.BlockTypeGallery:
		content, err = decodeInto[GalleryView](props)
	case domain.BlockTypeContact:
		content, err = decodeInto[ContactView](props)
	case domain.BlockTypeAlert:
		content, err = decodeInto[AlertView](props)
	case domain.BlockTypeFooter:
		content, err = decodeInto[FooterView](props)
	default:
		return UnknownView{Tag: t, Props: domain.CloneProps(props)}
	}
	if err != nil {
		return UnknownView{Tag: t, Props: domain.CloneProps(props), DecodeError: err.Error()}
	}
	return content
}

func decodeInto[V Content](props domain.Props) (Content, error) {
	var v V
	raw, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode props: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s props: %w", v.blockType(), err)
	}
	return v, nil
}
