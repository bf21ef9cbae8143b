package domain

import "time"

// SiteConfiguration is the storefront of one restaurant.
type SiteConfiguration struct {
	RestaurantID string       `json:"restaurantId" bson:"_id"`
	Slug         string       `json:"slug" bson:"slug"`
	ThemeColor   string       `json:"themeColor" bson:"themeColor"`
	GlobalStyles GlobalStyles `json:"globalStyles" bson:"globalStyles"`
	Layout       Layout       `json:"layout" bson:"layout"`
	UpdatedAt    time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a copy of c whose layout and props share nothing with c.
func (c *SiteConfiguration) Clone() *SiteConfiguration {
	if c == nil {
		return nil
	}
	out := *c
	out.Layout = c.Layout.Clone()
	return &out
}

// Clone deep-copies the layout.
func (l Layout) Clone() Layout {
	if l == nil {
		return nil
	}
	out := make(Layout, len(l))
	for i, b := range l {
		b.Props = CloneProps(b.Props)
		out[i] = b
	}
	return out
}

// SiteUpdate is a partial update. Nil fields are left untouched.
type SiteUpdate struct {
	Slug         *string       `json:"slug,omitempty"`
	ThemeColor   *string       `json:"themeColor,omitempty"`
	GlobalStyles *GlobalStyles `json:"globalStyles,omitempty"`
	Layout       Layout        `json:"layout,omitempty"`
}

// FullUpdate builds an update that replaces every mutable field of c.
func FullUpdate(c *SiteConfiguration) SiteUpdate {
	slug := c.Slug
	theme := c.ThemeColor
	styles := c.GlobalStyles
	layout := c.Layout.Clone()
	if layout == nil {
		layout = Layout{}
	}
	return SiteUpdate{Slug: &slug, ThemeColor: &theme, GlobalStyles: &styles, Layout: layout}
}

// Apply merges u into c in place.
func (u SiteUpdate) Apply(c *SiteConfiguration) {
	if u.Slug != nil {
		c.Slug = *u.Slug
	}
	if u.ThemeColor != nil {
		c.ThemeColor = *u.ThemeColor
	}
	if u.GlobalStyles != nil {
		c.GlobalStyles = *u.GlobalStyles
	}
	if u.Layout != nil {
		c.Layout = u.Layout.Clone()
	}
}

// SlugOwner pairs a slug with the restaurant that holds it.
type SlugOwner struct {
	Slug         string `json:"slug"`
	RestaurantID string `json:"restaurantId"`
}

// Viewport is the responsive preview mode. It only affects preview breakpoint
// selection, never the persisted layout.
type Viewport string

const (
	ViewportNone    Viewport = ""
	ViewportDesktop Viewport = "desktop"
	ViewportTablet  Viewport = "tablet"
	ViewportMobile  Viewport = "mobile"
)

// Valid reports whether v is a known viewport mode (including none).
func (v Viewport) Valid() bool {
	switch v {
	case ViewportNone, ViewportDesktop, ViewportTablet, ViewportMobile:
		return true
	}
	return false
}

// MaxWidth returns the preview breakpoint in CSS pixels. Zero means unbounded.
func (v Viewport) MaxWidth() int {
	switch v {
	case ViewportTablet:
		return 768
	case ViewportMobile:
		return 390
	}
	return 0
}
