package render

import "storefront/internal/domain"

// Content is the type-specific part of a rendered block. The concrete type
// always matches the block's type tag; blocks with an unknown tag, or whose
// props cannot be decoded, render as UnknownView.
type Content interface {
	blockType() domain.BlockType
}

type BannerView struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	ImageURL  string `json:"imageUrl"`
	CTALabel  string `json:"ctaLabel"`
	CTATarget string `json:"ctaTarget"`
	Align     string `json:"align"`
	Overlay   bool   `json:"overlay"`
}

type MenuView struct {
	Title      string `json:"title"`
	ShowPrices bool   `json:"showPrices"`
	ShowImages bool   `json:"showImages"`
	Columns    int    `json:"columns"`
}

type TextView struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Align string `json:"align"`
}

type GalleryView struct {
	Title   string   `json:"title"`
	Images  []string `json:"images"`
	Columns int      `json:"columns"`
}

type ContactView struct {
	Title   string `json:"title"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	ShowMap bool   `json:"showMap"`
}

type AlertView struct {
	Message     string `json:"message"`
	Tone        string `json:"tone"`
	Dismissible bool   `json:"dismissible"`
}

type FooterView struct {
	Text            string `json:"text"`
	ShowSocialLinks bool   `json:"showSocialLinks"`
}

// UnknownView carries the raw props of a block the renderer has no view for.
type UnknownView struct {
	Tag         domain.BlockType `json:"tag"`
	Props       domain.Props     `json:"props"`
	DecodeError string           `json:"decodeError,omitempty"`
}

func (BannerView) blockType() domain.BlockType { return domain.BlockTypeBanner }
func (MenuView) blockType() domain.BlockType { return domain.BlockTypeMenu }
func (TextView) blockType() domain.BlockType { return domain.BlockTypeText }
func (GalleryView) blockType() domain.BlockType { return domain.BlockTypeGallery }
func (ContactView) blockType() domain.BlockType { return domain.BlockTypeContact }
func (AlertView) blockType() domain.BlockType { return domain.BlockTypeAlert }
func (FooterView) blockType() domain.BlockType { return domain.BlockTypeFooter }
func (v UnknownView) blockType() domain.BlockType { return v.Tag }

// Colors are the effective colours of a block after theme resolution.
type Colors struct {
	Background string `json:"background"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
}

// BlockView is one block ready for display.
type BlockView struct {
	ID      string           `json:"id"`
	Type    domain.BlockType `json:"type"`
	Anchor  string           `json:"anchor"`
	Active  bool             `json:"active"`
	Colors  Colors           `json:"colors"`
	Content Content          `json:"content"`
}

// Fonts are the effective typography of a page.
type Fonts struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Page is a fully resolved storefront.
type Page struct {
	RestaurantID string           `json:"restaurantId"`
	Slug         string           `json:"slug"`
	ThemeColor   string           `json:"themeColor"`
	Fonts        Fonts            `json:"fonts"`
	Nav          []domain.NavLink `json:"nav"`
	Blocks       []BlockView      `json:"blocks"`
	Viewport     domain.Viewport  `json:"viewport,omitempty"`
	MaxWidth     int              `json:"maxWidth,omitempty"`
}
