package domain

// Semantic palette roles.
const (
	RolePrimary     = "primary"
	RoleOnPrimary   = "onPrimary"
	RoleSecondary   = "secondary"
	RoleOnSecondary = "onSecondary"
	RoleBackground  = "background"
	RoleSurface     = "surface"
	RoleText        = "text"
	RoleMuted       = "muted"
)

// PaletteRoles lists every semantic colour role in display order.
var PaletteRoles = []string{
	RolePrimary, RoleOnPrimary,
	RoleSecondary, RoleOnSecondary,
	RoleBackground, RoleSurface,
	RoleText, RoleMuted,
}

// Typography tokens.
const (
	FontHeading = "heading"
	FontBody    = "body"
)

// Palette maps each semantic role to a colour value.
type Palette struct {
	Primary     string `json:"primary" bson:"primary"`
	OnPrimary   string `json:"onPrimary" bson:"onPrimary"`
	Secondary   string `json:"secondary" bson:"secondary"`
	OnSecondary string `json:"onSecondary" bson:"onSecondary"`
	Background  string `json:"background" bson:"background"`
	Surface     string `json:"surface" bson:"surface"`
	Text        string `json:"text" bson:"text"`
	Muted       string `json:"muted" bson:"muted"`
}

// Lookup returns the value stored for role. ok is false when role is not a
// palette role.
func (p Palette) Lookup(role string) (value string, ok bool) {
	if f := p.field(role); f != nil {
		return *f, true
	}
	return "", false
}

// With returns a copy of p with role set to value. Unknown roles leave p unchanged.
func (p Palette) With(role, value string) (Palette, bool) {
	f := p.field(role)
	if f == nil {
		return p, false
	}
	*f = value
	return p, true
}

func (p *Palette) field(role string) *string {
	switch role {
	case RolePrimary:
		return &p.Primary
	case RoleOnPrimary:
		return &p.OnPrimary
	case RoleSecondary:
		return &p.Secondary
	case RoleOnSecondary:
		return &p.OnSecondary
	case RoleBackground:
		return &p.Background
	case RoleSurface:
		return &p.Surface
	case RoleText:
		return &p.Text
	case RoleMuted:
		return &p.Muted
	}
	return nil
}

// Typography holds heading and body font references.
type Typography struct {
	Heading string `json:"heading" bson:"heading"`
	Body    string `json:"body" bson:"body"`
}

// GlobalStyles is the shared theme of a site.
type GlobalStyles struct {
	Palette    Palette    `json:"palette" bson:"palette"`
	Typography Typography `json:"typography" bson:"typography"`
}
