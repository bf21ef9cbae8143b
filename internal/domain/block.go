package domain

import "reflect"

// BlockType is the tag that selects a block's definition in the registry.
type BlockType string

const (
	BlockTypeBanner  BlockType = "banner"
	BlockTypeMenu    BlockType = "menu"
	BlockTypeText    BlockType = "text"
	BlockTypeGallery BlockType = "gallery"
	BlockTypeContact BlockType = "contact"
	BlockTypeAlert   BlockType = "alert"
	BlockTypeFooter  BlockType = "footer"
)

// Props holds type-specific block properties. The layout editor treats it as opaque.
type Props map[string]any

// Block is one entry in a layout.
type Block struct {
	ID       string    `json:"id" bson:"id"`
	Type     BlockType `json:"type" bson:"type"`
	Props    Props     `json:"props" bson:"props"`
	IsActive bool      `json:"isActive" bson:"isActive"`
}

// Layout is the ordered sequence of blocks forming a page.
type Layout []Block

// IndexOf returns the position of the block with the given id, or -1.
func (l Layout) IndexOf(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// IDs returns the set of block ids present in the layout.
func (l Layout) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(l))
	for _, b := range l {
		ids[b.ID] = struct{}{}
	}
	return ids
}

// Active returns the blocks with IsActive set, preserving order.
func (l Layout) Active() Layout {
	out := make(Layout, 0, len(l))
	for _, b := range l {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out
}

// Variant is a prop preset the operator can quick-swap into without changing type.
type Variant struct {
	Name  string `json:"name" yaml:"name" validate:"required,block_tag"`
	Label string `json:"label" yaml:"label" validate:"required"`
	Props Props  `json:"props" yaml:"props"`
}

// BlockTypeDefinition is a registry entry.
type BlockTypeDefinition struct {
	Type          BlockType `json:"type" yaml:"type" validate:"required,block_tag"`
	Label         string    `json:"label" yaml:"label" validate:"required"`
	HiddenFromNav bool      `json:"hiddenFromNav" yaml:"hiddenFromNav"`
	DefaultProps  Props     `json:"defaultProps" yaml:"defaultProps"`
	Variants      []Variant `json:"variants" yaml:"variants" validate:"dive"`
}

// NavLink is a derived navigation entry. It is never persisted.
type NavLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// CloneProps returns a deep copy of p. Nested maps and slices of any element
// type are copied so that the result shares no mutable structure with p.
// Pointers and structs are copied by value; props are expected to hold
// JSON-shaped data.
func CloneProps(p Props) Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Props:
		return CloneProps(t)
	case map[string]any:
		return map[string]any(CloneProps(Props(t)))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	}
	return cloneContainer(v)
}

// cloneContainer copies the remaining map and slice types, e.g.
// []map[string]any or map[string]string, keeping their concrete type.
func cloneContainer(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value(), rv.Type().Elem()))
		}
		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Index(i), rv.Type().Elem()))
		}
		return out.Interface()
	}
	return v
}

func cloneElem(e reflect.Value, typ reflect.Type) reflect.Value {
	c := cloneValue(e.Interface())
	if c == nil {
		return reflect.Zero(typ)
	}
	return reflect.ValueOf(c)
}
