// Package layout implements the structural edits an operator makes to a page.
//
// Every operation takes a layout and returns a new one. The input slice and the
// props maps it references are never written to, so callers can keep the
// previous layout around as an undo snapshot.
package layout

import (
	"strings"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Catalog is the subset of the block registry the editor consults.
type Catalog interface {
	Has(t domain.BlockType) bool
	DefaultProps(t domain.BlockType) domain.Props
	Variant(t domain.BlockType, name string) (domain.Variant, bool)
}

// Editor applies catalog-aware edits. The pure reorder/remove/toggle edits are
// package functions and need no Editor.
type Editor struct {
	catalog   Catalog
	newSuffix func() string
}

// Option configures an Editor.
type Option func(*Editor)

// WithSuffixSource replaces the random id suffix generator.
func WithSuffixSource(fn func() string) Option {
	return func(e *Editor) { e.newSuffix = fn }
}

// NewEditor creates an editor backed by catalog.
func NewEditor(catalog Catalog, opts ...Option) *Editor {
	e := &Editor{catalog: catalog, newSuffix: randomSuffix}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ─────────────────────────────────────────────────────────────
// Reordering
// ─────────────────────────────────────────────────────────────

// MoveUp swaps the block with its predecessor. The first block and unknown ids
// leave the layout unchanged.
func MoveUp(l domain.Layout, id string) domain.Layout {
	i := l.IndexOf(id)
	if i <= 0 {
		return l
	}
	return swap(l, i, i-1)
}

// MoveDown swaps the block with its successor. The last block and unknown ids
// leave the layout unchanged.
func MoveDown(l domain.Layout, id string) domain.Layout {
	i := l.IndexOf(id)
	if i < 0 || i >= len(l)-1 {
		return l
	}
	return swap(l, i, i+1)
}

func swap(l domain.Layout, i, j int) domain.Layout {
	out := append(domain.Layout(nil), l...)
	out[i], out[j] = out[j], out[i]
	return out
}

// ─────────────────────────────────────────────────────────────
// Insertion and removal
// ─────────────────────────────────────────────────────────────

// Duplicate inserts a copy of the block right after it. The copy gets deep
// copied props and a fresh id of the form <sourceID>-<suffix>.
func (e *Editor) Duplicate(l domain.Layout, id string) domain.Layout {
	i := l.IndexOf(id)
	if i < 0 {
		return l
	}
	src := l[i]
	dup := domain.Block{
		ID:       e.freshID(l, src.ID),
		Type:     src.Type,
		Props:    domain.CloneProps(src.Props),
		IsActive: src.IsActive,
	}
	return insertAt(l, i+1, dup)
}

// Add inserts a new active block of type t with the catalog defaults. With an
// empty or unknown after id the block is appended. ok is false, and l is
// returned unchanged, when t is not in the catalog.
func (e *Editor) Add(l domain.Layout, t domain.BlockType, after string) (out domain.Layout, id string, ok bool) {
	if !e.catalog.Has(t) {
		return l, "", false
	}
	b := domain.Block{
		ID:       e.freshID(l, string(t)),
		Type:     t,
		Props:    e.catalog.DefaultProps(t),
		IsActive: true,
	}
	pos := len(l)
	if i := l.IndexOf(after); after != "" && i >= 0 {
		pos = i + 1
	}
	return insertAt(l, pos, b), b.ID, true
}

// freshID returns base-<suffix>, regenerating the suffix until the id is not
// used anywhere in l.
func (e *Editor) freshID(l domain.Layout, base string) string {
	taken := l.IDs()
	for {
		id := base + "-" + e.newSuffix()
		if _, exists := taken[id]; !exists {
			return id
		}
	}
}

func insertAt(l domain.Layout, pos int, b domain.Block) domain.Layout {
	out := make(domain.Layout, 0, len(l)+1)
	out = append(out, l[:pos]...)
	out = append(out, b)
	return append(out, l[pos:]...)
}

// Remove drops the block with the given id. Removing an absent id is a no-op.
func Remove(l domain.Layout, id string) domain.Layout {
	i := l.IndexOf(id)
	if i < 0 {
		return l
	}
	out := make(domain.Layout, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...)
}

// SetActive toggles whether the block renders publicly.
func SetActive(l domain.Layout, id string, active bool) domain.Layout {
	i := l.IndexOf(id)
	if i < 0 || l[i].IsActive == active {
		return l
	}
	out := append(domain.Layout(nil), l...)
	out[i].IsActive = active
	return out
}

// ─────────────────────────────────────────────────────────────
// Props
// ─────────────────────────────────────────────────────────────

// SwapType changes the block's type in place. Props are reset to the new
// type's defaults; with preserveCommon, keys present in both the old props and
// the new defaults keep their old values. Keys the new type does not define are
// dropped. An unregistered newType leaves the layout unchanged.
func (e *Editor) SwapType(l domain.Layout, id string, newType domain.BlockType, preserveCommon bool) domain.Layout {
	i := l.IndexOf(id)
	if i < 0 || !e.catalog.Has(newType) {
		return l
	}
	props := e.catalog.DefaultProps(newType)
	if props == nil {
		props = domain.Props{}
	}
	if preserveCommon {
		old := domain.CloneProps(l[i].Props)
		for k := range props {
			if v, ok := old[k]; ok {
				props[k] = v
			}
		}
	}
	out := append(domain.Layout(nil), l...)
	out[i].Type = newType
	out[i].Props = props
	return out
}

// ApplyVariant overlays a catalog variant's props onto the block without
// changing its type. Unknown variants are ignored.
func (e *Editor) ApplyVariant(l domain.Layout, id, variant string) domain.Layout {
	i := l.IndexOf(id)
	if i < 0 {
		return l
	}
	v, ok := e.catalog.Variant(l[i].Type, variant)
	if !ok {
		return l
	}
	props := domain.CloneProps(l[i].Props)
	if props == nil {
		props = domain.Props{}
	}
	for k, val := range v.Props {
		props[k] = val
	}
	out := append(domain.Layout(nil), l...)
	out[i].Props = props
	return out
}

// UpdateProps shallow-merges patch into the block's props. A nil value in
// patch deletes the key.
func UpdateProps(l domain.Layout, id string, patch domain.Props) domain.Layout {
	i := l.IndexOf(id)
	if i < 0 || len(patch) == 0 {
		return l
	}
	props := domain.CloneProps(l[i].Props)
	if props == nil {
		props = domain.Props{}
	}
	for k, v := range domain.CloneProps(patch) {
		if v == nil {
			delete(props, k)
			continue
		}
		props[k] = v
	}
	out := append(domain.Layout(nil), l...)
	out[i].Props = props
	return out
}
