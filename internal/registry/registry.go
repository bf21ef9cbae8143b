// Package registry holds the static catalog of block types.
//
// A Registry is built once at start-up and never mutated afterwards; every
// accessor returns copies, so callers cannot alter the catalog through the
// values they receive.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"storefront/internal/domain"
)

//go:embed catalog.yaml
var builtinCatalog []byte

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	blockTagPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("block_tag", func(fl validator.FieldLevel) bool {
			return blockTagPattern.MatchString(fl.Field().String())
		})
		validateInst = v
	})
	return validateInst
}

type catalogFile struct {
	Blocks []domain.BlockTypeDefinition `yaml:"blocks" validate:"required,min=1,dive"`
}

// Registry maps block types to their definitions.
type Registry struct {
	order []domain.BlockType
	defs  map[domain.BlockType]domain.BlockTypeDefinition
}

// Builtin returns the registry for the embedded catalog.
func Builtin() (*Registry, error) {
	return Parse(builtinCatalog)
}

// MustBuiltin is Builtin for program initialisation and tests.
func MustBuiltin() *Registry {
	r, err := Builtin()
	if err != nil {
		panic(fmt.Sprintf("registry: builtin catalog: %v", err))
	}
	return r
}

// LoadFile reads a catalog from path. An empty path yields the builtin catalog.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validatorInstance().Struct(file); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return New(file.Blocks...)
}

// New builds a registry from definitions. Duplicate types or duplicate variant
// names within a type are rejected.
func New(defs ...domain.BlockTypeDefinition) (*Registry, error) {
	r := &Registry{defs: make(map[domain.BlockType]domain.BlockTypeDefinition, len(defs))}
	for _, d := range defs {
		if _, exists := r.defs[d.Type]; exists {
			return nil, fmt.Errorf("registry: duplicate block type %q", d.Type)
		}
		seen := make(map[string]struct{}, len(d.Variants))
		for _, v := range d.Variants {
			if _, dup := seen[v.Name]; dup {
				return nil, fmt.Errorf("registry: block type %q: duplicate variant %q", d.Type, v.Name)
			}
			seen[v.Name] = struct{}{}
		}
		r.defs[d.Type] = cloneDefinition(d)
		r.order = append(r.order, d.Type)
	}
	return r, nil
}

// ByType returns the definition for t.
func (r *Registry) ByType(t domain.BlockType) (domain.BlockTypeDefinition, bool) {
	d, ok := r.defs[t]
	if !ok {
		return domain.BlockTypeDefinition{}, false
	}
	return cloneDefinition(d), true
}

// Has reports whether t is a known block type.
func (r *Registry) Has(t domain.BlockType) bool {
	_, ok := r.defs[t]
	return ok
}

// Types lists the known block types in catalog order.
func (r *Registry) Types() []domain.BlockType {
	return append([]domain.BlockType(nil), r.order...)
}

// Definitions lists every definition in catalog order.
func (r *Registry) Definitions() []domain.BlockTypeDefinition {
	out := make([]domain.BlockTypeDefinition, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, cloneDefinition(r.defs[t]))
	}
	return out
}

// DefaultProps returns a fresh copy of t's default props; nil for unknown types.
func (r *Registry) DefaultProps(t domain.BlockType) domain.Props {
	d, ok := r.defs[t]
	if !ok {
		return nil
	}
	return domain.CloneProps(d.DefaultProps)
}

// Variant returns the named variant of t.
func (r *Registry) Variant(t domain.BlockType, name string) (domain.Variant, bool) {
	d, ok := r.defs[t]
	if !ok {
		return domain.Variant{}, false
	}
	for _, v := range d.Variants {
		if v.Name == name {
			v.Props = domain.CloneProps(v.Props)
			return v, true
		}
	}
	return domain.Variant{}, false
}

// HiddenFromNav reports whether t is excluded from navigation. Unknown types
// are treated as hidden.
func (r *Registry) HiddenFromNav(t domain.BlockType) bool {
	d, ok := r.defs[t]
	return !ok || d.HiddenFromNav
}

func cloneDefinition(d domain.BlockTypeDefinition) domain.BlockTypeDefinition {
	d.DefaultProps = domain.CloneProps(d.DefaultProps)
	if d.Variants != nil {
		vs := make([]domain.Variant, len(d.Variants))
		for i, v := range d.Variants {
			v.Props = domain.CloneProps(v.Props)
			vs[i] = v
		}
		d.Variants = vs
	}
	return d
}
