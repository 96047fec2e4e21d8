package component

import (
	"sort"
	"strconv"
	"strings"

	"armature/internal/ddata"
	"armature/internal/faults"
	"armature/internal/guide"
	"armature/internal/tree"
)

// Definition registers one component type.
type Definition struct {
	Type        string
	Description string
	Schema      *ddata.Schema
	Recipe      guide.Recipe
	New         Factory
}

// Registry maps component type names to definitions. It is populated once at
// startup and passed to whatever needs it.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register validates and adds def.
func (r *Registry) Register(def Definition) error {
	typ := strings.TrimSpace(def.Type)
	if typ == "" {
		return faults.Wrap(faults.ErrSchema, "registry", "register", "empty component type", nil)
	}
	if _, ok := r.defs[typ]; ok {
		return faults.Wrap(faults.ErrSchema, "registry", "register", typ+" is already registered", nil)
	}
	if def.New == nil {
		return faults.Wrap(faults.ErrSchema, "registry", "register", typ+" has no factory", nil)
	}
	if def.Schema == nil || def.Schema.Type() != typ {
		return faults.Wrap(faults.ErrSchema, "registry", "register", typ+" has no matching schema", nil)
	}
	if err := def.Schema.Validate(); err != nil {
		return faults.Wrap(faults.ErrSchema, "registry", "register", typ, err)
	}
	if err := def.Recipe.Validate(); err != nil {
		return faults.Wrap(faults.ErrSchema, "registry", "register", typ+" recipe", err)
	}
	def.Type = typ
	r.defs[typ] = def
	return nil
}

// Lookup returns the definition of componentType.
func (r *Registry) Lookup(componentType string) (Definition, error) {
	def, ok := r.defs[componentType]
	if !ok {
		return Definition{}, faults.Wrap(faults.ErrSchema, "registry", "lookup", "unknown component type "+strconv.Quote(componentType), nil)
	}
	return def, nil
}

// Schema implements guide.Catalog.
func (r *Registry) Schema(componentType string) (*ddata.Schema, error) {
	def, err := r.Lookup(componentType)
	if err != nil {
		return nil, err
	}
	return def.Schema, nil
}

// Recipe implements guide.Catalog.
func (r *Registry) Recipe(componentType string) (guide.Recipe, error) {
	def, err := r.Lookup(componentType)
	if err != nil {
		return guide.Recipe{}, err
	}
	return def.Recipe, nil
}

// OverrideRecipe replaces the guide recipe of a registered type.
func (r *Registry) OverrideRecipe(componentType string, recipe guide.Recipe) error {
	def, err := r.Lookup(componentType)
	if err != nil {
		return err
	}
	if err := recipe.Validate(); err != nil {
		return faults.Wrap(faults.ErrSchema, "registry", "override recipe", componentType, err)
	}
	def.Recipe = recipe
	r.defs[componentType] = def
	return nil
}

// NewRecord returns a default record of componentType.
func (r *Registry) NewRecord(componentType string) (*ddata.Record, error) {
	schema, err := r.Schema(componentType)
	if err != nil {
		return nil, err
	}
	return ddata.New(schema), nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.defs))
	for typ := range r.defs {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every node in root's tree has a registered type.
func (r *Registry) Validate(root *tree.Node) error {
	return root.Walk(func(n *tree.Node) error {
		_, err := r.Lookup(n.Record().Type())
		return err
	})
}

// Instantiate creates the components of root's tree in pre-order. Every type
// is checked before any factory runs.
func (r *Registry) Instantiate(root *tree.Node) ([]Component, error) {
	if err := r.Validate(root); err != nil {
		return nil, err
	}
	var out []Component
	for _, n := range root.Nodes() {
		out = append(out, r.defs[n.Record().Type()].New(n))
	}
	return out, nil
}
