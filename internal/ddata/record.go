package ddata

import (
	"fmt"

	"armature/internal/naming"
	"armature/internal/scene"
)

// Record is the State Record of one component instance: schema-declared
// values plus the component id and parent anchor.
type Record struct {
	schema    *Schema
	id        string
	parent    Anchor
	hasParent bool
	values    map[string]any
}

// New returns a record filled with the schema defaults and a fresh id.
func New(schema *Schema) *Record {
	r := &Record{schema: schema, id: NewComponentID(), values: make(map[string]any)}
	for _, f := range schema.fields {
		codec, err := CodecFor(f.Kind)
		if err != nil {
			continue
		}
		v, err := codec.Normalize(f, f.Default)
		if err != nil {
			continue
		}
		r.values[f.Name] = v
	}
	return r
}

// Schema returns the declaring schema.
func (r *Record) Schema() *Schema { return r.schema }

// Type returns the component type.
func (r *Record) Type() string { return r.schema.typ }

// ID returns the stable component id.
func (r *Record) ID() string { return r.id }

// SetID replaces the component id.
func (r *Record) SetID(id string) { r.id = id }

// Get returns the stored value of name, nil when unset or undeclared.
func (r *Record) Get(name string) any { return r.values[name] }

// Set normalises v under the field declaration and stores it.
func (r *Record) Set(name string, v any) error {
	f, ok := r.schema.Field(name)
	if !ok {
		return fmt.Errorf("%s has no field %q", r.schema.typ, name)
	}
	codec, err := CodecFor(f.Kind)
	if err != nil {
		return err
	}
	n, err := codec.Normalize(f, v)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", r.schema.typ, name, err)
	}
	r.values[name] = n
	return nil
}

// String returns a string-like field ("" when unset).
func (r *Record) String(name string) string {
	switch v := r.values[name].(type) {
	case string:
		return v
	case Ref:
		return string(v)
	}
	return ""
}

// Int returns an integer field; ok is false when unset.
func (r *Record) Int(name string) (int, bool) {
	v, ok := r.values[name].(int)
	return v, ok
}

// Float returns a float field or 0.
func (r *Record) Float(name string) float64 {
	v, _ := r.values[name].(float64)
	return v
}

// Bool returns a boolean field.
func (r *Record) Bool(name string) bool {
	v, _ := r.values[name].(bool)
	return v
}

// Strings returns a multi string field.
func (r *Record) Strings(name string) []string {
	items, _ := r.values[name].([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Matrices returns a multi matrix field.
func (r *Record) Matrices(name string) []scene.Matrix {
	items, _ := r.values[name].([]any)
	out := make([]scene.Matrix, 0, len(items))
	for _, item := range items {
		if m, ok := item.(scene.Matrix); ok {
			out = append(out, m)
		}
	}
	return out
}

// SetMatrices stores ms into a multi matrix field.
func (r *Record) SetMatrices(name string, ms []scene.Matrix) error {
	items := make([]any, len(ms))
	for i, m := range ms {
		items[i] = m
	}
	return r.Set(name, items)
}

// Identity returns the (name, side, index) triple. Records whose schema has
// no side field are assemblies.
func (r *Record) Identity() naming.Identity {
	name := r.String(FieldName)
	if !r.schema.Has(FieldSide) {
		return naming.Assembly(name)
	}
	side, _ := naming.ParseSide(r.String(FieldSide))
	index, ok := r.Int(FieldIndex)
	if !ok {
		index = naming.NoIndex
	}
	return naming.Identity{Name: name, Side: side, Index: index}
}

// SetIdentity writes the identity fields the schema declares.
func (r *Record) SetIdentity(id naming.Identity) error {
	if err := r.Set(FieldName, id.Name); err != nil {
		return err
	}
	if r.schema.Has(FieldSide) && id.Side != naming.SideNone {
		if err := r.Set(FieldSide, string(id.Side)); err != nil {
			return err
		}
	}
	if r.schema.Has(FieldIndex) && id.Index != naming.NoIndex {
		if err := r.Set(FieldIndex, id.Index); err != nil {
			return err
		}
	}
	return nil
}

// ParentAnchor returns the parent anchor, if one is set.
func (r *Record) ParentAnchor() (Anchor, bool) { return r.parent, r.hasParent }

// SetParentAnchor attaches the record to slot a.Index of component
// a.ComponentID.
func (r *Record) SetParentAnchor(a Anchor) {
	r.parent = a
	r.hasParent = a.ComponentID != ""
}

// ClearParentAnchor detaches the record.
func (r *Record) ClearParentAnchor() {
	r.parent = Anchor{}
	r.hasParent = false
}

// CustomRefIndex returns the custom reference index, if set.
func (r *Record) CustomRefIndex() (int, bool) {
	return r.Int(FieldCustomRefIndex)
}

// Values returns a shallow copy of the field values.
func (r *Record) Values() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Clone deep-copies the record, keeping its id.
func (r *Record) Clone() *Record {
	c := &Record{schema: r.schema, id: r.id, parent: r.parent, hasParent: r.hasParent, values: make(map[string]any, len(r.values))}
	for _, f := range r.schema.fields {
		v, ok := r.values[f.Name]
		if !ok {
			continue
		}
		codec, err := CodecFor(f.Kind)
		if err != nil {
			c.values[f.Name] = v
			continue
		}
		n, err := codec.Normalize(f, v)
		if err != nil {
			n = v
		}
		c.values[f.Name] = n
	}
	return c
}
