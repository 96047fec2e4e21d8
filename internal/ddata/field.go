package ddata

import (
	"fmt"
)

// Kind is the semantic type of a schema field.
type Kind string

const (
	KindString    Kind = "string"
	KindEnum      Kind = "enum"
	KindInteger   Kind = "integer"
	KindFloat     Kind = "float"
	KindFloat3    Kind = "float3"
	KindBool      Kind = "bool"
	KindMatrix    Kind = "matrix"
	KindRef       Kind = "ref"
	KindJSON      Kind = "json"
	KindCurve     Kind = "curve"
	KindAnimCurve Kind = "animcurve"
)

// Field declares one schema entry.
type Field struct {
	Name    string
	Kind    Kind
	Multi   bool
	Default any
	Min     *float64
	Max     *float64
	Enum    []string
	// MirrorTokens marks string fields whose side tokens swap on mirror.
	MirrorTokens bool
}

// Bound is a convenience for building Min/Max pointers.
func Bound(v float64) *float64 { return &v }

// Schema is the ordered field declaration for one component type.
type Schema struct {
	typ    string
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema; later fields replace earlier ones with the same
// name while keeping the original position.
func NewSchema(componentType string, fields ...Field) *Schema {
	s := &Schema{typ: componentType, index: make(map[string]int)}
	for _, f := range fields {
		s.add(f)
	}
	return s
}

func (s *Schema) add(f Field) {
	if f.Kind == KindCurve {
		f.Multi = true
	}
	if pos, ok := s.index[f.Name]; ok {
		s.fields[pos] = f
		return
	}
	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
}

// Type returns the component type the schema describes.
func (s *Schema) Type() string { return s.typ }

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	pos, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[pos], true
}

// Has reports whether the schema declares name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Validate checks that every default normalises under its own field.
func (s *Schema) Validate() error {
	for _, f := range s.fields {
		codec, err := CodecFor(f.Kind)
		if err != nil {
			return fmt.Errorf("schema %s field %s: %w", s.typ, f.Name, err)
		}
		if f.Kind == KindEnum && len(f.Enum) == 0 {
			return fmt.Errorf("schema %s field %s: enum without labels", s.typ, f.Name)
		}
		if f.Default == nil {
			continue
		}
		if _, err := codec.Normalize(f, f.Default); err != nil {
			return fmt.Errorf("schema %s field %s default: %w", s.typ, f.Name, err)
		}
	}
	return nil
}
