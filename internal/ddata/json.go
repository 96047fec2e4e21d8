package ddata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Keys of the derived members in the serialised form.
const (
	KeyComponentID  = "component_id"
	KeyParentAnchor = "parent_anchor"
)

// MarshalJSON emits a flat object: the derived members first, then every
// field in schema order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", r.schema.typ, key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(data)
		return nil
	}
	if err := write(KeyComponentID, r.id); err != nil {
		return nil, err
	}
	if r.hasParent {
		if err := write(KeyParentAnchor, r.parent.String()); err != nil {
			return nil, err
		}
	}
	for _, f := range r.schema.fields {
		if err := write(f.Name, r.values[f.Name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Map returns the record in the same generic shape MarshalJSON produces,
// suitable for YAML encoding.
func (r *Record) Map() (map[string]any, error) {
	data, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeRecord rebuilds a record from its serialised members. Keys the
// schema does not declare are rejected; declared fields that are missing
// keep their defaults.
func DecodeRecord(schema *Schema, raw map[string]json.RawMessage) (*Record, error) {
	rec := New(schema)
	var unknown []string
	for key, value := range raw {
		switch key {
		case KeyComponentID:
			var id string
			if err := json.Unmarshal(value, &id); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", schema.typ, key, err)
			}
			if id != "" {
				rec.id = id
			}
			continue
		case KeyParentAnchor:
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", schema.typ, key, err)
			}
			anchor, ok, err := ParseAnchor(s)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", schema.typ, err)
			}
			if ok {
				rec.SetParentAnchor(anchor)
			}
			continue
		}
		f, ok := schema.Field(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		codec, err := CodecFor(f.Kind)
		if err != nil {
			return nil, err
		}
		var generic any
		if err := json.Unmarshal(value, &generic); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", schema.typ, key, err)
		}
		v, err := codec.Normalize(f, generic)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", schema.typ, key, err)
		}
		rec.values[f.Name] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%s: unknown fields %v", schema.typ, unknown)
	}
	return rec, nil
}
