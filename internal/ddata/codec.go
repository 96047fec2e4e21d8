package ddata

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"armature/internal/scene"
)

// Codec moves one field kind between a State Record value and a live
// attribute.
type Codec interface {
	// AttrSpec declares the live attribute backing f.
	AttrSpec(f Field) scene.AttrSpec
	// Pull reads the live attribute into a record value.
	Pull(attr *scene.Attr, f Field) (any, error)
	// Push writes a record value into the live attribute.
	Push(attr *scene.Attr, f Field, v any) error
	// Normalize converts caller or JSON supplied values into the canonical
	// record representation, enforcing bounds.
	Normalize(f Field, v any) (any, error)
}

var codecs = map[Kind]Codec{
	KindString:    valueCodec{attrType: scene.TypeString, norm: normString},
	KindEnum:      valueCodec{attrType: scene.TypeEnum, norm: normEnum, toLive: enumToLive, fromLive: normEnum},
	KindInteger:   valueCodec{attrType: scene.TypeInt, norm: normInt},
	KindFloat:     valueCodec{attrType: scene.TypeFloat, norm: normFloat},
	KindFloat3:    valueCodec{attrType: scene.TypeFloat3, norm: normFloat3},
	KindBool:      valueCodec{attrType: scene.TypeBool, norm: normBool},
	KindMatrix:    valueCodec{attrType: scene.TypeMatrix, norm: normMatrix, respectDriver: true},
	KindJSON:      valueCodec{attrType: scene.TypeJSON, norm: normJSON, toLive: jsonToLive, fromLive: jsonFromLive},
	KindAnimCurve: valueCodec{attrType: scene.TypeAnimCurve, norm: normAnimCurve},
	KindRef:       refCodec{},
	KindCurve:     curveCodec{},
}

// CodecFor returns the codec serving kind.
func CodecFor(kind Kind) (Codec, error) {
	c, ok := codecs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown field kind %q", kind)
	}
	return c, nil
}

type convertFunc func(Field, any) (any, error)

// valueCodec serves every kind whose live form is a plain stored value.
type valueCodec struct {
	attrType scene.AttrType
	norm     convertFunc
	toLive   convertFunc
	fromLive convertFunc
	// respectDriver leaves driven attributes and slots untouched on Push so
	// the upstream connection stays authoritative.
	respectDriver bool
}

func (c valueCodec) AttrSpec(f Field) scene.AttrSpec {
	spec := scene.AttrSpec{Name: f.Name, Type: c.attrType, Multi: f.Multi, Enum: f.Enum, Min: f.Min, Max: f.Max}
	if !f.Multi && f.Default != nil {
		if v, err := c.norm(f, f.Default); err == nil {
			if live, err := c.live(f, v); err == nil {
				spec.Default = live
			}
		}
	}
	return spec
}

func (c valueCodec) Normalize(f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if !f.Multi {
		return c.norm(f, v)
	}
	items, err := asSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		n, err := c.norm(f, item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (c valueCodec) Pull(attr *scene.Attr, f Field) (any, error) {
	if !f.Multi {
		raw := attr.Value()
		if raw == nil {
			return nil, nil
		}
		return c.value(f, raw)
	}
	if attr.Len() == 0 {
		return nil, nil
	}
	out := make([]any, 0, attr.Len())
	for _, idx := range attr.Indices() {
		raw, _ := attr.Slot(idx)
		if raw == nil {
			continue
		}
		v, err := c.value(f, raw)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", idx, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c valueCodec) Push(attr *scene.Attr, f Field, v any) error {
	v, err := c.Normalize(f, v)
	if err != nil {
		return err
	}
	if !f.Multi {
		if c.respectDriver {
			if _, driven := attr.Input(); driven {
				return nil
			}
		}
		live, err := c.live(f, v)
		if err != nil {
			return err
		}
		return attr.Set(live)
	}
	items, _ := v.([]any)
	for i, item := range items {
		if c.respectDriver {
			if _, driven := attr.SlotInput(i); driven {
				continue
			}
		}
		live, err := c.live(f, item)
		if err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
		if err := attr.SetSlot(i, live); err != nil {
			return err
		}
	}
	return nil
}

func (c valueCodec) live(f Field, v any) (any, error) {
	if v == nil || c.toLive == nil {
		return v, nil
	}
	return c.toLive(f, v)
}

func (c valueCodec) value(f Field, raw any) (any, error) {
	if c.fromLive != nil {
		return c.fromLive(f, raw)
	}
	return c.norm(f, raw)
}

// refCodec moves cross-references as connections on the message plug.
type refCodec struct{}

func (refCodec) AttrSpec(f Field) scene.AttrSpec {
	return scene.AttrSpec{Name: f.Name, Type: scene.TypeMessage, Multi: f.Multi}
}

func (refCodec) Normalize(f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if !f.Multi {
		return normRef(v)
	}
	items, err := asSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		r, err := normRef(item)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (refCodec) Pull(attr *scene.Attr, f Field) (any, error) {
	if !f.Multi {
		p, ok := attr.Input()
		if !ok {
			return nil, nil
		}
		return Ref(p.Object.Name()), nil
	}
	var out []any
	for _, idx := range attr.Indices() {
		if p, ok := attr.SlotInput(idx); ok {
			out = append(out, Ref(p.Object.Name()))
		}
	}
	return out, nil
}

func (c refCodec) Push(attr *scene.Attr, f Field, v any) error {
	v, err := c.Normalize(f, v)
	if err != nil {
		return err
	}
	sc := attr.Owner().Scene()
	if !f.Multi {
		ref, _ := v.(Ref)
		if ref == "" {
			attr.Disconnect()
			return nil
		}
		target := sc.Object(string(ref))
		if target == nil {
			return nil
		}
		return attr.Connect(target.Message())
	}
	items, _ := v.([]any)
	for i, item := range items {
		ref, _ := item.(Ref)
		target := sc.Object(string(ref))
		if target == nil {
			continue
		}
		if err := attr.ConnectSlot(i, target.Message()); err != nil {
			return err
		}
	}
	return nil
}

// curveCodec stores one Curve per slot; values are keyed by slot index.
type curveCodec struct{}

func (curveCodec) AttrSpec(f Field) scene.AttrSpec {
	return scene.AttrSpec{Name: f.Name, Type: scene.TypeCurve, Multi: true}
}

func (curveCodec) Normalize(_ Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case map[int]Curve:
		out := make(map[int]Curve, len(val))
		for idx, c := range val {
			out[idx] = cloneCurve(c)
		}
		return out, nil
	case []Curve:
		out := make(map[int]Curve, len(val))
		for idx, c := range val {
			out[idx] = cloneCurve(c)
		}
		return out, nil
	}
	var out map[int]Curve
	if err := remarshal(v, &out); err != nil {
		return nil, fmt.Errorf("curve: %w", err)
	}
	return out, nil
}

func (curveCodec) Pull(attr *scene.Attr, _ Field) (any, error) {
	if attr.Len() == 0 {
		return nil, nil
	}
	out := make(map[int]Curve, attr.Len())
	for _, idx := range attr.Indices() {
		raw, _ := attr.Slot(idx)
		c, ok := raw.(Curve)
		if !ok {
			continue
		}
		out[idx] = cloneCurve(c)
	}
	return out, nil
}

func (c curveCodec) Push(attr *scene.Attr, f Field, v any) error {
	v, err := c.Normalize(f, v)
	if err != nil {
		return err
	}
	curves, _ := v.(map[int]Curve)
	for idx, curve := range curves {
		if err := attr.SetSlot(idx, cloneCurve(curve)); err != nil {
			return err
		}
	}
	return nil
}

func normString(_ Field, v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case Ref:
		return string(s), nil
	}
	return nil, fmt.Errorf("expected string, got %T", v)
}

func normEnum(f Field, v any) (any, error) {
	switch val := v.(type) {
	case string:
		for _, label := range f.Enum {
			if label == val {
				return label, nil
			}
		}
		return nil, fmt.Errorf("%q is not one of %v", val, f.Enum)
	default:
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("enum: %w", err)
		}
		if n < 0 || n >= len(f.Enum) {
			return nil, fmt.Errorf("enum index %d out of range", n)
		}
		return f.Enum[n], nil
	}
}

func enumToLive(f Field, v any) (any, error) {
	label, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("enum: expected label, got %T", v)
	}
	for i, candidate := range f.Enum {
		if candidate == label {
			return i, nil
		}
	}
	return nil, fmt.Errorf("%q is not one of %v", label, f.Enum)
}

func normInt(f Field, v any) (any, error) {
	n, err := toInt(v)
	if err != nil {
		return nil, err
	}
	if f.Min != nil && float64(n) < *f.Min {
		n = int(*f.Min)
	}
	if f.Max != nil && float64(n) > *f.Max {
		n = int(*f.Max)
	}
	return n, nil
}

func normFloat(f Field, v any) (any, error) {
	n, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	if f.Min != nil && n < *f.Min {
		n = *f.Min
	}
	if f.Max != nil && n > *f.Max {
		n = *f.Max
	}
	return n, nil
}

func normBool(_ Field, v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func normFloat3(_ Field, v any) (any, error) {
	switch val := v.(type) {
	case scene.Vec3:
		return val, nil
	case [3]float64:
		return scene.Vec3(val), nil
	}
	items, err := asSlice(v)
	if err != nil {
		return nil, err
	}
	if len(items) != 3 {
		return nil, fmt.Errorf("float3: expected 3 components, got %d", len(items))
	}
	var out scene.Vec3
	for i, item := range items {
		if out[i], err = toFloat(item); err != nil {
			return nil, fmt.Errorf("float3[%d]: %w", i, err)
		}
	}
	return out, nil
}

func normMatrix(_ Field, v any) (any, error) {
	switch val := v.(type) {
	case scene.Matrix:
		return val, nil
	case [16]float64:
		return scene.Matrix(val), nil
	}
	items, err := asSlice(v)
	if err != nil {
		return nil, err
	}
	if len(items) != 16 {
		return nil, fmt.Errorf("matrix: expected 16 elements, got %d", len(items))
	}
	var out scene.Matrix
	for i, item := range items {
		if out[i], err = toFloat(item); err != nil {
			return nil, fmt.Errorf("matrix[%d]: %w", i, err)
		}
	}
	return out, nil
}

func normRef(v any) (any, error) {
	switch val := v.(type) {
	case Ref:
		return val, nil
	case string:
		return Ref(val), nil
	case *scene.Object:
		if val == nil {
			return Ref(""), nil
		}
		return Ref(val.Name()), nil
	}
	return nil, fmt.Errorf("expected reference, got %T", v)
}

func normJSON(_ Field, v any) (any, error) {
	if raw, ok := v.(json.RawMessage); ok {
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		return out, nil
	}
	var out any
	if err := remarshal(v, &out); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return out, nil
}

func jsonToLive(_ Field, v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return string(data), nil
}

func jsonFromLive(_ Field, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("json: expected stored string, got %T", raw)
	}
	if s == "" {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return out, nil
}

func normAnimCurve(_ Field, v any) (any, error) {
	switch val := v.(type) {
	case AnimCurve:
		return cloneAnimCurve(val), nil
	case *AnimCurve:
		if val == nil {
			return nil, nil
		}
		return cloneAnimCurve(*val), nil
	}
	var out AnimCurve
	if err := remarshal(v, &out); err != nil {
		return nil, fmt.Errorf("animcurve: %w", err)
	}
	if len(out.Times) != len(out.Values) {
		return nil, fmt.Errorf("animcurve: %d times but %d values", len(out.Times), len(out.Values))
	}
	return out, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func asSlice(v any) ([]any, error) {
	if items, ok := v.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func remarshal(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func cloneCurve(c Curve) Curve {
	c.Points = append([]scene.Vec3(nil), c.Points...)
	return c
}

func cloneAnimCurve(a AnimCurve) AnimCurve {
	a.Times = append([]float64(nil), a.Times...)
	a.Values = append([]float64(nil), a.Values...)
	a.InTangents = append([]string(nil), a.InTangents...)
	a.OutTangents = append([]string(nil), a.OutTangents...)
	a.InWeights = append([]float64(nil), a.InWeights...)
	a.OutWeights = append([]float64(nil), a.OutWeights...)
	a.InAngles = append([]float64(nil), a.InAngles...)
	a.OutAngles = append([]float64(nil), a.OutAngles...)
	return a
}
