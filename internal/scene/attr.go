package scene

import (
	"fmt"
	"sort"
)

// AttrType identifies the live representation of an attribute.
type AttrType string

const (
	TypeString    AttrType = "string"
	TypeEnum      AttrType = "enum"
	TypeInt       AttrType = "int"
	TypeFloat     AttrType = "float"
	TypeFloat3    AttrType = "float3"
	TypeBool      AttrType = "bool"
	TypeMatrix    AttrType = "matrix"
	TypeMessage   AttrType = "message"
	TypeJSON      AttrType = "json"
	TypeCurve     AttrType = "curve"
	TypeAnimCurve AttrType = "animcurve"
)

// Built-in plug names every object exposes as connection sources.
const (
	PlugMessage     = "message"
	PlugWorldMatrix = "worldMatrix"
)

// Plug addresses a connection source: an attribute (or built-in plug) on an
// object.
type Plug struct {
	Object *Object
	Attr   string
}

// Valid reports whether the plug points at a live object.
func (p Plug) Valid() bool {
	return p.Object != nil && !p.Object.deleted
}

// Value evaluates the plug against the current scene state.
func (p Plug) Value() any {
	if !p.Valid() {
		return nil
	}
	switch p.Attr {
	case PlugMessage:
		return p.Object
	case PlugWorldMatrix:
		return p.Object.WorldMatrix()
	}
	attr := p.Object.Attr(p.Attr)
	if attr == nil {
		return nil
	}
	return attr.Value()
}

// AttrSpec declares a new attribute.
type AttrSpec struct {
	Name    string
	Type    AttrType
	Multi   bool
	Enum    []string
	Min     *float64
	Max     *float64
	Default any
}

type slot struct {
	value any
	input *Plug
}

// Attr is a typed attribute owned by an Object.
type Attr struct {
	owner  *Object
	name   string
	typ    AttrType
	multi  bool
	enum   []string
	min    *float64
	max    *float64
	locked bool

	value any
	input *Plug
	slots map[int]*slot
}

// Name returns the attribute name.
func (a *Attr) Name() string { return a.name }

// Type returns the attribute type.
func (a *Attr) Type() AttrType { return a.typ }

// Multi reports whether the attribute holds indexed slots.
func (a *Attr) Multi() bool { return a.multi }

// Enum returns the enum labels in index order.
func (a *Attr) Enum() []string { return append([]string(nil), a.enum...) }

// Bounds returns the numeric bounds, if any.
func (a *Attr) Bounds() (min, max *float64) { return a.min, a.max }

// Locked reports whether the attribute rejects writes.
func (a *Attr) Locked() bool { return a.locked }

// Owner returns the object holding the attribute.
func (a *Attr) Owner() *Object { return a.owner }

func (a *Attr) writable() error {
	if a.locked {
		return fmt.Errorf("%w: %s.%s", ErrLocked, a.owner.name, a.name)
	}
	return a.owner.mutable()
}

// Value returns the evaluated value of a non-multi attribute. A connected
// attribute reports its driver's value.
func (a *Attr) Value() any {
	if a.input != nil {
		if a.input.Valid() {
			return a.input.Value()
		}
		return nil
	}
	return a.value
}

// Set writes a raw value to a non-multi attribute.
func (a *Attr) Set(v any) error {
	if err := a.writable(); err != nil {
		return err
	}
	a.value = a.clamp(v)
	return nil
}

// Input returns the incoming connection, if any.
func (a *Attr) Input() (Plug, bool) {
	if a.input == nil || !a.input.Valid() {
		return Plug{}, false
	}
	return *a.input, true
}

// Connect drives the attribute from src.
func (a *Attr) Connect(src Plug) error {
	if err := a.writable(); err != nil {
		return err
	}
	if !src.Valid() {
		return fmt.Errorf("connect %s.%s: %w", a.owner.name, a.name, ErrInvalidPlug)
	}
	p := src
	a.input = &p
	return nil
}

// Disconnect removes the incoming connection, keeping the last stored value.
func (a *Attr) Disconnect() {
	a.input = nil
}

// Indices returns the materialised slot indices in ascending order.
func (a *Attr) Indices() []int {
	out := make([]int, 0, len(a.slots))
	for idx := range a.slots {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of materialised slots.
func (a *Attr) Len() int { return len(a.slots) }

// Slot returns the evaluated value stored at idx.
func (a *Attr) Slot(idx int) (any, bool) {
	s, ok := a.slots[idx]
	if !ok {
		return nil, false
	}
	if s.input != nil {
		if s.input.Valid() {
			return s.input.Value(), true
		}
		return nil, true
	}
	return s.value, true
}

// SlotInput returns the connection driving slot idx.
func (a *Attr) SlotInput(idx int) (Plug, bool) {
	s, ok := a.slots[idx]
	if !ok || s.input == nil || !s.input.Valid() {
		return Plug{}, false
	}
	return *s.input, true
}

// SetSlot writes a raw value into slot idx, materialising it when needed.
func (a *Attr) SetSlot(idx int, v any) error {
	if err := a.writable(); err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("%s.%s[%d]: negative slot index", a.owner.name, a.name, idx)
	}
	a.ensureSlot(idx).value = a.clamp(v)
	return nil
}

// ConnectSlot drives slot idx from src, materialising it when needed.
func (a *Attr) ConnectSlot(idx int, src Plug) error {
	if err := a.writable(); err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("%s.%s[%d]: negative slot index", a.owner.name, a.name, idx)
	}
	if !src.Valid() {
		return fmt.Errorf("connect %s.%s[%d]: %w", a.owner.name, a.name, idx, ErrInvalidPlug)
	}
	p := src
	a.ensureSlot(idx).input = &p
	return nil
}

// Append connects src into the next free slot and returns its index.
func (a *Attr) Append(src Plug) (int, error) {
	idx := 0
	if n := len(a.slots); n > 0 {
		indices := a.Indices()
		idx = indices[n-1] + 1
	}
	return idx, a.ConnectSlot(idx, src)
}

// Objects returns the objects connected into a multi message attribute in
// slot order; unconnected slots are skipped.
func (a *Attr) Objects() []*Object {
	var out []*Object
	for _, idx := range a.Indices() {
		if p, ok := a.SlotInput(idx); ok {
			out = append(out, p.Object)
		}
	}
	return out
}

func (a *Attr) ensureSlot(idx int) *slot {
	if a.slots == nil {
		a.slots = make(map[int]*slot)
	}
	s, ok := a.slots[idx]
	if !ok {
		s = &slot{}
		a.slots[idx] = s
	}
	return s
}

func (a *Attr) clamp(v any) any {
	switch n := v.(type) {
	case float64:
		if a.min != nil && n < *a.min {
			return *a.min
		}
		if a.max != nil && n > *a.max {
			return *a.max
		}
	case int:
		if a.min != nil && float64(n) < *a.min {
			return int(*a.min)
		}
		if a.max != nil && float64(n) > *a.max {
			return int(*a.max)
		}
	}
	return v
}

func (a *Attr) clone(owner *Object) *Attr {
	c := &Attr{
		owner:  owner,
		name:   a.name,
		typ:    a.typ,
		multi:  a.multi,
		enum:   append([]string(nil), a.enum...),
		min:    a.min,
		max:    a.max,
		locked: a.locked,
		value:  a.value,
	}
	if a.input != nil {
		p := *a.input
		c.input = &p
	}
	if len(a.slots) > 0 {
		c.slots = make(map[int]*slot, len(a.slots))
		for idx, s := range a.slots {
			cs := &slot{value: s.value}
			if s.input != nil {
				p := *s.input
				cs.input = &p
			}
			c.slots[idx] = cs
		}
	}
	return c
}
