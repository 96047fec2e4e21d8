package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrNameTaken is returned when an object name is already in use.
	ErrNameTaken = errors.New("scene: name already in use")
	// ErrLocked is returned when writing a locked attribute.
	ErrLocked = errors.New("scene: attribute is locked")
	// ErrBlackboxed is returned when mutating the inside of a blackboxed container.
	ErrBlackboxed = errors.New("scene: object is blackboxed")
	// ErrInvalidPlug is returned when connecting from a deleted or nil object.
	ErrInvalidPlug = errors.New("scene: invalid plug")
	// ErrAttrExists is returned when adding an attribute twice.
	ErrAttrExists = errors.New("scene: attribute already exists")
)

// Kind classifies scene objects.
type Kind string

const (
	KindTransform Kind = "transform"
	KindJoint     Kind = "joint"
	KindCurve     Kind = "curve"
	KindContainer Kind = "container"
	KindSet       Kind = "set"
)

// Object is a node in the scene hierarchy.
type Object struct {
	scene    *Scene
	name     string
	kind     Kind
	parent   *Object
	children []*Object
	matrix   Matrix

	attrs     map[string]*Attr
	attrOrder []string

	blackboxed bool
	deleted    bool
}

// Name returns the unique object name.
func (o *Object) Name() string { return o.name }

// Scene returns the scene owning the object.
func (o *Object) Scene() *Scene { return o.scene }

// Kind returns the object kind.
func (o *Object) Kind() Kind { return o.kind }

// Parent returns the hierarchy parent or nil for scene roots.
func (o *Object) Parent() *Object { return o.parent }

// Children returns a copy of the child list.
func (o *Object) Children() []*Object { return append([]*Object(nil), o.children...) }

// Deleted reports whether the object has been removed from its scene.
func (o *Object) Deleted() bool { return o.deleted }

// Blackboxed reports whether the object sits inside a locked container.
func (o *Object) Blackboxed() bool {
	for cur := o; cur != nil; cur = cur.parent {
		if cur.blackboxed {
			return true
		}
	}
	return false
}

func (o *Object) mutable() error {
	if o.deleted {
		return fmt.Errorf("scene: object %s was deleted", o.name)
	}
	if o.Blackboxed() {
		return fmt.Errorf("%w: %s", ErrBlackboxed, o.name)
	}
	return nil
}

// WorldMatrix returns the object's world transform.
func (o *Object) WorldMatrix() Matrix { return o.matrix }

// SetWorldMatrix places the object in world space.
func (o *Object) SetWorldMatrix(m Matrix) error {
	if err := o.mutable(); err != nil {
		return err
	}
	o.matrix = m
	return nil
}

// AddAttr declares a new attribute.
func (o *Object) AddAttr(spec AttrSpec) (*Attr, error) {
	if err := o.mutable(); err != nil {
		return nil, err
	}
	if spec.Name == "" {
		return nil, errors.New("scene: empty attribute name")
	}
	if _, ok := o.attrs[spec.Name]; ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrAttrExists, o.name, spec.Name)
	}
	attr := &Attr{
		owner: o,
		name:  spec.Name,
		typ:   spec.Type,
		multi: spec.Multi,
		enum:  append([]string(nil), spec.Enum...),
		min:   spec.Min,
		max:   spec.Max,
	}
	if !spec.Multi {
		attr.value = attr.clamp(spec.Default)
	}
	if o.attrs == nil {
		o.attrs = make(map[string]*Attr)
	}
	o.attrs[spec.Name] = attr
	o.attrOrder = append(o.attrOrder, spec.Name)
	return attr, nil
}

// EnsureAttr returns the named attribute, declaring it from spec when absent.
func (o *Object) EnsureAttr(spec AttrSpec) (*Attr, error) {
	if attr := o.Attr(spec.Name); attr != nil {
		return attr, nil
	}
	return o.AddAttr(spec)
}

// Attr returns the named attribute or nil.
func (o *Object) Attr(name string) *Attr {
	if o == nil {
		return nil
	}
	return o.attrs[name]
}

// HasAttr reports whether the attribute exists.
func (o *Object) HasAttr(name string) bool { return o.Attr(name) != nil }

// Attrs returns the attributes in declaration order.
func (o *Object) Attrs() []*Attr {
	out := make([]*Attr, 0, len(o.attrOrder))
	for _, name := range o.attrOrder {
		out = append(out, o.attrs[name])
	}
	return out
}

// LockAttr marks the attribute read-only. Unknown names are ignored.
func (o *Object) LockAttr(name string) {
	if attr := o.Attr(name); attr != nil {
		attr.locked = true
	}
}

// StringAttr reads a string attribute, returning "" when absent.
func (o *Object) StringAttr(name string) string {
	attr := o.Attr(name)
	if attr == nil {
		return ""
	}
	s, _ := attr.Value().(string)
	return s
}

// SetStringAttr writes a string attribute, declaring it when absent.
func (o *Object) SetStringAttr(name, value string) error {
	attr, err := o.EnsureAttr(AttrSpec{Name: name, Type: TypeString})
	if err != nil {
		return err
	}
	return attr.Set(value)
}

// Message returns a Plug on the object's message output.
func (o *Object) Message() Plug { return Plug{Object: o, Attr: PlugMessage} }

// World returns a Plug on the object's world matrix output.
func (o *Object) World() Plug { return Plug{Object: o, Attr: PlugWorldMatrix} }

// Ancestors returns the parent chain, nearest first.
func (o *Object) Ancestors() []*Object {
	var out []*Object
	for cur := o.parent; cur != nil; cur = cur.parent {
		out = append(out, cur)
	}
	return out
}

// Descendants returns every object below o in depth-first pre-order.
func (o *Object) Descendants() []*Object {
	var out []*Object
	var walk func(*Object)
	walk = func(cur *Object) {
		for _, child := range cur.children {
			out = append(out, child)
			walk(child)
		}
	}
	walk(o)
	return out
}

func (o *Object) removeChild(child *Object) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}
