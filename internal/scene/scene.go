package scene

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Scene owns every live object.
type Scene struct {
	objects   map[string]*Object
	order     []*Object
	selection []*Object

	chunks    []string
	openChunk int
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{objects: make(map[string]*Object)}
}

// Create adds an object under parent (nil for a scene root).
func (s *Scene) Create(name string, kind Kind, parent *Object) (*Object, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("scene: empty object name")
	}
	if _, ok := s.objects[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrNameTaken, name)
	}
	if parent != nil {
		if err := parent.mutable(); err != nil {
			return nil, err
		}
	}
	obj := &Object{
		scene:  s,
		name:   name,
		kind:   kind,
		parent: parent,
		matrix: Identity(),
		attrs:  make(map[string]*Attr),
	}
	if parent != nil {
		parent.children = append(parent.children, obj)
		obj.matrix = parent.matrix
	}
	s.objects[name] = obj
	s.order = append(s.order, obj)
	return obj, nil
}

// UniqueName returns base when free, otherwise base with the smallest
// numeric suffix that is not taken.
func (s *Scene) UniqueName(base string) string {
	if _, ok := s.objects[base]; !ok {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + strconv.Itoa(i)
		if _, ok := s.objects[candidate]; !ok {
			return candidate
		}
	}
}

// Object looks up an object by name.
func (s *Scene) Object(name string) *Object {
	return s.objects[name]
}

// Rename changes an object's unique name.
func (s *Scene) Rename(obj *Object, name string) error {
	if obj == nil || obj.deleted {
		return errors.New("scene: rename of missing object")
	}
	if err := obj.mutable(); err != nil {
		return err
	}
	if obj.name == name {
		return nil
	}
	if _, ok := s.objects[name]; ok {
		return fmt.Errorf("%w: %s", ErrNameTaken, name)
	}
	delete(s.objects, obj.name)
	obj.name = name
	s.objects[name] = obj
	return nil
}

// Reparent moves obj under parent, keeping its world matrix.
func (s *Scene) Reparent(obj, parent *Object) error {
	if err := obj.mutable(); err != nil {
		return err
	}
	for cur := parent; cur != nil; cur = cur.parent {
		if cur == obj {
			return fmt.Errorf("scene: cannot parent %s under its own descendant", obj.name)
		}
	}
	if obj.parent != nil {
		obj.parent.removeChild(obj)
	}
	obj.parent = parent
	if parent != nil {
		parent.children = append(parent.children, obj)
	}
	return nil
}

// Delete removes obj and its descendants. Connections sourced from deleted
// objects evaluate as absent afterwards.
func (s *Scene) Delete(obj *Object) {
	if obj == nil || obj.deleted {
		return
	}
	for _, child := range obj.Children() {
		s.Delete(child)
	}
	if obj.parent != nil {
		obj.parent.removeChild(obj)
	}
	obj.deleted = true
	delete(s.objects, obj.name)
	for i, cur := range s.order {
		if cur == obj {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for i, cur := range s.selection {
		if cur == obj {
			s.selection = append(s.selection[:i], s.selection[i+1:]...)
			break
		}
	}
}

// Objects returns live objects in creation order.
func (s *Scene) Objects() []*Object {
	return append([]*Object(nil), s.order...)
}

// Roots returns the objects without a parent in creation order.
func (s *Scene) Roots() []*Object {
	var out []*Object
	for _, obj := range s.order {
		if obj.parent == nil {
			out = append(out, obj)
		}
	}
	return out
}

// Outliner renders the hierarchy as indented "name (kind)" lines.
func (s *Scene) Outliner() []string {
	var lines []string
	var walk func(obj *Object, depth int)
	walk = func(obj *Object, depth int) {
		lines = append(lines, strings.Repeat("  ", depth)+obj.name+" ("+string(obj.kind)+")")
		for _, child := range obj.children {
			walk(child, depth+1)
		}
	}
	for _, root := range s.Roots() {
		walk(root, 0)
	}
	return lines
}

// Connection describes one edge leaving an object.
type Connection struct {
	Source string
	Dest   *Object
	Attr   string
	Slot   int // -1 for non-multi destinations
}

// Outputs lists every attribute driven by obj, in scene order.
func (s *Scene) Outputs(obj *Object) []Connection {
	var out []Connection
	for _, dst := range s.order {
		for _, attr := range dst.Attrs() {
			if attr.input != nil && attr.input.Object == obj {
				out = append(out, Connection{Source: attr.input.Attr, Dest: dst, Attr: attr.name, Slot: -1})
			}
			for _, idx := range attr.Indices() {
				sl := attr.slots[idx]
				if sl.input != nil && sl.input.Object == obj {
					out = append(out, Connection{Source: sl.input.Attr, Dest: dst, Attr: attr.name, Slot: idx})
				}
			}
		}
	}
	return out
}

// Duplicate deep-copies the subtree rooted at obj under the same parent.
// Connections between objects inside the subtree are remapped onto the
// copies; connections from outside are kept. Copies get unique temporary
// names derived from the originals. The returned map goes from original to
// copy.
func (s *Scene) Duplicate(obj *Object) (*Object, map[*Object]*Object, error) {
	if obj == nil || obj.deleted {
		return nil, nil, errors.New("scene: duplicate of missing object")
	}
	mapping := make(map[*Object]*Object)
	var copyTree func(src, parent *Object) (*Object, error)
	copyTree = func(src, parent *Object) (*Object, error) {
		dup, err := s.Create(s.UniqueName(src.name+"_dup"), src.kind, parent)
		if err != nil {
			return nil, err
		}
		dup.matrix = src.matrix
		for _, attr := range src.Attrs() {
			dup.attrs[attr.name] = attr.clone(dup)
			dup.attrOrder = append(dup.attrOrder, attr.name)
		}
		mapping[src] = dup
		for _, child := range src.children {
			if _, err := copyTree(child, dup); err != nil {
				return nil, err
			}
		}
		return dup, nil
	}
	root, err := copyTree(obj, obj.parent)
	if err != nil {
		return nil, nil, err
	}
	for _, dup := range mapping {
		for _, attr := range dup.attrs {
			if attr.input != nil {
				if mapped, ok := mapping[attr.input.Object]; ok {
					attr.input.Object = mapped
				}
			}
			for _, sl := range attr.slots {
				if sl.input != nil {
					if mapped, ok := mapping[sl.input.Object]; ok {
						sl.input.Object = mapped
					}
				}
			}
		}
	}
	return root, mapping, nil
}

// Blackbox locks the container and everything below it.
func (s *Scene) Blackbox(obj *Object) {
	if obj != nil {
		obj.blackboxed = true
	}
}

// Select replaces the current selection.
func (s *Scene) Select(objs ...*Object) {
	s.selection = s.selection[:0]
	for _, obj := range objs {
		if obj != nil && !obj.deleted {
			s.selection = append(s.selection, obj)
		}
	}
}

// Selection returns the selected objects in selection order.
func (s *Scene) Selection() []*Object {
	return append([]*Object(nil), s.selection...)
}

// BeginChunk opens an undo chunk and returns the function closing it. Nested
// chunks fold into the outermost one.
func (s *Scene) BeginChunk(name string) func() {
	if s.openChunk == 0 {
		s.chunks = append(s.chunks, name)
	}
	s.openChunk++
	closed := false
	return func() {
		if closed {
			return
		}
		closed = true
		s.openChunk--
	}
}

// Chunks returns the names of the undo chunks opened so far.
func (s *Scene) Chunks() []string {
	return append([]string(nil), s.chunks...)
}

// InChunk reports whether an undo chunk is currently open.
func (s *Scene) InChunk() bool { return s.openChunk > 0 }
