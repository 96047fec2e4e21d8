package ddata

import (
	"fmt"

	"armature/internal/scene"
)

// Attribute names whose incoming connections publish anchor slots.
const (
	slotAnchors    = "anchors"
	slotRefAnchors = "ref_anchors"
)

// Pull reads the live object back into a record. Schema fields missing on
// the object keep their defaults.
func Pull(obj *scene.Object, schema *Schema) (*Record, error) {
	if obj == nil {
		return nil, fmt.Errorf("pull %s: nil object", schema.typ)
	}
	rec := New(schema)
	if id := obj.StringAttr(AttrComponentID); id != "" {
		rec.id = id
	}
	for _, f := range schema.fields {
		attr := obj.Attr(f.Name)
		if attr == nil {
			continue
		}
		codec, err := CodecFor(f.Kind)
		if err != nil {
			return nil, err
		}
		v, err := codec.Pull(attr, f)
		if err != nil {
			return nil, fmt.Errorf("pull %s.%s: %w", obj.Name(), f.Name, err)
		}
		rec.values[f.Name] = v
	}
	anchor, ok, err := pullParentAnchor(obj)
	if err != nil {
		return nil, err
	}
	if ok {
		rec.SetParentAnchor(anchor)
	}
	return rec, nil
}

// Push writes the record into the live object, declaring missing attributes
// with their defaults first. Locked attributes keep their live value.
func Push(rec *Record, obj *scene.Object) error {
	for _, f := range rec.schema.fields {
		codec, err := CodecFor(f.Kind)
		if err != nil {
			return err
		}
		attr, err := obj.EnsureAttr(codec.AttrSpec(f))
		if err != nil {
			return fmt.Errorf("push %s.%s: %w", obj.Name(), f.Name, err)
		}
		if attr.Locked() {
			continue
		}
		if err := codec.Push(attr, f, rec.values[f.Name]); err != nil {
			return fmt.Errorf("push %s.%s: %w", obj.Name(), f.Name, err)
		}
	}
	if err := obj.SetStringAttr(AttrComponentID, rec.id); err != nil {
		return fmt.Errorf("push %s.%s: %w", obj.Name(), AttrComponentID, err)
	}
	if err := obj.SetStringAttr(AttrParentAnchor, rec.parent.String()); err != nil {
		return fmt.Errorf("push %s.%s: %w", obj.Name(), AttrParentAnchor, err)
	}
	return nil
}

// pullParentAnchor finds which anchor slot of which component the object
// hangs under by walking its ancestors, nearest first, and looking for an
// ancestor that feeds a component root's anchor list. The stored string is
// the fallback for objects that were never parented.
func pullParentAnchor(obj *scene.Object) (Anchor, bool, error) {
	sc := obj.Scene()
	for _, ancestor := range obj.Ancestors() {
		for _, conn := range sc.Outputs(ancestor) {
			if conn.Dest == obj || conn.Slot < 0 {
				continue
			}
			feedsAnchor := conn.Attr == slotAnchors && conn.Source == scene.PlugWorldMatrix
			feedsRef := conn.Attr == slotRefAnchors && conn.Source == scene.PlugMessage
			if !feedsAnchor && !feedsRef {
				continue
			}
			id := conn.Dest.StringAttr(AttrComponentID)
			if id == "" {
				continue
			}
			return Anchor{ComponentID: id, Index: conn.Slot}, true, nil
		}
	}
	return ParseAnchor(obj.StringAttr(AttrParentAnchor))
}
