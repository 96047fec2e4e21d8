// Package anchor resolves where a component attaches in the live rig: which
// published slot of which ancestor component its root (or first joint) hangs
// under.
//
// Out-of-range indices clamp to the last slot, and components whose parent
// has published nothing yet are resolved against the next ancestor up.
// Resolution never fails; when the whole tree is exhausted it yields the
// fallback object for the purpose (the rig root control or the skeleton
// root).
package anchor

import (
	"armature/internal/scene"
	"armature/internal/tree"
)

// Slot attribute names published on every rig root.
const (
	SlotCtls       = "ctls"
	SlotJnts       = "jnts"
	SlotRefs       = "refs"
	SlotRefAnchors = "ref_anchors"
)

// Last selects the last available slot.
const Last = -1

// Purpose selects the slot universe searched.
type Purpose int

const (
	// Ctl places controls: custom indices select refs, anchor indices select
	// ref_anchors.
	Ctl Purpose = iota
	// Jnt places joints: both index kinds select jnts.
	Jnt
)

func (p Purpose) String() string {
	if p == Jnt {
		return "jnt"
	}
	return "ctl"
}

// slots returns the attribute consulted for a custom index and for an anchor
// index.
func (p Purpose) slots() (custom, anchor string) {
	if p == Jnt {
		return SlotJnts, SlotJnts
	}
	return SlotRefs, SlotRefAnchors
}

// Roots maps component ids to their live rig roots and supplies the objects
// used when resolution runs off the top of the tree.
type Roots interface {
	Root(componentID string) *scene.Object
	Fallback(p Purpose) *scene.Object
}

// Result describes a resolution. Owner is nil and Slot empty when the
// fallback was used.
type Result struct {
	Object *scene.Object
	Owner  *tree.Node
	Slot   string
	Index  int
}

// Fallback reports whether no published slot was found.
func (r Result) Fallback() bool { return r.Owner == nil }

// Resolve finds the object node attaches under for purpose p.
func Resolve(node *tree.Node, roots Roots, p Purpose) Result {
	fallback := Result{Object: roots.Fallback(p), Index: Last}
	rec := node.Record()
	parentAnchor, ok := rec.ParentAnchor()
	if !ok {
		return fallback
	}
	owner := node.Parent(1)
	if owner == nil {
		return fallback
	}
	if owner.ID() != parentAnchor.ComponentID {
		if found := node.Root().FindByID(parentAnchor.ComponentID); found != nil {
			owner = found
		}
	}

	customIdx, useCustom := rec.CustomRefIndex()
	idx := parentAnchor.Index
	customSlot, anchorSlot := p.slots()
	for cur := owner; cur != nil; cur = cur.Parent(1) {
		root := roots.Root(cur.ID())
		if root != nil {
			if useCustom {
				if objs := published(root, customSlot); len(objs) > 0 {
					i := Clamp(customIdx, len(objs))
					return Result{Object: objs[i], Owner: cur, Slot: customSlot, Index: i}
				}
			}
			if objs := published(root, anchorSlot); len(objs) > 0 {
				i := Clamp(idx, len(objs))
				return Result{Object: objs[i], Owner: cur, Slot: anchorSlot, Index: i}
			}
		}
		// Past the direct parent only "last anchor" is meaningful.
		useCustom = false
		idx = Last
	}
	return fallback
}

// Clamp maps idx into [0, n). Negative and out-of-range indices select the
// last slot. n must be positive.
func Clamp(idx, n int) int {
	if idx < 0 || idx >= n {
		return n - 1
	}
	return idx
}

func published(root *scene.Object, slot string) []*scene.Object {
	attr := root.Attr(slot)
	if attr == nil {
		return nil
	}
	return attr.Objects()
}
