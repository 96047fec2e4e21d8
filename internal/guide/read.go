package guide

import (
	"fmt"

	"armature/internal/ddata"
	"armature/internal/scene"
	"armature/internal/tree"
)

// IsComponentRoot reports whether obj carries a component State Record.
func IsComponentRoot(obj *scene.Object) bool {
	return obj != nil && obj.StringAttr(ddata.AttrComponentID) != "" && obj.StringAttr(ddata.FieldComponent) != ""
}

// IsGuide reports whether obj is a guide root rather than a rig root.
func IsGuide(obj *scene.Object) bool {
	if obj == nil {
		return false
	}
	attr := obj.Attr(AttrGuide)
	if attr == nil {
		return false
	}
	flag, _ := attr.Value().(bool)
	return flag
}

// Read rebuilds the component tree from the live hierarchy under top.
// Objects are visited in creation order so siblings keep the order they were
// built in.
//
// In a guide, each component root hangs under its parent's locator, so the
// nearest component root above it is its parent and the locator decides the
// parent anchor. A rig root may sit under an ancestor further up when its
// parent publishes no slots, so rigs keep the stored parent anchor and are
// parented by its component id, falling back to the hierarchy when that id
// is not in the tree.
func Read(top *scene.Object, cat Catalog) (*tree.Node, error) {
	if top == nil {
		return nil, fmt.Errorf("read guide: nil root")
	}
	rig := !IsGuide(top)
	var roots []*scene.Object
	nodes := make(map[*scene.Object]*tree.Node)
	byID := make(map[string]*tree.Node)
	for _, obj := range top.Scene().Objects() {
		if !IsComponentRoot(obj) || !within(obj, top) {
			continue
		}
		schema, err := cat.Schema(obj.StringAttr(ddata.FieldComponent))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", obj.Name(), err)
		}
		rec, err := ddata.Pull(obj, schema)
		if err != nil {
			return nil, err
		}
		if rig {
			stored, ok, err := ddata.ParseAnchor(obj.StringAttr(ddata.AttrParentAnchor))
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", obj.Name(), err)
			}
			if ok {
				rec.SetParentAnchor(stored)
			}
		}
		roots = append(roots, obj)
		nodes[obj] = tree.New(rec)
		byID[rec.ID()] = nodes[obj]
	}
	var root *tree.Node
	for _, obj := range roots {
		node := nodes[obj]
		var parent *tree.Node
		if anchor, ok := node.Record().ParentAnchor(); rig && ok && anchor.ComponentID != node.ID() {
			if n := byID[anchor.ComponentID]; n != nil && !node.Contains(n) {
				parent = n
			}
		}
		if parent == nil {
			for _, up := range obj.Ancestors() {
				if n, ok := nodes[up]; ok {
					parent = n
					break
				}
			}
		}
		switch {
		case parent != nil:
			parent.Attach(nodes[obj])
		case root == nil:
			root = nodes[obj]
		default:
			return nil, fmt.Errorf("read %s: second top-level component under %s", obj.Name(), top.Name())
		}
	}
	if root == nil {
		return nil, fmt.Errorf("read %s: no component found", top.Name())
	}
	return root, nil
}

// Selected returns the component roots owning the given objects, walking up
// from each selected object to its nearest component root.
func Selected(objs []*scene.Object) []*scene.Object {
	seen := make(map[*scene.Object]bool)
	var out []*scene.Object
	for _, obj := range objs {
		for cur := obj; cur != nil; cur = cur.Parent() {
			if IsComponentRoot(cur) {
				if !seen[cur] {
					seen[cur] = true
					out = append(out, cur)
				}
				break
			}
		}
	}
	return out
}

// Top returns the outermost component root at or above obj.
func Top(obj *scene.Object) *scene.Object {
	top := obj
	for _, up := range obj.Ancestors() {
		if IsComponentRoot(up) {
			top = up
		}
	}
	return top
}

func within(obj, top *scene.Object) bool {
	for cur := obj; cur != nil; cur = cur.Parent() {
		if cur == top {
			return true
		}
	}
	return false
}
