package tree

import (
	"armature/internal/ddata"
	"armature/internal/naming"
)

// SuitableIndex returns the smallest non-negative index not used by any
// component named name on side within root's tree. exclude (usually the
// component being placed) is left out of the scan.
func SuitableIndex(root *Node, name string, side naming.Side, exclude *Node) int {
	used := make(map[int]struct{})
	_ = root.Walk(func(cur *Node) error {
		if cur == exclude {
			return nil
		}
		id := cur.Identity()
		if id.IsAssembly() || id.Name != name || id.Side != side {
			return nil
		}
		used[id.Index] = struct{}{}
		return nil
	})
	return smallestFree(used)
}

// ResolveIndices walks root in pre-order and gives every component whose
// (name, side, index) repeats one already visited the smallest free index.
// Earlier nodes keep their index, so insertion order decides who moves. The
// reassigned nodes are returned.
func ResolveIndices(root *Node) []*Node {
	type key struct {
		name string
		side naming.Side
	}
	seen := make(map[key]map[int]struct{})
	var moved []*Node
	_ = root.Walk(func(cur *Node) error {
		id := cur.Identity()
		if id.IsAssembly() {
			return nil
		}
		k := key{id.Name, id.Side}
		used := seen[k]
		if used == nil {
			used = make(map[int]struct{})
			seen[k] = used
		}
		if _, taken := used[id.Index]; taken || id.Index < 0 {
			id.Index = smallestFree(used)
			if err := cur.record.Set(ddata.FieldIndex, id.Index); err == nil {
				moved = append(moved, cur)
			}
		}
		used[id.Index] = struct{}{}
		return nil
	})
	return moved
}

// Unique reports whether no two components in root's tree share an
// identity.
func Unique(root *Node) bool {
	seen := make(map[naming.Identity]struct{})
	unique := true
	_ = root.Walk(func(cur *Node) error {
		id := cur.Identity()
		if _, dup := seen[id]; dup {
			unique = false
			return ErrStop
		}
		seen[id] = struct{}{}
		return nil
	})
	return unique
}

func smallestFree(used map[int]struct{}) int {
	for i := 0; ; i++ {
		if _, ok := used[i]; !ok {
			return i
		}
	}
}
