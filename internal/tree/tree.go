// Package tree is the ordered Component Tree: each node owns a State Record
// and its children, and keeps a non-owning link to its parent.
package tree

import (
	"errors"

	"armature/internal/ddata"
	"armature/internal/naming"
)

// ErrStop ends a Walk early without reporting an error.
var ErrStop = errors.New("tree: stop walk")

// Node is one component instance in the tree.
type Node struct {
	record   *ddata.Record
	parent   *Node
	children []*Node
}

// New returns a detached node owning rec.
func New(rec *ddata.Record) *Node {
	return &Node{record: rec}
}

// Record returns the node's State Record.
func (n *Node) Record() *ddata.Record { return n.record }

// SetRecord replaces the node's State Record.
func (n *Node) SetRecord(rec *ddata.Record) { n.record = rec }

// ID is shorthand for the record's component id.
func (n *Node) ID() string { return n.record.ID() }

// Identity is shorthand for the record's identity triple.
func (n *Node) Identity() naming.Identity { return n.record.Identity() }

// Children returns a copy of the ordered child list.
func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }

// AddChild wraps rec in a new node appended to n's children.
func (n *Node) AddChild(rec *ddata.Record) *Node {
	child := New(rec)
	n.Attach(child)
	return child
}

// Attach appends an existing node, detaching it from its previous parent.
func (n *Node) Attach(child *Node) {
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child; it reports whether child was found.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Parent walks generations ancestors up. -1 walks to the root; asking for
// more generations than exist also yields the root. 0 asks for the node as
// its own ancestor and yields nil, as does any walk from a root.
func (n *Node) Parent(generations int) *Node {
	if generations == 0 || n.parent == nil {
		return nil
	}
	cur := n
	for cur.parent != nil && generations != 0 {
		cur = cur.parent
		if generations > 0 {
			generations--
		}
	}
	return cur
}

// Root returns the topmost ancestor, or n itself.
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Depth returns the number of ancestors.
func (n *Node) Depth() int {
	d := 0
	for cur := n.parent; cur != nil; cur = cur.parent {
		d++
	}
	return d
}

// Walk visits n and its descendants in pre-order. Returning ErrStop ends the
// walk cleanly; any other error is returned.
func (n *Node) Walk(fn func(*Node) error) error {
	err := n.walk(fn)
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func (n *Node) walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, child := range n.children {
		if err := child.walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Nodes flattens the subtree in pre-order.
func (n *Node) Nodes() []*Node {
	var out []*Node
	_ = n.Walk(func(cur *Node) error {
		out = append(out, cur)
		return nil
	})
	return out
}

// Find returns the first node in pre-order satisfying match.
func (n *Node) Find(match func(*Node) bool) *Node {
	var found *Node
	_ = n.Walk(func(cur *Node) error {
		if match(cur) {
			found = cur
			return ErrStop
		}
		return nil
	})
	return found
}

// FindByID looks a component up by its component id.
func (n *Node) FindByID(id string) *Node {
	if id == "" {
		return nil
	}
	return n.Find(func(cur *Node) bool { return cur.ID() == id })
}

// FindByIdentity looks a component up by its (name, side, index) triple.
func (n *Node) FindByIdentity(id naming.Identity) *Node {
	return n.Find(func(cur *Node) bool { return cur.Identity() == id })
}

// Contains reports whether other lies in n's subtree.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}
