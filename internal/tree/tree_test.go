package tree_test

import (
	"testing"

	"armature/internal/ddata"
	"armature/internal/naming"
	"armature/internal/tree"
)

var armSchema = ddata.NewSchema("control01", ddata.CommonFields("control01", "control")...)

func record(t *testing.T, name string, side naming.Side, index int) *ddata.Record {
	t.Helper()
	rec := ddata.New(armSchema)
	if err := rec.SetIdentity(naming.Identity{Name: name, Side: side, Index: index}); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	return rec
}

func assembly() *tree.Node {
	return tree.New(ddata.New(ddata.NewSchema("assembly", ddata.AssemblyFields("rig", naming.DefaultConvention())...)))
}

func TestAddChildKeepsOrderAndBackReference(t *testing.T) {
	root := assembly()
	a := root.AddChild(record(t, "a", naming.SideCenter, 0))
	b := root.AddChild(record(t, "b", naming.SideCenter, 0))
	c := a.AddChild(record(t, "c", naming.SideLeft, 0))

	children := root.Children()
	if len(children) != 2 || children[0] != a || children[1] != b {
		t.Fatalf("unexpected children order")
	}
	if c.Parent(1) != a || c.Parent(2) != root {
		t.Fatal("unexpected ancestors")
	}
	got := root.Nodes()
	want := []*tree.Node{root, a, c, b}
	if len(got) != len(want) {
		t.Fatalf("unexpected pre-order length %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pre-order mismatch at %d", i)
		}
	}
}

func TestParentGenerations(t *testing.T) {
	root := assembly()
	a := root.AddChild(record(t, "a", naming.SideCenter, 0))
	b := a.AddChild(record(t, "b", naming.SideCenter, 0))
	c := b.AddChild(record(t, "c", naming.SideCenter, 0))

	tests := []struct {
		generations int
		want        *tree.Node
	}{
		{1, b},
		{2, a},
		{3, root},
		{10, root},
		{-1, root},
		{0, nil},
	}
	for _, tt := range tests {
		if got := c.Parent(tt.generations); got != tt.want {
			t.Fatalf("Parent(%d) returned the wrong node", tt.generations)
		}
	}
	if root.Parent(-1) != nil {
		t.Fatal("root has no ancestor")
	}
}

func TestAttachMovesNode(t *testing.T) {
	root := assembly()
	a := root.AddChild(record(t, "a", naming.SideCenter, 0))
	b := root.AddChild(record(t, "b", naming.SideCenter, 0))
	b.Attach(a)
	if len(root.Children()) != 1 || a.Parent(1) != b {
		t.Fatal("Attach should move the node")
	}
	if !root.Contains(a) || a.Contains(root) {
		t.Fatal("Contains mismatch")
	}
}

func TestSuitableIndex(t *testing.T) {
	root := assembly()
	a := root.AddChild(record(t, "arm", naming.SideLeft, 0))
	root.AddChild(record(t, "arm", naming.SideLeft, 2))
	root.AddChild(record(t, "arm", naming.SideRight, 1))

	if got := tree.SuitableIndex(root, "arm", naming.SideLeft, nil); got != 1 {
		t.Fatalf("SuitableIndex = %d, want 1", got)
	}
	if got := tree.SuitableIndex(root, "arm", naming.SideLeft, a); got != 0 {
		t.Fatalf("SuitableIndex excluding self = %d, want 0", got)
	}
	if got := tree.SuitableIndex(root, "leg", naming.SideLeft, nil); got != 0 {
		t.Fatalf("SuitableIndex for new name = %d, want 0", got)
	}
}

func TestResolveIndicesScenario(t *testing.T) {
	root := assembly()
	a := root.AddChild(record(t, "arm", naming.SideLeft, 0))
	b := root.AddChild(record(t, "arm", naming.SideLeft, 0))
	c := root.AddChild(record(t, "arm", naming.SideLeft, 1))

	moved := tree.ResolveIndices(root)
	if len(moved) != 2 {
		t.Fatalf("expected 2 reassigned nodes, got %d", len(moved))
	}
	for i, n := range []*tree.Node{a, b, c} {
		if got := n.Identity().Index; got != i {
			t.Fatalf("node %d index = %d, want %d", i, got, i)
		}
	}
	if !tree.Unique(root) {
		t.Fatal("identities should be unique")
	}
	if moved := tree.ResolveIndices(root); len(moved) != 0 {
		t.Fatal("second resolution should be a no-op")
	}
}

func TestResolveIndicesAcrossDepth(t *testing.T) {
	root := assembly()
	spine := root.AddChild(record(t, "spine", naming.SideCenter, 0))
	spine.AddChild(record(t, "arm", naming.SideLeft, 0))
	other := root.AddChild(record(t, "arm", naming.SideLeft, 0))
	tree.ResolveIndices(root)
	if other.Identity().Index != 1 {
		t.Fatalf("later duplicate should move, got %d", other.Identity().Index)
	}
}

func TestFind(t *testing.T) {
	root := assembly()
	a := root.AddChild(record(t, "arm", naming.SideLeft, 0))
	if root.FindByID(a.ID()) != a {
		t.Fatal("FindByID failed")
	}
	if root.FindByIdentity(naming.Identity{Name: "arm", Side: naming.SideLeft, Index: 0}) != a {
		t.Fatal("FindByIdentity failed")
	}
	if root.FindByID("missing") != nil {
		t.Fatal("expected nil for unknown id")
	}
}
