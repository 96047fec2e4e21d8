package testsupport

import (
	"testing"

	"armature/internal/component"
	"armature/internal/components"
	"armature/internal/ddata"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/tree"
)

// Registry returns the built-in component registry with the default naming
// convention.
func Registry(t testing.TB) *component.Registry {
	t.Helper()

	reg, err := components.NewRegistry(naming.DefaultConvention())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

// Assembly returns a tree holding only an assembly named name.
func Assembly(t testing.TB, reg *component.Registry, name string) *tree.Node {
	t.Helper()

	rec, err := reg.NewRecord(components.TypeAssembly)
	if err != nil {
		t.Fatalf("assembly record: %v", err)
	}
	if err := rec.SetIdentity(naming.Assembly(name)); err != nil {
		t.Fatalf("assembly identity: %v", err)
	}
	return tree.New(rec)
}

// Add appends a componentType child under parent, attached to slot
// anchorIndex of parent and placed at anchors.
func Add(t testing.TB, reg *component.Registry, parent *tree.Node, componentType string, id naming.Identity, anchorIndex int, anchors ...scene.Matrix) *tree.Node {
	t.Helper()

	rec, err := reg.NewRecord(componentType)
	if err != nil {
		t.Fatalf("%s record: %v", componentType, err)
	}
	if err := rec.SetIdentity(id); err != nil {
		t.Fatalf("%s identity: %v", componentType, err)
	}
	if len(anchors) > 0 {
		if err := rec.SetMatrices(ddata.FieldAnchors, anchors); err != nil {
			t.Fatalf("%s anchors: %v", componentType, err)
		}
	}
	rec.SetParentAnchor(ddata.Anchor{ComponentID: parent.ID(), Index: anchorIndex})
	return parent.AddChild(rec)
}

// Arm returns an assembly with a left arm chain and a hand control hanging
// off the last chain anchor:
//
//	rig
//	└── arm_L0 (chain01)
//	    └── hand_L0 (control01)
func Arm(t testing.TB, reg *component.Registry) *tree.Node {
	t.Helper()

	root := Assembly(t, reg, "rig")
	arm := Add(t, reg, root, components.TypeChain01, naming.Identity{Name: "arm", Side: naming.SideLeft, Index: 0}, 0,
		scene.Translation(scene.Vec3{1, 10, 0}),
		scene.Translation(scene.Vec3{4, 10, 0}),
		scene.Translation(scene.Vec3{7, 10, 0}),
	)
	Add(t, reg, arm, components.TypeControl01, naming.Identity{Name: "hand", Side: naming.SideLeft, Index: 0}, -1,
		scene.Translation(scene.Vec3{8, 10, 0}),
	)
	return root
}
