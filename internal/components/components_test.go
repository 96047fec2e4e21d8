package components_test

import (
	"context"
	"testing"

	"armature/internal/anchor"
	"armature/internal/build"
	"armature/internal/component"
	"armature/internal/components"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/testsupport"
	"armature/internal/tree"
)

func buildTree(t *testing.T, root *tree.Node) (*scene.Scene, *component.BuildContext) {
	t.Helper()
	reg := testsupport.Registry(t)
	sc := scene.New()
	res, err := build.New(reg).Build(context.Background(), sc, root, build.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return sc, res.Context
}

func slot(t *testing.T, root *scene.Object, name string, idx int) *scene.Object {
	t.Helper()
	objs := root.Attr(name).Objects()
	if idx < 0 || idx >= len(objs) {
		t.Fatalf("%s.%s has %d entries, want index %d", root.Name(), name, len(objs), idx)
	}
	return objs[idx]
}

func TestRegisterAddsBuiltins(t *testing.T) {
	reg := testsupport.Registry(t)
	want := []string{components.TypeAssembly, components.TypeChain01, components.TypeControl01, components.TypePassthrough01}
	got := reg.Types()
	if len(got) != len(want) {
		t.Fatalf("types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("types = %v, want %v", got, want)
		}
	}
	if err := components.Register(reg, naming.DefaultConvention()); err == nil {
		t.Fatal("expected registering the built-ins twice to fail")
	}
}

func TestArmBuildsChainAndHand(t *testing.T) {
	reg := testsupport.Registry(t)
	root := testsupport.Arm(t, reg)
	arm := root.Children()[0]
	hand := arm.Children()[0]

	_, bc := buildTree(t, root)
	armRoot := bc.Root(arm.ID())
	handRoot := bc.Root(hand.ID())
	if armRoot == nil || handRoot == nil {
		t.Fatal("missing rig roots")
	}

	if n := len(armRoot.Attr(anchor.SlotCtls).Objects()); n != 4 {
		t.Fatalf("expected 3 fk controls and a pole, got %d controls", n)
	}
	if n := len(armRoot.Attr(anchor.SlotRefAnchors).Objects()); n != 3 {
		t.Fatalf("expected 3 anchor eligible refs, got %d", n)
	}
	lastFK := slot(t, armRoot, anchor.SlotRefAnchors, 2)
	if handRoot.Parent() != lastFK {
		t.Fatalf("hand root parent = %s, want %s", handRoot.Parent().Name(), lastFK.Name())
	}

	handJnt := slot(t, handRoot, anchor.SlotJnts, 0)
	if want := slot(t, armRoot, anchor.SlotJnts, 2); handJnt.Parent() != want {
		t.Fatalf("hand joint parent = %s, want %s", handJnt.Parent().Name(), want.Name())
	}
	handCtl := slot(t, handRoot, anchor.SlotCtls, 0)
	if got := handCtl.WorldMatrix().Position(); got != (scene.Vec3{8, 10, 0}) {
		t.Fatalf("hand control at %v", got)
	}
	input, ok := handJnt.Attr(component.AttrDriver).Input()
	if !ok || input.Object != handCtl {
		t.Fatalf("hand joint should be driven by its control, got %+v", input)
	}

	fk0 := slot(t, armRoot, anchor.SlotCtls, 0)
	if v, _ := fk0.Attr(components.AttrBlend).Value().(float64); v != 1 {
		t.Fatalf("blend = %v, want 1", v)
	}
	if got := handCtl.StringAttr(components.AttrShape); got != "circle" {
		t.Fatalf("shape = %q, want circle", got)
	}
}

func TestPassthroughChildrenResolveUpward(t *testing.T) {
	reg := testsupport.Registry(t)
	root := testsupport.Assembly(t, reg, "rig")
	group := testsupport.Add(t, reg, root, components.TypePassthrough01, naming.Identity{Name: "group", Side: naming.SideCenter}, 0)
	tip := testsupport.Add(t, reg, group, components.TypeControl01, naming.Identity{Name: "tip", Side: naming.SideCenter}, 0,
		scene.Translation(scene.Vec3{0, 5, 0}))

	_, bc := buildTree(t, root)
	asmRoot := bc.Root(root.ID())
	groupRoot := bc.Root(group.ID())
	tipRoot := bc.Root(tip.ID())

	if n := len(groupRoot.Attr(anchor.SlotRefs).Objects()); n != 0 {
		t.Fatalf("passthrough should publish nothing, got %d refs", n)
	}
	rootCtl := slot(t, asmRoot, anchor.SlotRefAnchors, 0)
	if tipRoot.Parent() != rootCtl {
		t.Fatalf("tip root parent = %s, want %s", tipRoot.Parent().Name(), rootCtl.Name())
	}
	tipJnt := slot(t, tipRoot, anchor.SlotJnts, 0)
	if want := slot(t, asmRoot, anchor.SlotJnts, 0); tipJnt.Parent() != want {
		t.Fatalf("tip joint parent = %s, want skeleton root %s", tipJnt.Parent().Name(), want.Name())
	}
}
