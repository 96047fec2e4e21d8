package guide_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"armature/internal/components"
	"armature/internal/ddata"
	"armature/internal/faults"
	"armature/internal/guide"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/testsupport"
)

func positions(ms []scene.Matrix) []scene.Vec3 {
	out := make([]scene.Vec3, len(ms))
	for i, m := range ms {
		out[i] = m.Position()
	}
	return out
}

func TestBuildTreeReadsBackIdentically(t *testing.T) {
	reg := testsupport.Registry(t)
	root := testsupport.Arm(t, reg)
	sc := scene.New()
	b := guide.NewBuilder(sc, reg, nil)

	top, err := b.BuildTree(root)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if got := sc.Chunks(); len(got) != 1 || got[0] != "create guide" {
		t.Fatalf("expected one create guide chunk, got %v", got)
	}

	read, err := guide.Read(top, reg)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var want, got []string
	for _, n := range root.Nodes() {
		want = append(want, n.Identity().String()+"/"+n.ID())
	}
	for _, n := range read.Nodes() {
		got = append(got, n.Identity().String()+"/"+n.ID())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("read tree mismatch (-want +got):\n%s", diff)
	}

	arm := read.Children()[0]
	wantAnchors := []scene.Vec3{{1, 10, 0}, {4, 10, 0}, {7, 10, 0}}
	if diff := cmp.Diff(wantAnchors, positions(arm.Record().Matrices(ddata.FieldAnchors))); diff != "" {
		t.Fatalf("arm anchors mismatch (-want +got):\n%s", diff)
	}
	pole, ok := arm.Record().Get(components.FieldPoleVector).(scene.Matrix)
	if !ok || pole.Position() != (scene.Vec3{4, 10, -3}) {
		t.Fatalf("pole vector = %v (ok=%v)", pole.Position(), ok)
	}

	hand := arm.Children()[0]
	anchor, ok := hand.Record().ParentAnchor()
	if !ok || anchor.ComponentID != arm.ID() || anchor.Index != 2 {
		t.Fatalf("hand parent anchor = %+v (ok=%v), want last arm anchor", anchor, ok)
	}

	g, ok := b.Guide(arm.ID())
	if !ok {
		t.Fatal("no guide recorded for the arm")
	}
	if g.Root.Name() != "arm_L0_root_guide" {
		t.Fatalf("arm guide root named %s", g.Root.Name())
	}
	if !g.Root.Attr(ddata.FieldComponent).Locked() {
		t.Fatal("recipe lock was not applied")
	}
	if len(g.Curves) != 1 || len(g.Curves[0].Attr(guide.AttrCVs).Objects()) != 3 {
		t.Fatalf("expected one display curve through 3 anchors, got %d curves", len(g.Curves))
	}
}

func TestMovedLocatorsAreReadBack(t *testing.T) {
	reg := testsupport.Registry(t)
	root := testsupport.Arm(t, reg)
	sc := scene.New()
	b := guide.NewBuilder(sc, reg, nil)
	top, err := b.BuildTree(root)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	g, _ := b.Guide(root.Children()[0].ID())
	if err := g.Anchor(1).SetWorldMatrix(scene.Translation(scene.Vec3{4, 12, 1})); err != nil {
		t.Fatalf("move locator: %v", err)
	}
	read, err := guide.Read(top, reg)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := positions(read.Children()[0].Record().Matrices(ddata.FieldAnchors))
	if got[1] != (scene.Vec3{4, 12, 1}) {
		t.Fatalf("moved anchor read as %v", got[1])
	}
}

func TestRepeatExtendsAnchorsAndFreshGuidesUseOffsets(t *testing.T) {
	reg := testsupport.Registry(t)
	root := testsupport.Assembly(t, reg, "rig")
	long := testsupport.Add(t, reg, root, components.TypeChain01, naming.Identity{Name: "tail", Side: naming.SideCenter}, 0,
		scene.Translation(scene.Vec3{0, 1, 0}),
		scene.Translation(scene.Vec3{0, 2, 0}),
		scene.Translation(scene.Vec3{0, 3, 0}),
		scene.Translation(scene.Vec3{0, 4, 0}),
		scene.Translation(scene.Vec3{0, 5, 0}),
	)
	fresh := testsupport.Add(t, reg, root, components.TypeChain01, naming.Identity{Name: "fin", Side: naming.SideLeft}, 0)

	sc := scene.New()
	b := guide.NewBuilder(sc, reg, nil)
	if _, err := b.BuildTree(root); err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	g, _ := b.Guide(long.ID())
	if len(g.Anchors) != 5 {
		t.Fatalf("expected 5 anchors, got %d", len(g.Anchors))
	}
	if got := g.Anchors[4].Name(); got != "tail_C0_loc4_guide" {
		t.Fatalf("repeated locator named %s", got)
	}
	if g.Anchors[4].Parent() != g.Anchors[3] {
		t.Fatal("repeated locators should chain under the previous anchor")
	}

	g, _ = b.Guide(fresh.ID())
	got := make([]scene.Vec3, len(g.Anchors))
	for i, loc := range g.Anchors {
		got[i] = loc.WorldMatrix().Position()
	}
	if diff := cmp.Diff([]scene.Vec3{{0, 0, 0}, {2, 0, 0}, {4, 0, 0}}, got); diff != "" {
		t.Fatalf("fresh anchors mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectedReturnsOwningRoots(t *testing.T) {
	reg := testsupport.Registry(t)
	root := testsupport.Arm(t, reg)
	sc := scene.New()
	b := guide.NewBuilder(sc, reg, nil)
	top, err := b.BuildTree(root)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	arm, _ := b.Guide(root.Children()[0].ID())
	hand, _ := b.Guide(root.Children()[0].Children()[0].ID())

	got := guide.Selected([]*scene.Object{arm.Anchor(2), arm.Curves[0], hand.Root, arm.Root})
	if len(got) != 2 || got[0] != arm.Root || got[1] != hand.Root {
		t.Fatalf("unexpected selection %v", got)
	}
	if guide.Top(hand.Root) != top {
		t.Fatalf("Top(hand) = %s, want %s", guide.Top(hand.Root).Name(), top.Name())
	}
}

func TestReadRejectsUnknownComponent(t *testing.T) {
	reg := testsupport.Registry(t)
	sc := scene.New()
	obj, err := sc.Create("odd", scene.KindTransform, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = obj.SetStringAttr(ddata.AttrComponentID, "x")
	_ = obj.SetStringAttr(ddata.FieldComponent, "tentacle01")
	if _, err := guide.Read(obj, reg); !errors.Is(err, faults.ErrSchema) {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestParseRecipe(t *testing.T) {
	r, err := guide.ParseRecipe([]byte(`
points:
  - {description: tip, parent: 0, offset: [0, 2, 0]}
orient: {description: up, anchor: 0, field: up_vector, offset: [0, 0, 1]}
lock: [component]
`))
	if err != nil {
		t.Fatalf("ParseRecipe: %v", err)
	}
	if r.Anchors() != 2 || r.Orient == nil || r.Orient.Field != "up_vector" {
		t.Fatalf("unexpected recipe %+v", r)
	}
	if r.Points[0].Offset != (scene.Vec3{0, 2, 0}) {
		t.Fatalf("offset = %v", r.Points[0].Offset)
	}

	for name, doc := range map[string]string{
		"unknown key":   "pionts: []\n",
		"future parent": "points:\n  - {description: a, parent: 1}\n",
		"short curve":   "curves:\n  - {description: c, anchors: [0]}\n",
	} {
		if _, err := guide.ParseRecipe([]byte(doc)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}
