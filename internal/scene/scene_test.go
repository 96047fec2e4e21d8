package scene_test

import (
	"errors"
	"testing"

	"armature/internal/scene"
)

func TestCreateRejectsDuplicateNames(t *testing.T) {
	sc := scene.New()
	if _, err := sc.Create("root", scene.KindTransform, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := sc.Create("root", scene.KindTransform, nil); !errors.Is(err, scene.ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if got := sc.UniqueName("root"); got != "root1" {
		t.Fatalf("unexpected unique name %q", got)
	}
}

func TestDeleteIsRecursiveAndInvalidatesPlugs(t *testing.T) {
	sc := scene.New()
	root, _ := sc.Create("root", scene.KindTransform, nil)
	child, _ := sc.Create("child", scene.KindJoint, root)
	other, _ := sc.Create("other", scene.KindTransform, nil)
	attr, err := other.AddAttr(scene.AttrSpec{Name: "target", Type: scene.TypeMessage})
	if err != nil {
		t.Fatalf("AddAttr: %v", err)
	}
	if err := attr.Connect(child.Message()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	sc.Delete(root)
	if sc.Object("child") != nil || !child.Deleted() {
		t.Fatal("child should be deleted with its parent")
	}
	if _, ok := attr.Input(); ok {
		t.Fatal("connection from deleted object should read as absent")
	}
}

func TestMultiSlotsAndDrivenMatrix(t *testing.T) {
	sc := scene.New()
	root, _ := sc.Create("root", scene.KindTransform, nil)
	loc, _ := sc.Create("loc", scene.KindTransform, root)
	_ = loc.SetWorldMatrix(scene.Translation(scene.Vec3{1, 2, 3}))

	attr, _ := root.AddAttr(scene.AttrSpec{Name: "anchors", Type: scene.TypeMatrix, Multi: true})
	if err := attr.ConnectSlot(1, loc.World()); err != nil {
		t.Fatalf("ConnectSlot: %v", err)
	}
	if err := attr.SetSlot(0, scene.Identity()); err != nil {
		t.Fatalf("SetSlot: %v", err)
	}
	v, ok := attr.Slot(1)
	if !ok || v.(scene.Matrix).Position() != (scene.Vec3{1, 2, 3}) {
		t.Fatalf("driven slot should evaluate the driver, got %v", v)
	}
	_ = loc.SetWorldMatrix(scene.Translation(scene.Vec3{4, 5, 6}))
	v, _ = attr.Slot(1)
	if v.(scene.Matrix).Position() != (scene.Vec3{4, 5, 6}) {
		t.Fatalf("driven slot should follow the driver, got %v", v)
	}
	if idx, err := attr.Append(root.World()); err != nil || idx != 2 {
		t.Fatalf("Append = %d, %v", idx, err)
	}
}

func TestLockedAndBlackboxedWrites(t *testing.T) {
	sc := scene.New()
	box, _ := sc.Create("box", scene.KindContainer, nil)
	inner, _ := sc.Create("inner", scene.KindTransform, box)
	attr, _ := inner.AddAttr(scene.AttrSpec{Name: "size", Type: scene.TypeFloat, Default: 1.0})
	inner.LockAttr("size")
	if err := attr.Set(2.0); !errors.Is(err, scene.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	sc.Blackbox(box)
	if _, err := sc.Create("late", scene.KindTransform, inner); !errors.Is(err, scene.ErrBlackboxed) {
		t.Fatalf("expected ErrBlackboxed, got %v", err)
	}
}

func TestAttrClampsToBounds(t *testing.T) {
	sc := scene.New()
	obj, _ := sc.Create("obj", scene.KindTransform, nil)
	lo := 0.5
	attr, _ := obj.AddAttr(scene.AttrSpec{Name: "size", Type: scene.TypeFloat, Min: &lo})
	_ = attr.Set(0.1)
	if got := attr.Value(); got != 0.5 {
		t.Fatalf("expected clamp to 0.5, got %v", got)
	}
}

func TestDuplicateRemapsInternalConnections(t *testing.T) {
	sc := scene.New()
	outside, _ := sc.Create("outside", scene.KindTransform, nil)
	root, _ := sc.Create("root", scene.KindTransform, nil)
	child, _ := sc.Create("child", scene.KindTransform, root)
	refs, _ := root.AddAttr(scene.AttrSpec{Name: "refs", Type: scene.TypeMessage, Multi: true})
	_ = refs.ConnectSlot(0, child.Message())
	_ = refs.ConnectSlot(1, outside.Message())

	dup, mapping, err := sc.Duplicate(root)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if dup.Name() != "root_dup" {
		t.Fatalf("unexpected duplicate name %q", dup.Name())
	}
	objs := dup.Attr("refs").Objects()
	if len(objs) != 2 || objs[0] != mapping[child] || objs[1] != outside {
		t.Fatalf("unexpected remapped refs: %v", objs)
	}
	if len(sc.Outputs(child)) != 1 {
		t.Fatalf("original connections should be untouched")
	}
}

func TestChunksFoldNested(t *testing.T) {
	sc := scene.New()
	end := sc.BeginChunk("build")
	inner := sc.BeginChunk("guide")
	if !sc.InChunk() {
		t.Fatal("expected open chunk")
	}
	inner()
	end()
	end()
	if sc.InChunk() {
		t.Fatal("chunk should be closed")
	}
	if got := sc.Chunks(); len(got) != 1 || got[0] != "build" {
		t.Fatalf("unexpected chunks %v", got)
	}
}

func TestMirrorYZ(t *testing.T) {
	m := scene.Translation(scene.Vec3{2, 3, 4})
	got := m.MirrorYZ()
	if got.Position() != (scene.Vec3{-2, 3, 4}) {
		t.Fatalf("unexpected mirrored position %v", got.Position())
	}
	if !got.MirrorYZ().ApproxEqual(m, 1e-9) {
		t.Fatal("mirroring twice should restore the matrix")
	}
}

func TestOutliner(t *testing.T) {
	sc := scene.New()
	root, _ := sc.Create("rig", scene.KindContainer, nil)
	_, _ = sc.Create("root_ctl", scene.KindTransform, root)
	lines := sc.Outliner()
	if len(lines) != 2 || lines[1] != "  root_ctl (transform)" {
		t.Fatalf("unexpected outliner %q", lines)
	}
}
