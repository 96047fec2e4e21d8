package api_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"armature/internal/api"
	"armature/internal/build"
	"armature/internal/components"
	"armature/internal/config"
	"armature/internal/ddata"
	"armature/internal/faults"
	"armature/internal/guide"
	"armature/internal/history"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/testsupport"
	"armature/internal/tree"
)

func newSession(t *testing.T, cfg *config.Config) *api.Session {
	t.Helper()
	s, err := api.NewSession(cfg, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func identities(root *tree.Node) []string {
	var out []string
	for _, n := range root.Nodes() {
		out = append(out, n.Identity().String())
	}
	return out
}

func TestNewAssemblySeedsConfiguredEndPoint(t *testing.T) {
	s := newSession(t, testsupport.NewConfig(t, testsupport.WithEndPoint("attributes"), testsupport.WithoutHistory()))

	root, err := s.NewAssembly("rig")
	if err != nil {
		t.Fatalf("NewAssembly: %v", err)
	}
	if got := root.Record().String(ddata.FieldEndPoint); got != "attributes" {
		t.Fatalf("end point = %q, want attributes", got)
	}
	if !root.Identity().IsAssembly() {
		t.Fatalf("expected assembly identity, got %s", root.Identity())
	}
	if _, err := s.NewAssembly("  "); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
}

func TestAddComponentMovesCollidingIndex(t *testing.T) {
	s := newSession(t, testsupport.NewConfig(t, testsupport.WithoutHistory()))
	root, err := s.NewAssembly("rig")
	if err != nil {
		t.Fatalf("NewAssembly: %v", err)
	}
	arm := naming.Identity{Name: "arm", Side: naming.SideLeft, Index: 0}
	for range 3 {
		if _, err := s.AddComponent(root, components.TypeChain01, arm, 0); err != nil {
			t.Fatalf("AddComponent: %v", err)
		}
	}
	want := []string{"rig", "arm_L0", "arm_L1", "arm_L2"}
	if diff := cmp.Diff(want, identities(root)); diff != "" {
		t.Fatalf("identities mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.AddComponent(root, "tentacle01", arm, 0); !errors.Is(err, faults.ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
	if _, err := s.AddComponent(root, components.TypeChain01, naming.Assembly("arm"), 0); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error for a sideless component, got %v", err)
	}
}

func TestGuideInsertAndMirror(t *testing.T) {
	s := newSession(t, testsupport.NewConfig(t, testsupport.WithoutHistory()))
	root := testsupport.Arm(t, s.Registry())

	top, err := s.CreateGuide(root)
	if err != nil {
		t.Fatalf("CreateGuide: %v", err)
	}
	if sel := s.Scene().Selection(); len(sel) != 1 || sel[0] != top {
		t.Fatalf("expected the guide top selected, got %v", sel)
	}

	armRoot, err := s.FindComponent("arm_L0")
	if err != nil {
		t.Fatalf("FindComponent: %v", err)
	}
	loc, ok := armRoot.Attr(ddata.FieldAnchors).SlotInput(2)
	if !ok {
		t.Fatal("arm anchor 2 is not driven by a locator")
	}
	s.Scene().Select(loc.Object)
	hand, err := s.InsertGuide(nil, components.TypeControl01, naming.Identity{Name: "hand", Side: naming.SideLeft, Index: 0})
	if err != nil {
		t.Fatalf("InsertGuide: %v", err)
	}
	if got := hand.Identity().String(); got != "hand_L1" {
		t.Fatalf("inserted identity = %s, want hand_L1", got)
	}

	current, err := guide.Read(top, s.Registry())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff([]string{"rig", "arm_L0", "hand_L0", "hand_L1"}, identities(current)); diff != "" {
		t.Fatalf("guide tree mismatch (-want +got):\n%s", diff)
	}
	inserted := current.FindByIdentity(hand.Identity())
	anchor, ok := inserted.Record().ParentAnchor()
	if !ok || anchor.ComponentID != armRoot.StringAttr(ddata.AttrComponentID) || anchor.Index != 2 {
		t.Fatalf("unexpected parent anchor %+v (ok=%v)", anchor, ok)
	}

	res, err := s.MirrorGuide(armRoot)
	if err != nil {
		t.Fatalf("MirrorGuide: %v", err)
	}
	if diff := cmp.Diff([]string{"arm_R0", "hand_R0", "hand_R1"}, identities(res.Tree)); diff != "" {
		t.Fatalf("mirrored tree mismatch (-want +got):\n%s", diff)
	}

	copied, err := s.CopyGuide(nil)
	if err != nil {
		t.Fatalf("CopyGuide: %v", err)
	}
	if got := copied.Tree.Identity().String(); got != "arm_R1" {
		t.Fatalf("copied identity = %s, want arm_R1", got)
	}
}

func TestInsertGuideNeedsAGuide(t *testing.T) {
	s := newSession(t, testsupport.NewConfig(t, testsupport.WithoutHistory()))
	_, err := s.InsertGuide(nil, components.TypeControl01, naming.Identity{Name: "hand", Side: naming.SideLeft})
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error with an empty selection, got %v", err)
	}
}

func TestSaveLoadAndBuild(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := newSession(t, cfg)
	if _, err := s.CreateGuide(testsupport.Arm(t, s.Registry())); err != nil {
		t.Fatalf("CreateGuide: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "arm.yaml")
	if err := s.Save(path, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh := newSession(t, cfg)
	out, err := fresh.Load(context.Background(), api.LoadRequest{Path: path, Rig: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]string{"rig", "arm_L0", "hand_L0"}, identities(out.Tree)); diff != "" {
		t.Fatalf("loaded tree mismatch (-want +got):\n%s", diff)
	}
	if out.Guide != nil {
		t.Fatal("guide was not requested")
	}
	if out.Build == nil || out.Build.Status != history.StatusCompleted {
		t.Fatalf("unexpected build result %+v", out.Build)
	}

	recorded, err := fresh.History().Get(context.Background(), out.Build.BuildID)
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if recorded.Status != history.StatusCompleted || recorded.Assembly != "rig" {
		t.Fatalf("unexpected history row %+v", recorded)
	}
}

func TestCreateRigUsesConfiguredMode(t *testing.T) {
	s := newSession(t, testsupport.NewConfig(t, testsupport.WithMode("debug"), testsupport.WithoutHistory()))
	res, err := s.CreateRig(context.Background(), testsupport.Arm(t, s.Registry()), build.Options{})
	if err != nil {
		t.Fatalf("CreateRig: %v", err)
	}
	if res.Mode != build.ModeDebug || res.Status != history.StatusDiscarded {
		t.Fatalf("unexpected result mode=%s status=%s", res.Mode, res.Status)
	}
	if roots := s.Scene().Roots(); len(roots) != 0 {
		t.Fatalf("debug build left %d roots", len(roots))
	}
}

func TestCreateRigFromRigReplacesIt(t *testing.T) {
	s := newSession(t, testsupport.NewConfig(t, testsupport.WithoutHistory()))
	first, err := s.CreateRig(context.Background(), testsupport.Arm(t, s.Registry()), build.Options{})
	if err != nil {
		t.Fatalf("CreateRig: %v", err)
	}
	old := first.Containers[0]

	assembly, err := s.FindComponent("rig")
	if err != nil {
		t.Fatalf("FindComponent: %v", err)
	}
	second, err := s.CreateRigFrom(context.Background(), assembly, build.Options{})
	if err != nil {
		t.Fatalf("CreateRigFrom: %v", err)
	}
	if !old.Deleted() {
		t.Fatal("old rig container should be deleted")
	}
	if second.Status != history.StatusCompleted || len(second.Containers) != 1 {
		t.Fatalf("unexpected rebuild status=%s containers=%d", second.Status, len(second.Containers))
	}
	if roots := s.Scene().Roots(); len(roots) != 1 || roots[0] != second.Containers[0] {
		t.Fatalf("expected only the new container at the top, got %v", roots)
	}
}

func TestRigReadBackKeepsChildrenOfPassthroughs(t *testing.T) {
	s := newSession(t, testsupport.NewConfig(t, testsupport.WithoutHistory()))
	reg := s.Registry()
	root := testsupport.Assembly(t, reg, "rig")
	group := testsupport.Add(t, reg, root, components.TypePassthrough01, naming.Identity{Name: "group", Side: naming.SideCenter}, 0)
	testsupport.Add(t, reg, group, components.TypeControl01, naming.Identity{Name: "tip", Side: naming.SideCenter}, 0,
		scene.Translation(scene.Vec3{0, 2, 0}),
	)

	if _, err := s.CreateRig(context.Background(), root, build.Options{}); err != nil {
		t.Fatalf("CreateRig: %v", err)
	}
	check := func(stage string) {
		t.Helper()
		top, err := s.FindComponent("rig")
		if err != nil {
			t.Fatalf("%s: FindComponent: %v", stage, err)
		}
		read, err := guide.Read(top, reg)
		if err != nil {
			t.Fatalf("%s: Read: %v", stage, err)
		}
		if diff := cmp.Diff([]string{"rig", "group_C0", "tip_C0"}, identities(read)); diff != "" {
			t.Fatalf("%s: identities mismatch (-want +got):\n%s", stage, diff)
		}
		readGroup := read.Children()[0]
		if len(readGroup.Children()) != 1 {
			t.Fatalf("%s: tip read back under %s, want group_C0", stage, read.Nodes()[2].Parent(1).Identity())
		}
		anchor, ok := readGroup.Children()[0].Record().ParentAnchor()
		if !ok || anchor.ComponentID != group.ID() || anchor.Index != 0 {
			t.Fatalf("%s: tip parent anchor = %+v (ok=%v), want %s:0", stage, anchor, ok, group.ID())
		}
	}
	check("first build")

	assembly, err := s.FindComponent("rig")
	if err != nil {
		t.Fatalf("FindComponent: %v", err)
	}
	if _, err := s.CreateRigFrom(context.Background(), assembly, build.Options{}); err != nil {
		t.Fatalf("CreateRigFrom: %v", err)
	}
	check("rebuild")
}

func TestNewSessionAppliesRecipeOverrides(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	cfg.Paths.RecipesDir = filepath.Join(testsupport.BaseDir(cfg), "recipes")
	if err := os.MkdirAll(cfg.Paths.RecipesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := []byte("points:\n  - description: tip\n    parent: 0\n    offset: [0, 4, 0]\n")
	if err := os.WriteFile(filepath.Join(cfg.Paths.RecipesDir, components.TypeControl01+".yaml"), body, 0o644); err != nil {
		t.Fatalf("write recipe: %v", err)
	}
	s := newSession(t, cfg)

	recipe, err := s.Registry().Recipe(components.TypeControl01)
	if err != nil {
		t.Fatalf("Recipe: %v", err)
	}
	if recipe.Anchors() != 2 {
		t.Fatalf("expected the override to add an anchor, got %d", recipe.Anchors())
	}

	cfg.Paths.RecipesDir = filepath.Join(testsupport.BaseDir(cfg), "broken")
	if err := os.MkdirAll(cfg.Paths.RecipesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Paths.RecipesDir, components.TypeControl01+".yaml"), []byte("bogus: 1\n"), 0o644); err != nil {
		t.Fatalf("write recipe: %v", err)
	}
	if _, err := api.NewSession(cfg, nil); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown recipe key, got %v", err)
	}
}
