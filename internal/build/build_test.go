package build_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"armature/internal/build"
	"armature/internal/component"
	"armature/internal/customstep"
	"armature/internal/ddata"
	"armature/internal/faults"
	"armature/internal/history"
	"armature/internal/logging"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/testsupport"
	"armature/internal/tree"
)

// trace collects hook and step calls in order.
type trace struct {
	calls  []string
	fail   map[string]build.Phase
	panics map[string]build.Phase
}

type traced struct {
	component.Base
	trace *trace
}

func (p *traced) hit(phase build.Phase) error {
	id := p.Identity().String()
	p.trace.calls = append(p.trace.calls, string(phase)+":"+id)
	if p.trace.panics[id] == phase {
		panic("hook exploded")
	}
	if p.trace.fail[id] == phase {
		return fmt.Errorf("%s refused %s", id, phase)
	}
	return nil
}

func (p *traced) Objects(_ context.Context, bc *component.BuildContext) error {
	if err := p.hit(build.PhaseObjects); err != nil {
		return err
	}
	root, err := p.CreateRoot(bc)
	if err != nil {
		return err
	}
	ctl, err := p.CreateCtl(bc, root, "main", root.WorldMatrix())
	if err != nil {
		return err
	}
	return p.AddRef(ctl, true)
}

func (p *traced) Attributes(context.Context, *component.BuildContext) error {
	return p.hit(build.PhaseAttributes)
}

func (p *traced) Operators(context.Context, *component.BuildContext) error {
	return p.hit(build.PhaseOperators)
}

func (p *traced) Connections(context.Context, *component.BuildContext) error {
	return p.hit(build.PhaseConnections)
}

// fakeRunner records steps into the same trace as the hooks.
type fakeRunner struct {
	trace *trace
	errs  map[string]error
}

func (f *fakeRunner) Run(_ context.Context, step customstep.Step, data map[string]any) (map[string]any, error) {
	f.trace.calls = append(f.trace.calls, "step:"+step.Name)
	if err := f.errs[step.Name]; err != nil {
		return nil, err
	}
	prev, _ := data["ran"].([]any)
	data["ran"] = append(prev, step.Name)
	return data, nil
}

func tracedRegistry(t *testing.T, tr *trace) *component.Registry {
	t.Helper()
	reg := testsupport.Registry(t)
	err := reg.Register(component.Definition{
		Type:   "traced",
		Schema: ddata.NewSchema("traced", ddata.CommonFields("traced", "traced")...),
		New: func(n *tree.Node) component.Component {
			return &traced{Base: component.NewBase(n), trace: tr}
		},
	})
	if err != nil {
		t.Fatalf("register traced: %v", err)
	}
	return reg
}

// tracedTree is rig -> a_L0 -> b_L0, rig -> c_L0.
func tracedTree(t *testing.T, reg *component.Registry) *tree.Node {
	t.Helper()
	root := testsupport.Assembly(t, reg, "rig")
	a := testsupport.Add(t, reg, root, "traced", naming.Identity{Name: "a", Side: naming.SideLeft, Index: 0}, 0)
	testsupport.Add(t, reg, a, "traced", naming.Identity{Name: "b", Side: naming.SideLeft, Index: 0}, 0)
	testsupport.Add(t, reg, root, "traced", naming.Identity{Name: "c", Side: naming.SideLeft, Index: 0}, 0)
	return root
}

func phaseCalls(phases ...build.Phase) []string {
	var out []string
	for _, p := range phases {
		for _, id := range []string{"a_L0", "b_L0", "c_L0"} {
			out = append(out, string(p)+":"+id)
		}
	}
	return out
}

func stepFile(t *testing.T, dir, name string) string {
	t.Helper()
	return testsupport.WriteStep(t, dir, name, testsupport.AppendStep(strings.TrimSuffix(name, ".go")))
}

func TestBuildRunsPhasesInOrderOverWholeTree(t *testing.T) {
	tr := &trace{}
	reg := tracedRegistry(t, tr)
	root := tracedTree(t, reg)
	sc := scene.New()

	orch := build.New(reg, build.WithRunner(&fakeRunner{trace: tr}))
	res, err := orch.Build(context.Background(), sc, root, build.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := phaseCalls(build.PhaseObjects, build.PhaseAttributes, build.PhaseOperators, build.PhaseConnections)
	if diff := cmp.Diff(want, tr.calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(build.Phases, res.Completed); diff != "" {
		t.Fatalf("completed phases mismatch (-want +got):\n%s", diff)
	}
	if res.Status != history.StatusCompleted || res.Partial() {
		t.Fatalf("unexpected status %s", res.Status)
	}
	if orch.Target() != nil {
		t.Fatal("build target should be cleared")
	}
	if got := sc.Chunks(); len(got) != 1 || sc.InChunk() {
		t.Fatalf("expected one closed undo chunk, got %v (open=%v)", got, sc.InChunk())
	}

	set := sc.Object("rig_controls_set")
	if set == nil || set.Kind() != scene.KindSet {
		t.Fatalf("controls set missing; outliner:\n%s", strings.Join(sc.Outliner(), "\n"))
	}
	// assembly root control plus one control per traced component
	if n := len(set.Attr(build.AttrMembers).Objects()); n != 4 {
		t.Fatalf("expected 4 controls in set, got %d", n)
	}
	ctl := set.Attr(build.AttrMembers).Objects()[1]
	if pose := ctl.Attr(build.AttrBindPose); pose == nil || pose.Value() != ctl.WorldMatrix() {
		t.Fatalf("bind pose not captured on %s", ctl.Name())
	}
	if sel := sc.Selection(); len(sel) != 1 || sel[0] != res.Containers[0] {
		t.Fatalf("expected the rig container to be selected, got %v", sel)
	}
}

func TestBuildStopsAtEndPoint(t *testing.T) {
	tr := &trace{}
	reg := tracedRegistry(t, tr)
	root := tracedTree(t, reg)
	sc := scene.New()

	res, err := build.New(reg, build.WithRunner(&fakeRunner{trace: tr})).
		Build(context.Background(), sc, root, build.Options{EndPoint: "attributes"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff(phaseCalls(build.PhaseObjects, build.PhaseAttributes), tr.calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
	if !res.Partial() || res.Reached(build.PhaseOperators) || res.Reached(build.PhaseCleanup) {
		t.Fatalf("expected partial build through attributes, got %s %v", res.Status, res.Completed)
	}
	if sc.Object("rig_controls_set") != nil {
		t.Fatal("cleanup must not run before the end point")
	}
	if len(res.Containers) != 1 || res.Containers[0].Deleted() {
		t.Fatal("completed work must stay in the scene")
	}
}

func TestBuildEndPointFromAssemblyRecordWithDebugMode(t *testing.T) {
	tr := &trace{}
	reg := tracedRegistry(t, tr)
	root := tracedTree(t, reg)
	if err := root.Record().Set(ddata.FieldEndPoint, "attributes"); err != nil {
		t.Fatalf("set end point: %v", err)
	}
	sc := scene.New()

	res, err := build.New(reg, build.WithRunner(&fakeRunner{trace: tr})).
		Build(context.Background(), sc, root, build.Options{Mode: "debug"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff([]build.Phase{build.PhaseObjects, build.PhaseAttributes}, res.Completed); diff != "" {
		t.Fatalf("completed phases mismatch (-want +got):\n%s", diff)
	}
	if res.Status != history.StatusDiscarded {
		t.Fatalf("expected discarded status, got %s", res.Status)
	}
	if len(sc.Objects()) != 0 {
		t.Fatalf("debug build left objects behind: %v", sc.Outliner())
	}
	if len(sc.Selection()) != 0 {
		t.Fatal("nothing should be selected after a debug build")
	}
}

func TestBuildPubModeBlackboxesContainer(t *testing.T) {
	reg := tracedRegistry(t, &trace{})
	root := tracedTree(t, reg)
	sc := scene.New()

	res, err := build.New(reg).Build(context.Background(), sc, root, build.Options{Mode: "pub"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	container := res.Containers[0]
	if !container.Blackboxed() {
		t.Fatal("container should be blackboxed")
	}
	inner := sc.Object("rig_controls_set")
	if err := inner.SetWorldMatrix(scene.Identity()); !errors.Is(err, scene.ErrBlackboxed) {
		t.Fatalf("expected blackboxed write to fail, got %v", err)
	}
}

func TestBuildHookErrorAbortsWholeTree(t *testing.T) {
	tr := &trace{fail: map[string]build.Phase{"b_L0": build.PhaseOperators}}
	reg := tracedRegistry(t, tr)
	root := tracedTree(t, reg)
	sc := scene.New()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	orch := build.New(reg, build.WithRunner(&fakeRunner{trace: tr}), build.WithRecorder(store))
	res, err := orch.Build(context.Background(), sc, root, build.Options{Mode: "debug"})
	if !errors.Is(err, faults.ErrPhase) {
		t.Fatalf("expected phase error, got %v", err)
	}
	if !strings.Contains(err.Error(), "b_L0") {
		t.Fatalf("error should name the failing component: %v", err)
	}
	want := append(phaseCalls(build.PhaseObjects, build.PhaseAttributes), "operators:a_L0", "operators:b_L0")
	if diff := cmp.Diff(want, tr.calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
	if res == nil || res.Status != history.StatusFailed || res.Err == nil {
		t.Fatalf("expected failed result, got %+v", res)
	}
	// the finalizer still applies debug mode
	if len(sc.Objects()) != 0 {
		t.Fatalf("debug build left objects behind: %v", sc.Outliner())
	}
	if orch.Target() != nil {
		t.Fatal("build target should be cleared after failure")
	}

	rec, err := store.Get(context.Background(), res.BuildID)
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if rec.Status != history.StatusFailed || rec.ErrorMessage == "" || !strings.Contains(rec.ContextDump, "objects") {
		t.Fatalf("failure not recorded: %+v", rec)
	}
}

func TestBuildRecoversHookPanic(t *testing.T) {
	tr := &trace{panics: map[string]build.Phase{"a_L0": build.PhaseConnections}}
	reg := tracedRegistry(t, tr)
	root := tracedTree(t, reg)

	res, err := build.New(reg).Build(context.Background(), scene.New(), root, build.Options{})
	if !errors.Is(err, faults.ErrPhase) || !strings.Contains(err.Error(), "hook exploded") {
		t.Fatalf("expected recovered panic as phase error, got %v", err)
	}
	if diff := cmp.Diff([]build.Phase{build.PhaseObjects, build.PhaseAttributes, build.PhaseOperators}, res.Completed); diff != "" {
		t.Fatalf("completed phases mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRejectsUnknownTypeBeforeTouchingScene(t *testing.T) {
	reg := tracedRegistry(t, &trace{})
	root := tracedTree(t, reg)
	ghost := ddata.New(ddata.NewSchema("ghost", ddata.CommonFields("ghost", "ghost")...))
	root.AddChild(ghost)
	sc := scene.New()

	res, err := build.New(reg).Build(context.Background(), sc, root, build.Options{})
	if !errors.Is(err, faults.ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
	if res != nil || len(sc.Objects()) != 0 || len(sc.Chunks()) != 0 {
		t.Fatal("schema errors must surface before any scene mutation")
	}
}

func TestBuildRejectsDuplicateIdentities(t *testing.T) {
	reg := tracedRegistry(t, &trace{})
	root := tracedTree(t, reg)
	testsupport.Add(t, reg, root, "traced", naming.Identity{Name: "c", Side: naming.SideLeft, Index: 0}, 0)

	_, err := build.New(reg).Build(context.Background(), scene.New(), root, build.Options{})
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildRejectsBadOptions(t *testing.T) {
	reg := tracedRegistry(t, &trace{})
	root := tracedTree(t, reg)
	orch := build.New(reg)

	for _, opts := range []build.Options{{EndPoint: "rigging"}, {Mode: "fast"}} {
		if _, err := orch.Build(context.Background(), scene.New(), root, opts); !errors.Is(err, faults.ErrConfiguration) {
			t.Fatalf("options %+v: expected configuration error, got %v", opts, err)
		}
	}
}

func TestBuildRunsCustomStepsAtBoundaries(t *testing.T) {
	tr := &trace{}
	reg := tracedRegistry(t, tr)
	root := tracedTree(t, reg)
	dir := t.TempDir()
	entries := []any{
		"*stepA | " + stepFile(t, dir, "a.go"),
		"stepB | " + stepFile(t, dir, "b.go"),
		"objects",
		"stepC | " + stepFile(t, dir, "c.go"),
		"broken | " + filepath.Join(dir, "missing.go"),
		"connections",
		"stepD | " + stepFile(t, dir, "d.go"),
	}
	if err := root.Record().Set(ddata.FieldCustomSteps, entries); err != nil {
		t.Fatalf("set custom steps: %v", err)
	}
	extra := []string{"cleanup", "stepE | " + stepFile(t, dir, "e.go")}

	res, err := build.New(reg, build.WithRunner(&fakeRunner{trace: tr})).
		Build(context.Background(), scene.New(), root, build.Options{EndPoint: "operators", Steps: extra})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []string{"step:stepB"}
	want = append(want, phaseCalls(build.PhaseObjects)...)
	want = append(want, "step:stepC")
	want = append(want, phaseCalls(build.PhaseAttributes, build.PhaseOperators)...)
	if diff := cmp.Diff(want, tr.calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"stepB", "stepC"}, res.StepsRun); diff != "" {
		t.Fatalf("steps run mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"stepA", "broken", "stepD", "stepE"}, res.StepsSkipped); diff != "" {
		t.Fatalf("steps skipped mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"stepB", "stepC"}, res.Context.Values("ran")); diff != "" {
		t.Fatalf("merged step output mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildStepFailureAbortsBuild(t *testing.T) {
	tr := &trace{}
	reg := tracedRegistry(t, tr)
	root := tracedTree(t, reg)
	dir := t.TempDir()
	runner := &fakeRunner{trace: tr, errs: map[string]error{
		"nostep": customstep.ErrNoEntryPoint,
		"fail":   faults.Wrap(faults.ErrCustomStep, "fail", "run", "", errors.New("rig is not tidy")),
	}}
	steps := []string{
		"nostep | " + stepFile(t, dir, "n.go"),
		"objects",
		"fail | " + stepFile(t, dir, "f.go"),
	}

	res, err := build.New(reg, build.WithRunner(runner)).
		Build(context.Background(), scene.New(), root, build.Options{Steps: steps})
	if !errors.Is(err, faults.ErrCustomStep) {
		t.Fatalf("expected custom step error, got %v", err)
	}
	if diff := cmp.Diff([]build.Phase{build.PhaseObjects}, res.Completed); diff != "" {
		t.Fatalf("completed phases mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"nostep"}, res.StepsSkipped); diff != "" {
		t.Fatalf("steps skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildInterpretsStepScripts(t *testing.T) {
	reg := testsupport.Registry(t)
	root := testsupport.Arm(t, reg)
	dir := t.TempDir()
	steps := []string{
		"first | " + stepFile(t, dir, "first.go"),
		"cleanup",
		"last | " + stepFile(t, dir, "last.go"),
	}

	res, err := build.New(reg).Build(context.Background(), scene.New(), root, build.Options{Steps: steps})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff([]any{"first", "last"}, res.Context.Values("trace")); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"first", "last"}, res.Context.Values(component.KeySteps)); diff != "" {
		t.Fatalf("step record mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePhaseAndMode(t *testing.T) {
	if p, err := build.ParsePhase(" Operators "); err != nil || p != build.PhaseOperators {
		t.Fatalf("ParsePhase = %q, %v", p, err)
	}
	if p, _ := build.ParsePhase(""); p != build.PhaseCleanup {
		t.Fatalf("empty end point should be cleanup, got %q", p)
	}
	if !build.PhaseObjects.Before(build.PhaseCleanup) || build.PhaseCleanup.Before(build.PhaseObjects) {
		t.Fatal("phase ordering broken")
	}
	if m, err := build.ParseMode(""); err != nil || m != build.ModeNormal {
		t.Fatalf("ParseMode = %q, %v", m, err)
	}
}

// chunkRecorder notes whether the build's undo chunk is open when the
// outcome is recorded.
type chunkRecorder struct {
	sc          *scene.Scene
	openAtBegin bool
	openAtEnd   bool
	leftAtEnd   int
	status      history.Status
}

func (c *chunkRecorder) Begin(context.Context, *history.Build) error {
	c.openAtBegin = c.sc.InChunk()
	return nil
}

func (c *chunkRecorder) Finish(_ context.Context, _ string, out history.Outcome) error {
	c.openAtEnd = c.sc.InChunk()
	c.leftAtEnd = len(c.sc.Objects())
	c.status = out.Status
	return nil
}

func TestBuildFinalizerRunsInsideUndoChunk(t *testing.T) {
	tr := &trace{}
	reg := tracedRegistry(t, tr)
	root := tracedTree(t, reg)
	sc := scene.New()
	rec := &chunkRecorder{sc: sc}

	_, err := build.New(reg, build.WithRunner(&fakeRunner{trace: tr}), build.WithRecorder(rec)).
		Build(context.Background(), sc, root, build.Options{Mode: "debug"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !rec.openAtBegin || !rec.openAtEnd {
		t.Fatalf("undo chunk open at begin=%v finish=%v, want both", rec.openAtBegin, rec.openAtEnd)
	}
	if rec.leftAtEnd != 0 || rec.status != history.StatusDiscarded {
		t.Fatalf("debug delete should happen before the chunk closes: %d objects left, status %s", rec.leftAtEnd, rec.status)
	}
	if got := sc.Chunks(); len(got) != 1 || sc.InChunk() {
		t.Fatalf("expected one closed undo chunk, got %v (open=%v)", got, sc.InChunk())
	}
}

func TestBuildPartialCompletionRaisesAlert(t *testing.T) {
	tr := &trace{}
	reg := tracedRegistry(t, tr)
	root := tracedTree(t, reg)
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	_, err = build.New(reg, build.WithRunner(&fakeRunner{trace: tr}), build.WithLogger(logger)).
		Build(context.Background(), scene.New(), root, build.Options{EndPoint: "operators"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(buf.String(), "- Alert: stopped at operators") {
		t.Fatalf("expected alert on the completion line, got:\n%s", buf.String())
	}
}

func TestCleanupRegistersSpaceSwitchCallbacks(t *testing.T) {
	reg := testsupport.Registry(t)
	root := testsupport.Arm(t, reg)
	hand := root.Children()[0].Children()[0]
	if err := hand.Record().Set(ddata.FieldSpaceSwitchRefs, "arm_L0_root"); err != nil {
		t.Fatalf("set space switch refs: %v", err)
	}
	sc := scene.New()

	res, err := build.New(reg).Build(context.Background(), sc, root, build.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []any{build.EventSpaceSwitch + ":hand_L0_root"}
	if diff := cmp.Diff(want, res.Context.Values(component.KeyCallbacks)); diff != "" {
		t.Fatalf("callbacks mismatch (-want +got):\n%s", diff)
	}
	attr := res.Containers[0].Attr(build.AttrCallbacks)
	if attr == nil {
		t.Fatal("container has no callbacks attribute")
	}
	if v, ok := attr.Slot(0); !ok || v != want[0] || attr.Len() != 1 {
		t.Fatalf("container callbacks = %v (len %d)", v, attr.Len())
	}
}
