package component

import (
	"context"
	"fmt"
	"log/slog"

	"armature/internal/anchor"
	"armature/internal/ddata"
	"armature/internal/logging"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/tree"
)

// Attribute names written by Base on controls and joints.
const (
	AttrCtlSize = "ctl_size"
	AttrDriver  = "driver"
)

// RootExtension suffixes rig root names.
const RootExtension = "root"

// Base implements the hooks as no-ops and carries the helpers components use
// to create and publish their objects. Embed it and override what the type
// needs.
type Base struct {
	node   *tree.Node
	logger *slog.Logger
	root   *scene.Object
}

// NewBase binds a Base to node.
func NewBase(node *tree.Node) Base {
	return Base{node: node, logger: logging.NewNop()}
}

func (b *Base) Node() *tree.Node { return b.node }

// Record returns the component's State Record.
func (b *Base) Record() *ddata.Record { return b.node.Record() }

// Identity returns the component identity.
func (b *Base) Identity() naming.Identity { return b.node.Identity() }

// SetLogger implements LoggerAware.
func (b *Base) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	b.logger = logger
}

// Logger returns the component logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Root returns the rig root created by CreateRoot.
func (b *Base) Root() *scene.Object { return b.root }

func (b *Base) Objects(context.Context, *BuildContext) error     { return nil }
func (b *Base) Attributes(context.Context, *BuildContext) error  { return nil }
func (b *Base) Operators(context.Context, *BuildContext) error   { return nil }
func (b *Base) Connections(context.Context, *BuildContext) error { return nil }

// Name formats the name of an object owned by this component.
func (b *Base) Name(bc *BuildContext, description, extension string, kind naming.RuleKind) string {
	return naming.FormatName(b.Identity(), bc.Convention, description, extension, kind, false)
}

// Anchor returns placement i from the record's anchors, or ok=false.
func (b *Base) Anchor(i int) (scene.Matrix, bool) {
	anchors := b.Record().Matrices(ddata.FieldAnchors)
	if i < 0 || i >= len(anchors) {
		return scene.Matrix{}, false
	}
	return anchors[i], true
}

// CreateRoot creates the rig root under the resolved parent object, pushes
// the record onto it, declares the published slot lists and registers it in
// bc.
func (b *Base) CreateRoot(bc *BuildContext) (*scene.Object, error) {
	if b.root != nil {
		return nil, fmt.Errorf("%s: rig root already created", b.Identity())
	}
	res := bc.Resolve(b.node, anchor.Ctl)
	root, err := bc.Scene.Create(b.Name(bc, "", RootExtension, naming.RuleCtl), scene.KindTransform, res.Object)
	if err != nil {
		return nil, err
	}
	if m, ok := b.Anchor(0); ok {
		if err := root.SetWorldMatrix(m); err != nil {
			return nil, err
		}
	}
	if err := ddata.Push(b.Record(), root); err != nil {
		return nil, err
	}
	for _, slot := range []string{anchor.SlotCtls, anchor.SlotJnts, anchor.SlotRefs, anchor.SlotRefAnchors} {
		if _, err := root.EnsureAttr(scene.AttrSpec{Name: slot, Type: scene.TypeMessage, Multi: true}); err != nil {
			return nil, err
		}
	}
	if err := bc.SetRoot(b.node.ID(), root); err != nil {
		return nil, err
	}
	b.root = root

	parentName := ""
	if res.Object != nil {
		parentName = res.Object.Name()
	}
	b.logger.Debug("rig root created",
		logging.String("root", root.Name()),
		logging.String("parent", parentName),
		logging.String("slot", res.Slot),
		logging.Int("slot_index", res.Index),
		logging.Bool("fallback", res.Fallback()),
	)
	return root, nil
}

// CreateCtl creates a control under parent (the rig root when nil) at m and
// publishes it in ctls.
func (b *Base) CreateCtl(bc *BuildContext, parent *scene.Object, description string, m scene.Matrix) (*scene.Object, error) {
	if parent == nil {
		parent = b.root
	}
	ctl, err := bc.Scene.Create(b.Name(bc, description, "", naming.RuleCtl), scene.KindTransform, parent)
	if err != nil {
		return nil, err
	}
	if err := ctl.SetWorldMatrix(m); err != nil {
		return nil, err
	}
	size, err := ctl.AddAttr(scene.AttrSpec{Name: AttrCtlSize, Type: scene.TypeFloat, Min: ddata.Bound(0.01), Default: 1.0})
	if err != nil {
		return nil, err
	}
	if err := size.Set(b.Record().Float(ddata.FieldCtlSize)); err != nil {
		return nil, err
	}
	return ctl, b.publish(anchor.SlotCtls, ctl)
}

// CreateJnt creates a joint at m and publishes it in jnts. A nil parent
// resolves the joint parent through the component's parent anchor.
func (b *Base) CreateJnt(bc *BuildContext, parent *scene.Object, description string, m scene.Matrix) (*scene.Object, error) {
	if parent == nil {
		parent = bc.Resolve(b.node, anchor.Jnt).Object
	}
	jnt, err := bc.Scene.Create(b.Name(bc, description, "", naming.RuleJnt), scene.KindJoint, parent)
	if err != nil {
		return nil, err
	}
	if err := jnt.SetWorldMatrix(m); err != nil {
		return nil, err
	}
	return jnt, b.publish(anchor.SlotJnts, jnt)
}

// AddRef publishes obj in refs and, when anchorEligible, in ref_anchors.
func (b *Base) AddRef(obj *scene.Object, anchorEligible bool) error {
	if err := b.publish(anchor.SlotRefs, obj); err != nil {
		return err
	}
	if anchorEligible {
		return b.publish(anchor.SlotRefAnchors, obj)
	}
	return nil
}

// Drive connects target's driver attribute to the world matrix of src.
func (b *Base) Drive(target, src *scene.Object) error {
	attr, err := target.EnsureAttr(scene.AttrSpec{Name: AttrDriver, Type: scene.TypeMatrix})
	if err != nil {
		return err
	}
	return attr.Connect(src.World())
}

func (b *Base) publish(slot string, obj *scene.Object) error {
	if b.root == nil {
		return fmt.Errorf("%s: publish %s before the rig root exists", b.Identity(), slot)
	}
	attr := b.root.Attr(slot)
	if attr == nil {
		return fmt.Errorf("%s: rig root has no %s slot list", b.Identity(), slot)
	}
	_, err := attr.Append(obj.Message())
	return err
}

// AttrSpaces lists the space switch targets connected on the rig root.
const AttrSpaces = "spaces"

// ConnectSpaces connects the objects named in the record's space switch
// references (comma separated) into the rig root's spaces list. Names that
// do not exist in the scene are logged and skipped.
func (b *Base) ConnectSpaces(bc *BuildContext) error {
	names := SplitList(b.Record().String(ddata.FieldSpaceSwitchRefs))
	if len(names) == 0 {
		return nil
	}
	attr, err := b.root.EnsureAttr(scene.AttrSpec{Name: AttrSpaces, Type: scene.TypeMessage, Multi: true})
	if err != nil {
		return err
	}
	for _, name := range names {
		target := bc.Scene.Object(name)
		if target == nil {
			b.logger.Debug("space switch target missing", logging.String("target", name))
			continue
		}
		if _, err := attr.Append(target.Message()); err != nil {
			return err
		}
	}
	return nil
}
