package components

import (
	"context"

	"armature/internal/component"
	"armature/internal/ddata"
	"armature/internal/scene"
	"armature/internal/tree"
)

// TypeControl01 is a single control with an optional joint.
const TypeControl01 = "control01"

// control01 fields.
const (
	FieldJoint = "joint"
	FieldShape = "shape"
	FieldColor = "color"
)

// Attributes written on controls.
const (
	AttrShape = "shape"
	AttrColor = "color"
)

var shapes = []string{"circle", "square", "sphere", "cube", "arrow"}

func control01Definition() component.Definition {
	fields := append(ddata.CommonFields(TypeControl01, "control"),
		ddata.Field{Name: FieldJoint, Kind: ddata.KindBool, Default: true},
		ddata.Field{Name: FieldShape, Kind: ddata.KindEnum, Enum: shapes, Default: "circle"},
		ddata.Field{Name: FieldColor, Kind: ddata.KindFloat3, Default: scene.Vec3{1, 1, 0}},
	)
	return component.Definition{
		Type:        TypeControl01,
		Description: "one control, optional joint",
		Schema:      ddata.NewSchema(TypeControl01, fields...),
		New:         func(node *tree.Node) component.Component { return &Control01{Base: component.NewBase(node)} },
	}
}

// Control01 builds one control (anchor 0) and, when enabled, a joint driven
// by it.
type Control01 struct {
	component.Base

	Ctl *scene.Object
	Jnt *scene.Object
}

func (c *Control01) Objects(_ context.Context, bc *component.BuildContext) error {
	root, err := c.CreateRoot(bc)
	if err != nil {
		return err
	}
	m := root.WorldMatrix()
	if placed, ok := c.Anchor(0); ok {
		m = placed
	}
	ctl, err := c.CreateCtl(bc, root, "", m)
	if err != nil {
		return err
	}
	if err := c.AddRef(ctl, true); err != nil {
		return err
	}
	c.Ctl = ctl
	if !c.Record().Bool(FieldJoint) {
		return nil
	}
	jnt, err := c.CreateJnt(bc, nil, "", m)
	if err != nil {
		return err
	}
	c.Jnt = jnt
	return nil
}

func (c *Control01) Attributes(_ context.Context, _ *component.BuildContext) error {
	return decorate(c.Ctl, c.Record())
}

func (c *Control01) Operators(_ context.Context, _ *component.BuildContext) error {
	if c.Jnt == nil {
		return nil
	}
	return c.Drive(c.Jnt, c.Ctl)
}

func (c *Control01) Connections(_ context.Context, bc *component.BuildContext) error {
	return c.ConnectSpaces(bc)
}

// decorate writes the display shape and colour onto ctl.
func decorate(ctl *scene.Object, rec *ddata.Record) error {
	if ctl == nil {
		return nil
	}
	shape := rec.String(FieldShape)
	if shape == "" {
		shape = shapes[0]
	}
	if err := ctl.SetStringAttr(AttrShape, shape); err != nil {
		return err
	}
	color, err := ctl.EnsureAttr(scene.AttrSpec{Name: AttrColor, Type: scene.TypeFloat3})
	if err != nil {
		return err
	}
	if v, ok := rec.Get(FieldColor).(scene.Vec3); ok {
		return color.Set(v)
	}
	return nil
}
