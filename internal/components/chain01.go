package components

import (
	"context"
	"fmt"
	"strconv"

	"armature/internal/component"
	"armature/internal/ddata"
	"armature/internal/guide"
	"armature/internal/scene"
	"armature/internal/tree"
)

// TypeChain01 is an FK chain: one control and one joint per anchor.
const TypeChain01 = "chain01"

// chain01 fields.
const (
	FieldPoleVector   = "pole_vector"
	FieldBlend        = "blend"
	FieldDisplayCurve = "display_curve"
	FieldBlendCurve   = "blend_curve"
)

// AttrBlend is the blend attribute on the first chain control.
const AttrBlend = "blend"

func chain01Definition() component.Definition {
	fields := append(ddata.CommonFields(TypeChain01, "chain"),
		ddata.Field{Name: FieldPoleVector, Kind: ddata.KindMatrix},
		ddata.Field{Name: FieldBlend, Kind: ddata.KindFloat, Default: 1.0, Min: ddata.Bound(0), Max: ddata.Bound(1)},
		ddata.Field{Name: FieldDisplayCurve, Kind: ddata.KindCurve},
		ddata.Field{Name: FieldBlendCurve, Kind: ddata.KindAnimCurve},
	)
	return component.Definition{
		Type:        TypeChain01,
		Description: "FK chain, one control and joint per anchor",
		Schema:      ddata.NewSchema(TypeChain01, fields...),
		Recipe: guide.Recipe{
			Points: []guide.Point{
				{Description: "loc1", Parent: 0, Shape: "sphere", Offset: scene.Vec3{2, 0, 0}},
				{Description: "loc2", Parent: 1, Shape: "sphere", Offset: scene.Vec3{2, 0, 0}},
			},
			Repeat:     &guide.Point{Description: "loc", Shape: "sphere", Offset: scene.Vec3{2, 0, 0}},
			PoleVector: &guide.Helper{Description: "pole", Anchor: 1, Field: FieldPoleVector, Offset: scene.Vec3{0, 0, -3}},
			Curves:     []guide.DisplayCurve{{Description: "display", Anchors: []int{0, 1, 2}, Degree: 1}},
			Lock:       []string{ddata.FieldComponent},
		},
		New: func(node *tree.Node) component.Component { return &Chain01{Base: component.NewBase(node)} },
	}
}

// Chain01 builds a control hierarchy along its anchors with a joint under
// each, plus a pole vector reference when the chain has three or more
// anchors. Every chain control is anchor eligible; the pole control is a
// plain reference.
type Chain01 struct {
	component.Base

	Ctls []*scene.Object
	Jnts []*scene.Object
	Pole *scene.Object
}

func (c *Chain01) Objects(_ context.Context, bc *component.BuildContext) error {
	root, err := c.CreateRoot(bc)
	if err != nil {
		return err
	}
	placements := c.Record().Matrices(ddata.FieldAnchors)
	if len(placements) == 0 {
		placements = []scene.Matrix{root.WorldMatrix()}
	}
	var parentCtl, parentJnt *scene.Object
	for i, m := range placements {
		ctl, err := c.CreateCtl(bc, parentCtl, fmt.Sprintf("fk%d", i), m)
		if err != nil {
			return err
		}
		if err := c.AddRef(ctl, true); err != nil {
			return err
		}
		jnt, err := c.CreateJnt(bc, parentJnt, strconv.Itoa(i), m)
		if err != nil {
			return err
		}
		c.Ctls = append(c.Ctls, ctl)
		c.Jnts = append(c.Jnts, jnt)
		parentCtl, parentJnt = ctl, jnt
	}
	if len(placements) < 3 {
		return nil
	}
	pv, ok := c.Record().Get(FieldPoleVector).(scene.Matrix)
	if !ok {
		pv = placements[1].Offset(scene.Vec3{0, 0, -3})
	}
	pole, err := c.CreateCtl(bc, nil, "pole", pv)
	if err != nil {
		return err
	}
	c.Pole = pole
	return c.AddRef(pole, false)
}

func (c *Chain01) Attributes(_ context.Context, _ *component.BuildContext) error {
	if len(c.Ctls) == 0 {
		return nil
	}
	blend, err := c.Ctls[0].EnsureAttr(scene.AttrSpec{Name: AttrBlend, Type: scene.TypeFloat, Min: ddata.Bound(0), Max: ddata.Bound(1)})
	if err != nil {
		return err
	}
	return blend.Set(c.Record().Float(FieldBlend))
}

func (c *Chain01) Operators(_ context.Context, _ *component.BuildContext) error {
	for i, jnt := range c.Jnts {
		if err := c.Drive(jnt, c.Ctls[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain01) Connections(_ context.Context, bc *component.BuildContext) error {
	return c.ConnectSpaces(bc)
}
