package components

import (
	"context"

	"armature/internal/anchor"
	"armature/internal/component"
	"armature/internal/ddata"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/tree"
)

// TypeAssembly is the top-level component of every rig.
const TypeAssembly = "assembly"

// Extensions used by assembly objects.
const (
	ExtRig  = "rig"
	ExtSkel = "skel"
)

func assemblyDefinition(conv naming.Convention) component.Definition {
	return component.Definition{
		Type:        TypeAssembly,
		Description: "rig container, root control and skeleton root",
		Schema:      ddata.NewSchema(TypeAssembly, ddata.AssemblyFields("rig", conv)...),
		New:         func(node *tree.Node) component.Component { return &Assembly{Base: component.NewBase(node)} },
	}
}

// Assembly creates the rig container, its root control and the skeleton
// root. The root control is anchor 0.
type Assembly struct {
	component.Base

	Container *scene.Object
	RootCtl   *scene.Object
	Skeleton  *scene.Object
}

func (a *Assembly) Objects(_ context.Context, bc *component.BuildContext) error {
	container, err := bc.Scene.Create(a.Name(bc, "", ExtRig, naming.RuleCtl), scene.KindContainer, nil)
	if err != nil {
		return err
	}
	a.Container = container
	bc.SetFallback(anchor.Ctl, container)

	root, err := a.CreateRoot(bc)
	if err != nil {
		return err
	}
	m := scene.Identity()
	if placed, ok := a.Anchor(0); ok {
		m = placed
	}
	ctl, err := a.CreateCtl(bc, root, "root", m)
	if err != nil {
		return err
	}
	if err := a.AddRef(ctl, true); err != nil {
		return err
	}
	skel, err := bc.Scene.Create(a.Name(bc, "", ExtSkel, naming.RuleJnt), scene.KindJoint, container)
	if err != nil {
		return err
	}
	a.RootCtl, a.Skeleton = ctl, skel

	if attr := root.Attr(anchor.SlotJnts); attr != nil {
		if _, err := attr.Append(skel.Message()); err != nil {
			return err
		}
	}
	bc.SetFallback(anchor.Ctl, ctl)
	bc.SetFallback(anchor.Jnt, skel)
	bc.Append(component.KeyRigRoot, container)
	bc.Append(component.KeyAssembly, a.Identity().Name)
	return nil
}
