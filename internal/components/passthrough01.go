package components

import (
	"context"

	"armature/internal/component"
	"armature/internal/ddata"
	"armature/internal/tree"
)

// TypePassthrough01 creates only its rig root and publishes nothing, so its
// children resolve against the next component up.
const TypePassthrough01 = "passthrough01"

func passthrough01Definition() component.Definition {
	return component.Definition{
		Type:        TypePassthrough01,
		Description: "organisational node without controls or joints",
		Schema:      ddata.NewSchema(TypePassthrough01, ddata.CommonFields(TypePassthrough01, "group")...),
		New:         func(node *tree.Node) component.Component { return &Passthrough01{Base: component.NewBase(node)} },
	}
}

// Passthrough01 groups children without publishing slots.
type Passthrough01 struct {
	component.Base
}

func (p *Passthrough01) Objects(_ context.Context, bc *component.BuildContext) error {
	_, err := p.CreateRoot(bc)
	return err
}
