// Package components holds the built-in component types. They build
// host-neutral stand-ins (transforms, joints, sets) so the engine can be
// exercised end to end without a DCC host.
package components

import (
	"armature/internal/component"
	"armature/internal/naming"
)

// Register adds every built-in type to reg. conv seeds the naming fields of
// new assemblies.
func Register(reg *component.Registry, conv naming.Convention) error {
	for _, def := range []component.Definition{
		assemblyDefinition(conv),
		control01Definition(),
		chain01Definition(),
		passthrough01Definition(),
	} {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in types.
func NewRegistry(conv naming.Convention) (*component.Registry, error) {
	reg := component.NewRegistry()
	if err := Register(reg, conv); err != nil {
		return nil, err
	}
	return reg, nil
}
