// Package api provides the automation entry points shared by the CLI and
// scripted callers. A Session owns one scene together with the registry,
// guide builder, mirror engine and build orchestrator that work on it.
//
// # Entry Points
//
// CreateGuide: component tree -> placement guides in the scene.
//
// InsertGuide: adds a new component guide under a selected guide locator.
//
// CreateRig / CreateRigFrom: builds a rig from a tree, or from a guide or an
// existing rig read back from the scene.
//
// CopyGuide / MirrorGuide: duplicate or mirror a guide subtree.
//
// Save / Load: persisted rig files, optionally guided and built on load.
//
// # Design Notes
//
// Entry points that take a scene object fall back to the current selection
// when it is nil. Configuration only seeds new assemblies (naming
// convention, end point) and supplies build defaults (mode, extra custom
// steps); values stored on an assembly record always win over the config.
package api
