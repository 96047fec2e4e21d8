// Package build runs the staged rig build.
//
// Every component in the tree goes through objects, attributes, operators and
// connections in pre-order, one phase for the whole tree at a time, followed
// by the orchestrator-level cleanup phase. Custom steps run at the phase
// boundaries. The build stops after the configured end point, aborts the
// remaining phases on the first hook error and always finishes through the
// finalizer, which applies the debug/pub mode, selects the result and dumps
// the build context when something went wrong.
package build
