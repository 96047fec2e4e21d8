// Package component defines the contract every rig component type
// implements, the Base helpers the built-in types share, the per-build
// BuildContext, and the explicit Registry mapping type names to
// definitions.
package component

import (
	"context"
	"log/slog"

	"armature/internal/tree"
)

// Component is one buildable rig component bound to its tree node. The
// orchestrator calls each hook once per build, phase by phase, parent before
// children.
type Component interface {
	Node() *tree.Node
	Objects(ctx context.Context, bc *BuildContext) error
	Attributes(ctx context.Context, bc *BuildContext) error
	Operators(ctx context.Context, bc *BuildContext) error
	Connections(ctx context.Context, bc *BuildContext) error
}

// LoggerAware components receive a logger scoped to their identity before
// the first hook runs.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}

// Factory builds the component for one tree node.
type Factory func(node *tree.Node) Component
