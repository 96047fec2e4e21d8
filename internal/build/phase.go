package build

import (
	"context"
	"fmt"
	"strings"

	"armature/internal/component"
	"armature/internal/ddata"
	"armature/internal/faults"
)

// Phase is one build stage.
type Phase string

const (
	PhaseObjects     Phase = "objects"
	PhaseAttributes  Phase = "attributes"
	PhaseOperators   Phase = "operators"
	PhaseConnections Phase = "connections"
	PhaseCleanup     Phase = "cleanup"
)

// Phases lists the phases in build order.
var Phases = []Phase{PhaseObjects, PhaseAttributes, PhaseOperators, PhaseConnections, PhaseCleanup}

// ParsePhase validates an end point name. The empty string is cleanup.
func ParsePhase(value string) (Phase, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return PhaseCleanup, nil
	}
	for _, p := range Phases {
		if string(p) == value {
			return p, nil
		}
	}
	return "", faults.Wrap(faults.ErrConfiguration, "build", "end point", fmt.Sprintf("unknown phase %q (expected one of %s)", value, strings.Join(ddata.Phases, ", ")), nil)
}

// Before reports whether p runs strictly before other.
func (p Phase) Before(other Phase) bool {
	return p.order() < other.order()
}

func (p Phase) order() int {
	for i, candidate := range Phases {
		if candidate == p {
			return i
		}
	}
	return len(Phases)
}

type hookFunc func(context.Context, *component.BuildContext) error

// hook returns the per-component hook of p, nil for cleanup.
func (p Phase) hook(c component.Component) hookFunc {
	switch p {
	case PhaseObjects:
		return c.Objects
	case PhaseAttributes:
		return c.Attributes
	case PhaseOperators:
		return c.Operators
	case PhaseConnections:
		return c.Connections
	}
	return nil
}
