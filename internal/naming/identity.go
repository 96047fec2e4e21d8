package naming

import (
	"fmt"
	"strings"
)

// Side is the symmetric placement of a component.
type Side string

const (
	SideNone   Side = ""
	SideCenter Side = "C"
	SideLeft   Side = "L"
	SideRight  Side = "R"
)

// NoIndex marks an identity without an index (the assembly).
const NoIndex = -1

// ParseSide accepts the canonical letters and common spellings.
func ParseSide(value string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return SideNone, nil
	case "c", "center", "centre", "m", "middle":
		return SideCenter, nil
	case "l", "left":
		return SideLeft, nil
	case "r", "right":
		return SideRight, nil
	default:
		return SideNone, fmt.Errorf("unknown side %q", value)
	}
}

// Opposite swaps Left and Right; other sides are returned unchanged.
func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return s
	}
}

// Identity is the (name, side, index) triple naming a component instance.
// Two components are the same identity iff all three fields are equal.
type Identity struct {
	Name  string
	Side  Side
	Index int
}

// Assembly returns the identity of a top-level assembly named name.
func Assembly(name string) Identity {
	return Identity{Name: name, Side: SideNone, Index: NoIndex}
}

// IsAssembly reports whether the identity has neither side nor index.
func (id Identity) IsAssembly() bool {
	return id.Side == SideNone
}

// String renders the compact identity used in logs, e.g. "arm_L0".
func (id Identity) String() string {
	if id.IsAssembly() {
		return id.Name
	}
	if id.Index == NoIndex {
		return fmt.Sprintf("%s_%s", id.Name, id.Side)
	}
	return fmt.Sprintf("%s_%s%d", id.Name, id.Side, id.Index)
}
