package ddata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"armature/internal/scene"
)

// Ref is a cross-reference to a live object, persisted by object name.
type Ref string

// Curve describes display curve geometry stored in one curve slot.
type Curve struct {
	Points    []scene.Vec3 `json:"points"`
	Degree    int          `json:"degree"`
	Periodic  bool         `json:"periodic"`
	Color     scene.Vec3   `json:"color"`
	Thickness float64      `json:"thickness"`
}

// AnimCurve describes a keyframed (usually driven-key) curve.
type AnimCurve struct {
	Times       []float64 `json:"times"`
	Values      []float64 `json:"values"`
	InTangents  []string  `json:"in_tangents,omitempty"`
	OutTangents []string  `json:"out_tangents,omitempty"`
	Weighted    bool      `json:"weighted,omitempty"`
	InWeights   []float64 `json:"in_weights,omitempty"`
	OutWeights  []float64 `json:"out_weights,omitempty"`
	InAngles    []float64 `json:"in_angles,omitempty"`
	OutAngles   []float64 `json:"out_angles,omitempty"`
	Driver      string    `json:"driver,omitempty"`
	Driven      string    `json:"driven,omitempty"`
}

// Anchor is a parent-anchor reference: slot Index of component ComponentID.
type Anchor struct {
	ComponentID string
	Index       int
}

// String encodes the anchor as "<component_id>:<index>".
func (a Anchor) String() string {
	if a.ComponentID == "" {
		return ""
	}
	return a.ComponentID + ":" + strconv.Itoa(a.Index)
}

// ParseAnchor decodes the single-string anchor form. The empty string is no
// anchor.
func ParseAnchor(value string) (Anchor, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Anchor{}, false, nil
	}
	id, idx, ok := strings.Cut(value, ":")
	if !ok || strings.TrimSpace(id) == "" {
		return Anchor{}, false, fmt.Errorf("parent anchor %q: expected <component_id>:<index>", value)
	}
	n, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil {
		return Anchor{}, false, fmt.Errorf("parent anchor %q: %w", value, err)
	}
	return Anchor{ComponentID: strings.TrimSpace(id), Index: n}, true, nil
}

// NewComponentID returns a fresh opaque component identifier.
func NewComponentID() string {
	return uuid.NewString()
}
