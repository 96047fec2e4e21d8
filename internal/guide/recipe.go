package guide

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"armature/internal/scene"
)

// Point is an extra placement locator. Parent is the anchor index it hangs
// under; Offset positions a fresh locator relative to that anchor.
type Point struct {
	Description string     `yaml:"description"`
	Parent      int        `yaml:"parent"`
	Shape       string     `yaml:"shape,omitempty"`
	Offset      scene.Vec3 `yaml:"offset,flow"`
}

// Helper is an orientation or pole-vector locator whose world matrix feeds
// the matrix field Field of the component record.
type Helper struct {
	Description string     `yaml:"description"`
	Anchor      int        `yaml:"anchor"`
	Field       string     `yaml:"field"`
	Offset      scene.Vec3 `yaml:"offset,flow"`
}

// DisplayCurve connects the listed anchors with a display curve.
type DisplayCurve struct {
	Description string `yaml:"description"`
	Anchors     []int  `yaml:"anchors,flow"`
	Degree      int    `yaml:"degree,omitempty"`
}

// Recipe is the declarative guide description of one component type.
type Recipe struct {
	Points []Point `yaml:"points,omitempty"`
	// Repeat, when set, places anchors beyond Points as a chain: each one
	// hangs under the previous anchor at Repeat.Offset.
	Repeat     *Point         `yaml:"repeat,omitempty"`
	Orient     *Helper        `yaml:"orient,omitempty"`
	PoleVector *Helper        `yaml:"pole_vector,omitempty"`
	Curves     []DisplayCurve `yaml:"curves,omitempty"`
	Lock       []string       `yaml:"lock,omitempty"`
}

// Anchors returns how many anchors a fresh guide gets.
func (r Recipe) Anchors() int { return 1 + len(r.Points) }

// Validate checks that every anchor reference points at an earlier anchor.
func (r Recipe) Validate() error {
	for i, p := range r.Points {
		if p.Parent < 0 || p.Parent > i {
			return fmt.Errorf("point %d (%s): parent anchor %d is not placed yet", i+1, p.Description, p.Parent)
		}
	}
	for _, h := range []*Helper{r.Orient, r.PoleVector} {
		if h == nil {
			continue
		}
		if h.Field == "" {
			return fmt.Errorf("helper %s: missing field", h.Description)
		}
		if h.Anchor < 0 {
			return fmt.Errorf("helper %s: negative anchor", h.Description)
		}
	}
	for _, c := range r.Curves {
		if len(c.Anchors) < 2 {
			return fmt.Errorf("curve %s: needs at least two anchors", c.Description)
		}
	}
	return nil
}

// ParseRecipe decodes a YAML recipe, rejecting unknown keys.
func ParseRecipe(data []byte) (Recipe, error) {
	var r Recipe
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return Recipe{}, fmt.Errorf("parse recipe: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Recipe{}, fmt.Errorf("parse recipe: %w", err)
	}
	return r, nil
}
