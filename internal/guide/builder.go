// Package guide turns State Records into placement guides in the scene and
// reads guides back into a component tree. The builder is generic: what a
// guide contains is decided by the component type's Recipe.
package guide

import (
	"fmt"
	"log/slog"
	"strconv"

	"armature/internal/ddata"
	"armature/internal/logging"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/tree"
)

// Extension suffixes guide object names.
const Extension = "guide"

// Attribute names on guide objects.
const (
	AttrShape = "shape"
	AttrCVs   = "cvs"
	AttrGuide = "guide"
	// AttrDescription keeps the description an object was named with so
	// copies can be renamed for a new identity.
	AttrDescription = "description"
)

// Catalog resolves component types to their schema and recipe.
type Catalog interface {
	Schema(componentType string) (*ddata.Schema, error)
	Recipe(componentType string) (Recipe, error)
}

// Guide is the live placement skeleton of one component.
type Guide struct {
	Root    *scene.Object
	Anchors []*scene.Object
	Helpers map[string]*scene.Object
	Curves  []*scene.Object
}

// Anchor returns anchor idx, clamping out-of-range indices to the last
// anchor.
func (g *Guide) Anchor(idx int) *scene.Object {
	if len(g.Anchors) == 0 {
		return g.Root
	}
	if idx < 0 || idx >= len(g.Anchors) {
		idx = len(g.Anchors) - 1
	}
	return g.Anchors[idx]
}

// Builder creates guides for a whole tree, parent before children.
type Builder struct {
	Scene   *scene.Scene
	Catalog Catalog
	Logger  *slog.Logger

	conv   naming.Convention
	guides map[string]*Guide
}

// NewBuilder returns a builder writing into sc.
func NewBuilder(sc *scene.Scene, cat Catalog, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Builder{Scene: sc, Catalog: cat, Logger: logger, guides: make(map[string]*Guide)}
}

// BuildTree guides every component below and including root. The returned
// object is the top guide root.
func (b *Builder) BuildTree(root *tree.Node) (*scene.Object, error) {
	done := b.Scene.BeginChunk("create guide")
	defer done()

	b.conv = ddata.Convention(root.Record())
	var top *scene.Object
	err := root.Walk(func(node *tree.Node) error {
		var parent *scene.Object
		if up := node.Parent(1); up != nil {
			pg, ok := b.guides[up.ID()]
			if !ok {
				return fmt.Errorf("guide %s: parent %s has no guide", node.Identity(), up.Identity())
			}
			idx := 0
			if anchor, ok := node.Record().ParentAnchor(); ok && anchor.ComponentID == up.ID() {
				idx = anchor.Index
			}
			parent = pg.Anchor(idx)
			node.Record().SetParentAnchor(ddata.Anchor{ComponentID: up.ID(), Index: clampIndex(idx, len(pg.Anchors))})
		}
		g, err := b.Build(node.Record(), parent)
		if err != nil {
			return err
		}
		if top == nil {
			top = g.Root
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return top, nil
}

// SetConvention sets the naming convention used by Build. BuildTree takes it
// from the tree's assembly record instead.
func (b *Builder) SetConvention(conv naming.Convention) { b.conv = conv }

// Guide returns the guide built for component id.
func (b *Builder) Guide(id string) (*Guide, bool) {
	g, ok := b.guides[id]
	return g, ok
}

// Build creates the guide of one component under parent (nil for a scene
// root) and pushes the record onto its root.
func (b *Builder) Build(rec *ddata.Record, parent *scene.Object) (*Guide, error) {
	recipe, err := b.Catalog.Recipe(rec.Type())
	if err != nil {
		return nil, err
	}
	id := rec.Identity()
	create := func(description string, kind scene.Kind, under *scene.Object) (*scene.Object, error) {
		name := b.Scene.UniqueName(naming.FormatName(id, b.conv, description, Extension, naming.RuleCtl, false))
		obj, err := b.Scene.Create(name, kind, under)
		if err != nil {
			return nil, err
		}
		return obj, obj.SetStringAttr(AttrDescription, description)
	}

	stored := rec.Matrices(ddata.FieldAnchors)
	rootMatrix := scene.Identity()
	if parent != nil {
		rootMatrix = parent.WorldMatrix()
	}
	if len(stored) > 0 {
		rootMatrix = stored[0]
	}

	root, err := create("root", scene.KindTransform, parent)
	if err != nil {
		return nil, err
	}
	if err := root.SetWorldMatrix(rootMatrix); err != nil {
		return nil, err
	}
	g := &Guide{Root: root, Anchors: []*scene.Object{root}, Helpers: make(map[string]*scene.Object)}

	count := recipe.Anchors()
	if recipe.Repeat != nil && len(stored) > count {
		count = len(stored)
	}
	for i := 1; i < count; i++ {
		point := b.point(recipe, i)
		under := g.Anchor(point.Parent)
		loc, err := create(point.Description, scene.KindTransform, under)
		if err != nil {
			return nil, err
		}
		m := under.WorldMatrix().Offset(point.Offset)
		if i < len(stored) {
			m = stored[i]
		}
		if err := loc.SetWorldMatrix(m); err != nil {
			return nil, err
		}
		if point.Shape != "" {
			if err := loc.SetStringAttr(AttrShape, point.Shape); err != nil {
				return nil, err
			}
		}
		g.Anchors = append(g.Anchors, loc)
	}

	anchors, err := root.EnsureAttr(scene.AttrSpec{Name: ddata.FieldAnchors, Type: scene.TypeMatrix, Multi: true})
	if err != nil {
		return nil, err
	}
	for i, loc := range g.Anchors {
		if err := anchors.ConnectSlot(i, loc.World()); err != nil {
			return nil, err
		}
	}

	for _, h := range []*Helper{recipe.Orient, recipe.PoleVector} {
		if h == nil {
			continue
		}
		loc, err := create(h.Description, scene.KindTransform, g.Anchor(h.Anchor))
		if err != nil {
			return nil, err
		}
		if err := b.helper(g, rec, h, loc); err != nil {
			return nil, err
		}
	}

	for _, c := range recipe.Curves {
		crv, err := create(c.Description, scene.KindCurve, root)
		if err != nil {
			return nil, err
		}
		cvs, err := crv.AddAttr(scene.AttrSpec{Name: AttrCVs, Type: scene.TypeMatrix, Multi: true})
		if err != nil {
			return nil, err
		}
		for slot, idx := range c.Anchors {
			if err := cvs.ConnectSlot(slot, g.Anchor(idx).World()); err != nil {
				return nil, err
			}
		}
		g.Curves = append(g.Curves, crv)
	}

	if err := ddata.Push(rec, root); err != nil {
		return nil, err
	}
	flag, err := root.EnsureAttr(scene.AttrSpec{Name: AttrGuide, Type: scene.TypeBool})
	if err != nil {
		return nil, err
	}
	if err := flag.Set(true); err != nil {
		return nil, err
	}
	for _, attr := range recipe.Lock {
		root.LockAttr(attr)
	}

	b.guides[rec.ID()] = g
	b.Logger.Debug("guide created",
		logging.String(logging.FieldIdentity, id.String()),
		logging.String(logging.FieldComponentID, rec.ID()),
		logging.Int("anchors", len(g.Anchors)),
	)
	return g, nil
}

func (b *Builder) point(recipe Recipe, i int) Point {
	if i-1 < len(recipe.Points) {
		return recipe.Points[i-1]
	}
	p := *recipe.Repeat
	p.Parent = i - 1
	p.Description = p.Description + strconv.Itoa(i)
	return p
}

// helper places loc, already created under its anchor, and drives the
// record's matrix field from it.
func (b *Builder) helper(g *Guide, rec *ddata.Record, h *Helper, loc *scene.Object) error {
	m := loc.Parent().WorldMatrix().Offset(h.Offset)
	if stored, ok := rec.Get(h.Field).(scene.Matrix); ok {
		m = stored
	}
	if err := loc.SetWorldMatrix(m); err != nil {
		return err
	}
	attr, err := g.Root.EnsureAttr(scene.AttrSpec{Name: h.Field, Type: scene.TypeMatrix})
	if err != nil {
		return err
	}
	if err := attr.Connect(loc.World()); err != nil {
		return err
	}
	g.Helpers[h.Description] = loc
	return nil
}

func clampIndex(idx, n int) int {
	if n == 0 {
		return 0
	}
	if idx < 0 || idx >= n {
		return n - 1
	}
	return idx
}
