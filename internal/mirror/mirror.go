// Package mirror duplicates and mirrors guide subtrees in the scene. Copies
// get fresh component ids, an index that does not collide with the existing
// tree and object names rebuilt from their new identity.
package mirror

import (
	"log/slog"

	"armature/internal/ddata"
	"armature/internal/faults"
	"armature/internal/guide"
	"armature/internal/logging"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/tree"
)

// Engine copies guides of components resolved through its catalog.
type Engine struct {
	catalog guide.Catalog
	logger  *slog.Logger
}

// New returns an engine.
func New(cat guide.Catalog, logger *slog.Logger) *Engine {
	return &Engine{catalog: cat, logger: logging.NewComponentLogger(logger, "mirror")}
}

// Result describes a copied subtree.
type Result struct {
	// Root is the copy of the requested component root.
	Root *scene.Object
	// Tree is the copied subtree read back from the scene.
	Tree *tree.Node
	// Renamed maps every original object name to its copy's name.
	Renamed map[string]string
}

// Duplicate copies the component rooted at target, with its children, next
// to the original.
func (e *Engine) Duplicate(target *scene.Object) (*Result, error) {
	return e.copy(target, false)
}

// Mirror copies target's subtree to the opposite side. Subtrees containing a
// center component are refused before anything is copied.
func (e *Engine) Mirror(target *scene.Object) (*Result, error) {
	return e.copy(target, true)
}

func (e *Engine) copy(target *scene.Object, mirrored bool) (*Result, error) {
	operation, message := "duplicate", "guide duplicated"
	if mirrored {
		operation, message = "mirror", "guide mirrored"
	}
	if !guide.IsComponentRoot(target) {
		return nil, faults.Wrap(faults.ErrValidation, "mirror", operation, "target is not a component root", nil)
	}
	top := guide.Top(target)
	if top == target {
		return nil, faults.Wrap(faults.ErrValidation, "mirror", operation, "the assembly cannot be copied", nil)
	}
	original, err := guide.Read(top, e.catalog)
	if err != nil {
		return nil, err
	}
	sub := original.FindByID(target.StringAttr(ddata.AttrComponentID))
	if sub == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "mirror", operation, target.Name()+" is not part of "+top.Name(), nil)
	}
	if mirrored {
		if err := checkSides(sub); err != nil {
			return nil, err
		}
	}

	sc := target.Scene()
	done := sc.BeginChunk(operation + " guide")
	defer done()

	conv := ddata.Convention(original.Record())
	root, mapping, err := sc.Duplicate(target)
	if err != nil {
		return nil, err
	}
	pairs := componentPairs(sc, mapping)
	for _, p := range pairs {
		if err := p.copy.SetStringAttr(ddata.AttrComponentID, ddata.NewComponentID()); err != nil {
			return nil, err
		}
	}
	if mirrored {
		for _, dup := range mapping {
			if err := dup.SetWorldMatrix(dup.WorldMatrix().MirrorYZ()); err != nil {
				return nil, err
			}
		}
	}

	owners := make(map[*scene.Object]naming.Identity, len(pairs))
	for _, p := range pairs {
		id, err := e.reidentify(original, p.copy, conv, mirrored)
		if err != nil {
			return nil, err
		}
		owners[p.copy] = id
	}

	renamed := make(map[string]string, len(mapping))
	for _, orig := range sc.Objects() {
		dup, ok := mapping[orig]
		if !ok {
			continue
		}
		if err := rename(sc, dup, owners, conv); err != nil {
			return nil, err
		}
		renamed[orig.Name()] = dup.Name()
	}

	copied, err := guide.Read(root, e.catalog)
	if err != nil {
		return nil, err
	}
	e.logger.Info(message,
		logging.String(logging.FieldEventType, "guide_"+operation),
		logging.String(logging.FieldIdentity, copied.Identity().String()),
		logging.String("source", sub.Identity().String()),
		logging.Int("components", len(pairs)),
	)
	return &Result{Root: root, Tree: copied, Renamed: renamed}, nil
}

// reidentify pulls the copy's record, flips it when mirrored, gives it a free
// index in tree and pushes it back. The new node is attached to tree so the
// next copy sees its index.
func (e *Engine) reidentify(original *tree.Node, dup *scene.Object, conv naming.Convention, mirrored bool) (naming.Identity, error) {
	schema, err := e.catalog.Schema(dup.StringAttr(ddata.FieldComponent))
	if err != nil {
		return naming.Identity{}, err
	}
	rec, err := ddata.Pull(dup, schema)
	if err != nil {
		return naming.Identity{}, err
	}
	id := rec.Identity()
	if mirrored {
		id.Side = id.Side.Opposite()
		if err := swapTokens(rec, conv); err != nil {
			return naming.Identity{}, err
		}
		if err := mirrorMatrices(rec, dup); err != nil {
			return naming.Identity{}, err
		}
	}
	id.Index = tree.SuitableIndex(original, id.Name, id.Side, nil)
	if err := rec.SetIdentity(id); err != nil {
		return naming.Identity{}, err
	}
	if err := ddata.Push(rec, dup); err != nil {
		return naming.Identity{}, err
	}

	parent := original
	if anchor, ok := rec.ParentAnchor(); ok {
		if n := original.FindByID(anchor.ComponentID); n != nil {
			parent = n
		}
	}
	parent.Attach(tree.New(rec))
	return id, nil
}

func checkSides(sub *tree.Node) error {
	var center *tree.Node
	_ = sub.Walk(func(n *tree.Node) error {
		if n.Identity().Side == naming.SideCenter {
			center = n
			return tree.ErrStop
		}
		return nil
	})
	if center != nil {
		return faults.Wrap(faults.ErrMirror, sub.Identity().String(), "mirror", center.Identity().String()+" is a center component", nil)
	}
	return nil
}

type pair struct {
	orig, copy *scene.Object
}

// componentPairs lists the copied component roots, parents first.
func componentPairs(sc *scene.Scene, mapping map[*scene.Object]*scene.Object) []pair {
	var out []pair
	for _, obj := range sc.Objects() {
		dup, ok := mapping[obj]
		if ok && guide.IsComponentRoot(obj) {
			out = append(out, pair{orig: obj, copy: dup})
		}
	}
	return out
}

func owner(obj *scene.Object, owners map[*scene.Object]naming.Identity) (naming.Identity, bool) {
	for cur := obj; cur != nil; cur = cur.Parent() {
		if id, ok := owners[cur]; ok {
			return id, true
		}
	}
	return naming.Identity{}, false
}

// rename names dup after its owning component's new identity and the
// description it was created with. Objects without a description keep
// their temporary name.
func rename(sc *scene.Scene, dup *scene.Object, owners map[*scene.Object]naming.Identity, conv naming.Convention) error {
	description := dup.StringAttr(guide.AttrDescription)
	id, ok := owner(dup, owners)
	if !ok || description == "" {
		return nil
	}
	name := naming.FormatName(id, conv, description, guide.Extension, naming.RuleCtl, false)
	if name == dup.Name() {
		return nil
	}
	return sc.Rename(dup, sc.UniqueName(name))
}
