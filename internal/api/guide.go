package api

import (
	"armature/internal/ddata"
	"armature/internal/faults"
	"armature/internal/guide"
	"armature/internal/logging"
	"armature/internal/mirror"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/tree"
)

// CreateGuide resolves duplicate identities in root's tree and builds its
// placement guides. The top guide root is returned and selected.
func (s *Session) CreateGuide(root *tree.Node) (*scene.Object, error) {
	if root == nil {
		return nil, faults.Wrap(faults.ErrValidation, "session", "create guide", "nothing to guide", nil)
	}
	if err := s.registry.Validate(root); err != nil {
		return nil, err
	}
	for _, moved := range tree.ResolveIndices(root) {
		s.logger.Info("component index reassigned",
			logging.String(logging.FieldIdentity, moved.Identity().String()),
			logging.String(logging.FieldComponentID, moved.ID()),
		)
	}
	b := guide.NewBuilder(s.scene, s.registry, s.logger)
	top, err := b.BuildTree(root)
	if err != nil {
		return nil, err
	}
	s.scene.Select(top)
	s.logger.Info("guide created",
		logging.String(logging.FieldEventType, "guide_created"),
		logging.String(logging.FieldAssembly, root.Identity().String()),
		logging.Int("components", len(root.Nodes())),
	)
	return top, nil
}

// InsertGuide adds a componentType guide under the guide locator at, or the
// selection when at is nil. The locator decides the parent component and
// its anchor slot. The new node is returned with a collision-free index.
func (s *Session) InsertGuide(at *scene.Object, componentType string, id naming.Identity) (*tree.Node, error) {
	if at == nil {
		if sel := s.scene.Selection(); len(sel) > 0 {
			at = sel[0]
		}
	}
	owner, err := s.componentRoot(at, "insert guide")
	if err != nil {
		return nil, err
	}
	top := guide.Top(owner)
	if !guide.IsGuide(top) {
		return nil, faults.Wrap(faults.ErrValidation, "session", "insert guide", top.Name()+" is not a guide", nil)
	}
	current, err := guide.Read(top, s.registry)
	if err != nil {
		return nil, err
	}
	parent := current.FindByID(owner.StringAttr(ddata.AttrComponentID))
	if parent == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "session", "insert guide", owner.Name(), nil)
	}
	node, err := s.AddComponent(parent, componentType, id, anchorSlot(at, owner))
	if err != nil {
		return nil, err
	}

	done := s.scene.BeginChunk("insert guide")
	defer done()
	b := guide.NewBuilder(s.scene, s.registry, s.logger)
	b.SetConvention(ddata.Convention(current.Record()))
	g, err := b.Build(node.Record(), at)
	if err != nil {
		return nil, err
	}
	s.scene.Select(g.Root)
	s.logger.Info("guide inserted",
		logging.String(logging.FieldEventType, "guide_inserted"),
		logging.String(logging.FieldIdentity, node.Identity().String()),
		logging.String("parent", parent.Identity().String()),
	)
	return node, nil
}

// CopyGuide duplicates the component owning target, or the selection when
// target is nil, with its children.
func (s *Session) CopyGuide(target *scene.Object) (*mirror.Result, error) {
	root, err := s.componentRoot(target, "copy guide")
	if err != nil {
		return nil, err
	}
	res, err := s.mirror.Duplicate(root)
	if err != nil {
		return nil, err
	}
	s.scene.Select(res.Root)
	return res, nil
}

// MirrorGuide mirrors the component owning target, or the selection when
// target is nil, to the opposite side.
func (s *Session) MirrorGuide(target *scene.Object) (*mirror.Result, error) {
	root, err := s.componentRoot(target, "mirror guide")
	if err != nil {
		return nil, err
	}
	res, err := s.mirror.Mirror(root)
	if err != nil {
		return nil, err
	}
	s.scene.Select(res.Root)
	return res, nil
}

// FindComponent returns the live component root whose identity prints as
// name ("arm_L0", or the assembly name).
func (s *Session) FindComponent(name string) (*scene.Object, error) {
	for _, obj := range s.scene.Objects() {
		if !guide.IsComponentRoot(obj) {
			continue
		}
		schema, err := s.registry.Schema(obj.StringAttr(ddata.FieldComponent))
		if err != nil {
			return nil, err
		}
		rec, err := ddata.Pull(obj, schema)
		if err != nil {
			return nil, err
		}
		if rec.Identity().String() == name {
			return obj, nil
		}
	}
	return nil, faults.Wrap(faults.ErrNotFound, "session", "find component", name, nil)
}

// componentRoot returns the component root owning obj, or owning the first
// selected object when obj is nil.
func (s *Session) componentRoot(obj *scene.Object, operation string) (*scene.Object, error) {
	objs := []*scene.Object{obj}
	if obj == nil {
		objs = s.scene.Selection()
	}
	roots := guide.Selected(objs)
	if len(roots) == 0 {
		return nil, faults.Wrap(faults.ErrValidation, "session", operation, "no component selected", nil)
	}
	return roots[0], nil
}

// anchorSlot returns the slot of owner's anchor list that obj drives, 0 when
// obj is not an anchor locator.
func anchorSlot(obj, owner *scene.Object) int {
	for _, conn := range obj.Scene().Outputs(obj) {
		if conn.Dest == owner && conn.Attr == ddata.FieldAnchors && conn.Slot >= 0 {
			return conn.Slot
		}
	}
	return 0
}
