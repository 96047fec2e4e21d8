package api

import (
	"context"

	"armature/internal/build"
	"armature/internal/guide"
	"armature/internal/logging"
	"armature/internal/rigfile"
	"armature/internal/scene"
	"armature/internal/tree"
)

// LoadRequest selects what Load does with the file it reads.
type LoadRequest struct {
	Path  string
	Guide bool
	Rig   bool
	Build build.Options
}

// LoadResult carries what Load produced. Guide and Build are nil unless
// requested.
type LoadResult struct {
	Tree  *tree.Node
	Guide *scene.Object
	Build *build.Result
}

// Save writes the component tree under src, a guide or a rig, to path. A
// nil src uses the selection.
func (s *Session) Save(path string, src *scene.Object) error {
	owner, err := s.componentRoot(src, "save")
	if err != nil {
		return err
	}
	root, err := guide.Read(guide.Top(owner), s.registry)
	if err != nil {
		return err
	}
	return s.SaveTree(path, root)
}

// SaveTree writes root's tree to path.
func (s *Session) SaveTree(path string, root *tree.Node) error {
	if err := rigfile.Save(path, root); err != nil {
		return err
	}
	s.logger.Info("rig file saved",
		logging.String(logging.FieldAssembly, root.Identity().String()),
		logging.String("path", path),
		logging.Int("components", len(root.Nodes())),
	)
	return nil
}

// Load reads a rig file and optionally guides and builds it. The guide is
// created before the rig so both end up in the session scene.
func (s *Session) Load(ctx context.Context, req LoadRequest) (*LoadResult, error) {
	root, err := rigfile.Load(req.Path, s.registry)
	if err != nil {
		return nil, err
	}
	s.logger.Info("rig file loaded",
		logging.String(logging.FieldAssembly, root.Identity().String()),
		logging.String("path", req.Path),
		logging.Int("components", len(root.Nodes())),
	)
	out := &LoadResult{Tree: root}
	if req.Guide {
		top, err := s.CreateGuide(root)
		if err != nil {
			return out, err
		}
		out.Guide = top
	}
	if req.Rig {
		res, err := s.CreateRig(ctx, root, req.Build)
		out.Build = res
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
