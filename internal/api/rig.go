package api

import (
	"context"

	"armature/internal/build"
	"armature/internal/guide"
	"armature/internal/logging"
	"armature/internal/scene"
	"armature/internal/tree"
)

// CreateRig builds root into the session scene. Empty options fall back to
// the configured mode; configured steps run after the assembly's own.
func (s *Session) CreateRig(ctx context.Context, root *tree.Node, opts build.Options) (*build.Result, error) {
	return s.orchestrator.Build(ctx, s.scene, root, s.buildOptions(opts))
}

// CreateRigFrom reads the component tree under src, a guide or a rig, and
// builds it. A nil src uses the selection. Rebuilding from a rig deletes the
// old rig first so the new one gets its names.
func (s *Session) CreateRigFrom(ctx context.Context, src *scene.Object, opts build.Options) (*build.Result, error) {
	owner, err := s.componentRoot(src, "create rig")
	if err != nil {
		return nil, err
	}
	top := guide.Top(owner)
	root, err := guide.Read(top, s.registry)
	if err != nil {
		return nil, err
	}
	if !guide.IsGuide(top) {
		old := outermost(top)
		s.logger.Info("replacing rig",
			logging.String(logging.FieldAssembly, root.Identity().String()),
			logging.String("container", old.Name()),
		)
		s.scene.Delete(old)
	}
	return s.CreateRig(ctx, root, opts)
}

func (s *Session) buildOptions(opts build.Options) build.Options {
	if opts.Mode == "" {
		opts.Mode = s.cfg.Build.Mode
	}
	if len(s.cfg.Build.Steps) > 0 {
		opts.Steps = append(append([]string(nil), s.cfg.Build.Steps...), opts.Steps...)
	}
	return opts
}

func outermost(obj *scene.Object) *scene.Object {
	top := obj
	for _, up := range obj.Ancestors() {
		top = up
	}
	return top
}
