package api

import (
	"fmt"
	"log/slog"
	"strings"

	"armature/internal/build"
	"armature/internal/component"
	"armature/internal/components"
	"armature/internal/config"
	"armature/internal/customstep"
	"armature/internal/ddata"
	"armature/internal/faults"
	"armature/internal/history"
	"armature/internal/logging"
	"armature/internal/mirror"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/tree"
)

// Session is the working state of one authoring scene.
type Session struct {
	cfg          *config.Config
	registry     *component.Registry
	logger       *slog.Logger
	scene        *scene.Scene
	mirror       *mirror.Engine
	orchestrator *build.Orchestrator

	history     *history.Store
	ownsHistory bool
	runner      customstep.Runner
}

// Option configures a Session.
type Option func(*Session)

// WithScene works on sc instead of a fresh scene.
func WithScene(sc *scene.Scene) Option {
	return func(s *Session) { s.scene = sc }
}

// WithHistory records builds in store. The caller keeps ownership.
func WithHistory(store *history.Store) Option {
	return func(s *Session) { s.history = store }
}

// WithRunner replaces the custom step runner.
func WithRunner(r customstep.Runner) Option {
	return func(s *Session) { s.runner = r }
}

// NewSession wires a session from cfg. When history recording is enabled and
// no store was supplied, the session opens and owns one.
func NewSession(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "session", "create", "config is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	reg, err := components.NewRegistry(cfg.Convention())
	if err != nil {
		return nil, fmt.Errorf("register components: %w", err)
	}
	overridden, err := components.LoadRecipes(reg, cfg.Paths.RecipesDir)
	if err != nil {
		return nil, fmt.Errorf("load guide recipes: %w", err)
	}
	if len(overridden) > 0 {
		logger.Debug("guide recipes overridden",
			logging.String("dir", cfg.Paths.RecipesDir),
			logging.String("types", strings.Join(overridden, ", ")),
		)
	}
	s := &Session{cfg: cfg, registry: reg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if s.scene == nil {
		s.scene = scene.New()
	}
	if s.history == nil && cfg.Build.RecordHistory {
		store, err := history.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open build history: %w", err)
		}
		s.history = store
		s.ownsHistory = true
	}

	s.mirror = mirror.New(reg, logger)
	buildOpts := []build.Option{build.WithLogger(logger), build.WithStepResolver(cfg.StepPath)}
	if s.history != nil {
		buildOpts = append(buildOpts, build.WithRecorder(s.history))
	}
	if s.runner != nil {
		buildOpts = append(buildOpts, build.WithRunner(s.runner))
	}
	s.orchestrator = build.New(reg, buildOpts...)
	return s, nil
}

// Close releases the history store when the session opened it.
func (s *Session) Close() error {
	if s.history != nil && s.ownsHistory {
		s.ownsHistory = false
		return s.history.Close()
	}
	return nil
}

// Scene returns the session scene.
func (s *Session) Scene() *scene.Scene { return s.scene }

// Registry returns the component registry.
func (s *Session) Registry() *component.Registry { return s.registry }

// History returns the build history store, nil when recording is off.
func (s *Session) History() *history.Store { return s.history }

// NewAssembly returns a tree holding a fresh assembly record. A configured
// build end point is stamped onto the record.
func (s *Session) NewAssembly(name string) (*tree.Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, faults.Wrap(faults.ErrValidation, "session", "new assembly", "empty assembly name", nil)
	}
	rec, err := s.registry.NewRecord(components.TypeAssembly)
	if err != nil {
		return nil, err
	}
	if err := rec.SetIdentity(naming.Assembly(name)); err != nil {
		return nil, faults.Wrap(faults.ErrValidation, "session", "new assembly", name, err)
	}
	if ep := s.cfg.Build.EndPoint; ep != "" {
		if err := rec.Set(ddata.FieldEndPoint, ep); err != nil {
			return nil, faults.Wrap(faults.ErrConfiguration, "session", "new assembly", "end point", err)
		}
	}
	return tree.New(rec), nil
}

// AddComponent appends a componentType node under parent at anchor slot
// anchorIndex. A colliding index is replaced with the smallest free one.
func (s *Session) AddComponent(parent *tree.Node, componentType string, id naming.Identity, anchorIndex int) (*tree.Node, error) {
	if parent == nil {
		return nil, faults.Wrap(faults.ErrValidation, "session", "add component", "parent is required", nil)
	}
	if id.Side == naming.SideNone {
		return nil, faults.Wrap(faults.ErrValidation, "session", "add component", id.Name+" needs a side", nil)
	}
	rec, err := s.registry.NewRecord(componentType)
	if err != nil {
		return nil, err
	}
	if err := rec.SetIdentity(id); err != nil {
		return nil, faults.Wrap(faults.ErrValidation, "session", "add component", id.String(), err)
	}
	rec.SetParentAnchor(ddata.Anchor{ComponentID: parent.ID(), Index: anchorIndex})
	node := parent.AddChild(rec)
	if err := s.reindex(parent.Root(), node); err != nil {
		return nil, err
	}
	return node, nil
}

// reindex moves node to a free index when its identity is already taken.
func (s *Session) reindex(root, node *tree.Node) error {
	id := node.Identity()
	taken := root.Find(func(n *tree.Node) bool { return n != node && n.Identity() == id })
	if taken == nil {
		return nil
	}
	id.Index = tree.SuitableIndex(root, id.Name, id.Side, node)
	if err := node.Record().SetIdentity(id); err != nil {
		return faults.Wrap(faults.ErrValidation, "session", "reindex", id.String(), err)
	}
	s.logger.Debug("component index reassigned",
		logging.String(logging.FieldIdentity, id.String()),
		logging.String(logging.FieldComponentID, node.ID()),
	)
	return nil
}
