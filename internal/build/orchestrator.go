package build

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"armature/internal/component"
	"armature/internal/customstep"
	"armature/internal/ddata"
	"armature/internal/faults"
	"armature/internal/history"
	"armature/internal/logging"
	"armature/internal/scene"
	"armature/internal/tree"
)

// Recorder persists build outcomes. *history.Store implements it.
type Recorder interface {
	Begin(ctx context.Context, b *history.Build) error
	Finish(ctx context.Context, id string, out history.Outcome) error
}

// Options are the per-build settings. Empty values fall back to the
// assembly record (end point) or the defaults (normal mode).
type Options struct {
	EndPoint string
	Mode     string
	// Steps are appended after the assembly's own custom step entries.
	Steps []string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRunner replaces the custom step runner.
func WithRunner(r customstep.Runner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// WithRecorder records every build through r.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithStepResolver maps configured step paths to files.
func WithStepResolver(fn customstep.Resolver) Option {
	return func(o *Orchestrator) { o.resolve = fn }
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// Orchestrator builds component trees. One build runs at a time.
type Orchestrator struct {
	registry *component.Registry
	runner   customstep.Runner
	recorder Recorder
	resolve  customstep.Resolver
	logger   *slog.Logger

	mu     sync.Mutex
	target *tree.Node
}

// New returns an orchestrator resolving component types through reg.
func New(reg *component.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{registry: reg, runner: customstep.NewInterpreter()}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "build")
	return o
}

// Target returns the tree currently being built, nil when idle.
func (o *Orchestrator) Target() *tree.Node {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.target
}

func (o *Orchestrator) acquire(root *tree.Node) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.target != nil {
		return faults.Wrap(faults.ErrPhase, "build", "start", "a build of "+o.target.Identity().String()+" is already running", nil)
	}
	o.target = root
	return nil
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.target = nil
	o.mu.Unlock()
}

// Build runs the phases over root into sc. Component types and identities
// are checked before the scene is touched. The returned Result is non-nil
// whenever the scene was modified, including on failure.
func (o *Orchestrator) Build(ctx context.Context, sc *scene.Scene, root *tree.Node, opts Options) (res *Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if sc == nil || root == nil {
		return nil, faults.Wrap(faults.ErrValidation, "build", "start", "scene and tree are required", nil)
	}
	comps, err := o.registry.Instantiate(root)
	if err != nil {
		return nil, err
	}
	if !tree.Unique(root) {
		return nil, faults.Wrap(faults.ErrValidation, "build", "start", "duplicate component identities, resolve indices first", nil)
	}
	endPoint, err := ParsePhase(firstNonEmpty(opts.EndPoint, root.Record().String(ddata.FieldEndPoint)))
	if err != nil {
		return nil, err
	}
	mode, err := ParseMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	if err := o.acquire(root); err != nil {
		return nil, err
	}

	buildID := uuid.NewString()
	ctx = logging.WithBuildID(ctx, buildID)
	logger := logging.WithContext(ctx, o.logger)
	bc := component.NewBuildContext(sc, root, logger)
	bc.Append(component.KeyBuildID, buildID)

	entries := append(root.Record().Strings(ddata.FieldCustomSteps), opts.Steps...)
	res = &Result{
		BuildID:  buildID,
		Assembly: root.Identity().Name,
		EndPoint: endPoint,
		Mode:     mode,
		Context:  bc,
	}
	r := &run{
		orch:    o,
		ctx:     ctx,
		logger:  logger,
		bc:      bc,
		comps:   comps,
		queue:   customstep.NewQueue(entries, ddata.Phases, o.resolve),
		res:     res,
		started: time.Now(),
	}

	closeChunk := sc.BeginChunk("build " + res.Assembly)
	r.begin()
	defer func() {
		if rec := recover(); rec != nil {
			err = faults.Wrap(faults.ErrPhase, res.Assembly, "build", fmt.Sprintf("panic: %v", rec), nil)
		}
		err = r.finalize(err)
		closeChunk()
	}()

	return res, r.execute()
}

// run is the state of one build.
type run struct {
	orch      *Orchestrator
	ctx       context.Context
	logger    *slog.Logger
	bc        *component.BuildContext
	comps     []component.Component
	queue     *customstep.Queue
	res       *Result
	started   time.Time
	recording bool
}

func (r *run) execute() error {
	if err := r.boundary(""); err != nil {
		return err
	}
	for _, phase := range Phases {
		if err := r.phase(phase); err != nil {
			return err
		}
		r.res.Completed = append(r.res.Completed, phase)
		r.bc.Append(component.KeyPhases, string(phase))
		if err := r.boundary(phase); err != nil {
			return err
		}
		if phase == r.res.EndPoint {
			if phase != PhaseCleanup {
				r.logger.Info("end point reached",
					logging.String(logging.FieldEventType, "end_point_reached"),
					logging.String("end_point", string(phase)),
				)
			}
			return nil
		}
	}
	return nil
}

func (r *run) phase(p Phase) error {
	phaseCtx := logging.WithPhase(r.ctx, string(p))
	logger := logging.WithContext(phaseCtx, r.orch.logger)
	start := time.Now()
	logger.Info("phase started",
		logging.String(logging.FieldEventType, "phase_start"),
		logging.Int("components", len(r.comps)),
	)

	if p == PhaseCleanup {
		if err := r.cleanup(phaseCtx, logger); err != nil {
			return faults.Wrap(faults.ErrPhase, r.res.Assembly, string(p), "", err)
		}
	} else {
		for _, c := range r.comps {
			if err := r.callHook(phaseCtx, p, c); err != nil {
				return err
			}
		}
	}

	logger.Info("phase completed",
		logging.String(logging.FieldEventType, "phase_complete"),
		logging.Elapsed(start),
	)
	return nil
}

func (r *run) callHook(ctx context.Context, p Phase, c component.Component) (err error) {
	node := c.Node()
	identity := node.Identity().String()
	hookCtx := logging.WithIdentity(ctx, identity)
	if aware, ok := c.(component.LoggerAware); ok {
		aware.SetLogger(logging.WithContext(hookCtx, r.orch.logger).With(
			logging.String(logging.FieldComponentID, node.ID()),
			logging.String(logging.FieldComponentType, node.Record().Type()),
		))
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = faults.Wrap(faults.ErrPhase, identity, string(p), fmt.Sprintf("panic: %v", rec), nil)
		}
	}()
	if hookErr := p.hook(c)(hookCtx, r.bc); hookErr != nil {
		return faults.Wrap(faults.ErrPhase, identity, string(p), "", hookErr)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
