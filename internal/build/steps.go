package build

import (
	"errors"
	"time"

	"armature/internal/component"
	"armature/internal/customstep"
	"armature/internal/logging"
)

// boundary runs the steps queued after phase. The empty phase is the
// boundary before objects. Steps of a later phase stay queued behind their
// marker.
func (r *run) boundary(after Phase) error {
	if after != "" && !r.queue.Consume(string(after)) {
		return nil
	}
	for {
		step, ok := r.queue.Next()
		if !ok {
			return nil
		}
		if err := r.step(step); err != nil {
			return err
		}
	}
}

func (r *run) step(s customstep.Step) error {
	stepCtx := logging.WithStep(r.ctx, s.Name)
	logger := logging.WithContext(stepCtx, r.orch.logger)

	switch s.Status {
	case customstep.StatusDisabled:
		r.skip(s)
		logger.Info("custom step skipped",
			logging.String(logging.FieldEventType, "custom_step_skipped"),
			logging.String("reason", "disabled"),
		)
		return nil
	case customstep.StatusMisconfigured:
		r.skip(s)
		logging.WarnWithContext(logger, "custom step skipped", "custom_step_misconfigured",
			logging.String("reason", s.Reason),
			logging.String("entry", s.Raw),
			logging.String(logging.FieldErrorHint, "use \"name | path/to/step.go\" with an existing .go file"),
			logging.String(logging.FieldImpact, "step did not run"),
		)
		return nil
	}

	start := time.Now()
	out, err := r.orch.runner.Run(stepCtx, s, r.bc.Snapshot())
	if errors.Is(err, customstep.ErrNoEntryPoint) {
		r.skip(s)
		logging.WarnWithContext(logger, "custom step skipped", "custom_step_misconfigured",
			logging.String("reason", err.Error()),
			logging.String("step_path", s.Path),
			logging.String(logging.FieldErrorHint, "declare exactly one func Name(ctx map[string]interface{}) error"),
			logging.String(logging.FieldImpact, "step did not run"),
		)
		return nil
	}
	if err != nil {
		return err
	}
	r.bc.Merge(out)
	r.bc.Append(component.KeySteps, s.Name)
	r.res.StepsRun = append(r.res.StepsRun, s.Name)
	logger.Info("custom step executed",
		logging.String(logging.FieldEventType, "custom_step_complete"),
		logging.String("step_path", s.Path),
		logging.Elapsed(start),
	)
	return nil
}

func (r *run) skip(s customstep.Step) {
	r.res.StepsSkipped = append(r.res.StepsSkipped, s.Name)
}

// drain skips whatever the build never reached.
func (r *run) drain() {
	for _, s := range r.queue.Pending() {
		if s.IsMarker() {
			continue
		}
		r.skip(s)
		logging.WithContext(logging.WithStep(r.ctx, s.Name), r.orch.logger).Info("custom step skipped",
			logging.String(logging.FieldEventType, "custom_step_skipped"),
			logging.String("reason", "phase not reached"),
		)
	}
}
