package build

import (
	"armature/internal/component"
	"armature/internal/faults"
	"armature/internal/history"
	"armature/internal/logging"
	"armature/internal/scene"
)

func (r *run) begin() {
	r.logger.Info("build started",
		logging.String(logging.FieldEventType, "build_start"),
		logging.String(logging.FieldAssembly, r.res.Assembly),
		logging.String("end_point", string(r.res.EndPoint)),
		logging.String("mode", string(r.res.Mode)),
		logging.Int("components", len(r.comps)),
		logging.Int("custom_steps", r.queue.Len()),
	)
	if r.orch.recorder == nil {
		return
	}
	err := r.orch.recorder.Begin(r.ctx, &history.Build{
		ID:         r.res.BuildID,
		Assembly:   r.res.Assembly,
		EndPoint:   string(r.res.EndPoint),
		Mode:       string(r.res.Mode),
		Components: len(r.comps),
		StartedAt:  r.started.UTC(),
	})
	if err != nil {
		logging.WarnWithContext(r.logger, "build history unavailable", "history_error",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this build is not recorded"),
		)
		return
	}
	r.recording = true
}

// finalize always runs: it clears the build target, applies the mode,
// selects the result, dumps the context and records the outcome.
func (r *run) finalize(buildErr error) error {
	r.orch.release()
	r.drain()

	sc := r.bc.Scene
	r.res.Containers = containers(r.bc)
	r.res.Err = buildErr
	r.res.Status = history.StatusCompleted
	switch {
	case buildErr != nil:
		r.res.Status = history.StatusFailed
	case r.res.EndPoint != PhaseCleanup:
		r.res.Status = history.StatusPartial
	}

	switch r.res.Mode {
	case ModeDebug:
		for _, obj := range r.res.Containers {
			sc.Delete(obj)
		}
		if buildErr == nil {
			r.res.Status = history.StatusDiscarded
		}
		r.logger.Info("debug build discarded",
			logging.String(logging.FieldEventType, "build_discarded"),
			logging.Int("containers", len(r.res.Containers)),
		)
	case ModePub:
		for _, obj := range r.res.Containers {
			sc.Blackbox(obj)
		}
		r.logger.Info("rig published",
			logging.String(logging.FieldEventType, "build_published"),
			logging.Int("containers", len(r.res.Containers)),
		)
	}

	var selection []*scene.Object
	for _, obj := range r.res.Containers {
		if !obj.Deleted() {
			selection = append(selection, obj)
		}
	}
	sc.Select(selection...)

	dump := r.bc.Dump()
	if buildErr != nil {
		logging.ErrorWithContext(r.logger, "build failed", faults.EventType(buildErr),
			logging.Error(buildErr),
			logging.String(logging.FieldErrorHint, errorHint(buildErr)),
			logging.String("completed_phases", phaseList(r.res.Completed)),
			logging.String("context", dump),
		)
	} else {
		r.logger.Debug("build context", logging.String("context", dump))
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "build_complete"),
			logging.String("status", string(r.res.Status)),
			logging.Int("steps_run", len(r.res.StepsRun)),
			logging.Int("steps_skipped", len(r.res.StepsSkipped)),
			logging.Elapsed(r.started),
		}
		switch r.res.Status {
		case history.StatusPartial:
			attrs = append(attrs, logging.Alert("stopped at "+string(r.res.EndPoint)))
		case history.StatusDiscarded:
			attrs = append(attrs, logging.Alert("debug rig discarded"))
		}
		r.logger.Info("build completed", logging.Args(attrs...)...)
	}

	if r.recording {
		out := history.Outcome{
			Status:       r.res.Status,
			StepsRun:     len(r.res.StepsRun),
			StepsSkipped: len(r.res.StepsSkipped),
		}
		if buildErr != nil {
			out.ErrorMessage = faults.Message(buildErr)
			out.ContextDump = dump
		}
		if err := r.orch.recorder.Finish(r.ctx, r.res.BuildID, out); err != nil {
			logging.WarnWithContext(r.logger, "failed to record build outcome", "history_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "history shows this build as running"),
			)
		}
	}
	return buildErr
}

func containers(bc *component.BuildContext) []*scene.Object {
	var out []*scene.Object
	for _, v := range bc.Values(component.KeyRigRoot) {
		if obj, ok := v.(*scene.Object); ok && obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

func errorHint(err error) string {
	switch faults.Marker(err) {
	case faults.ErrCustomStep:
		return "fix the step script or disable it by prefixing its name with *"
	case faults.ErrPhase:
		return "fix the failing component and rebuild from the top"
	}
	return "check logs for details"
}

func phaseList(phases []Phase) string {
	out := ""
	for i, p := range phases {
		if i > 0 {
			out += ","
		}
		out += string(p)
	}
	return out
}
