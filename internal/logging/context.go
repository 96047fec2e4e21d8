package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent names the subsystem emitting the line (build, guide, cli).
	FieldComponent = "component"
	// FieldIdentity is the rig component identity, e.g. arm_L0.
	FieldIdentity = "identity"
	// FieldComponentID is the stable component uuid.
	FieldComponentID = "component_id"
	// FieldComponentType is the registered component type.
	FieldComponentType = "component_type"
	// FieldPhase is the build phase name.
	FieldPhase = "phase"
	// FieldStep is the custom step name.
	FieldStep = "step"
	// FieldBuildID identifies one orchestrator run.
	FieldBuildID = "build_id"
	// FieldAssembly is the assembly name of the tree being processed.
	FieldAssembly = "assembly"
	// FieldEventType classifies a line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the reader.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags anomalies that should stand out.
	FieldAlert = "alert"
)

type contextKey int

const (
	buildIDKey contextKey = iota
	phaseKey
	identityKey
	stepKey
)

// WithBuildID tags ctx with the current build id.
func WithBuildID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, buildIDKey, id)
}

// BuildIDFromContext returns the build id stored in ctx.
func BuildIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, buildIDKey)
}

// WithPhase tags ctx with the running build phase.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext returns the phase stored in ctx.
func PhaseFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, phaseKey)
}

// WithIdentity tags ctx with the rig component being processed.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the component identity stored in ctx.
func IdentityFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, identityKey)
}

// WithStep tags ctx with the running custom step.
func WithStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, stepKey, step)
}

// StepFromContext returns the custom step stored in ctx.
func StepFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stepKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := BuildIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBuildID, id))
	}
	if phase, ok := PhaseFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPhase, phase))
	}
	if identity, ok := IdentityFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldIdentity, identity))
	}
	if step, ok := StepFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStep, step))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
