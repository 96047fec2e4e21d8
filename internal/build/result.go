package build

import (
	"slices"

	"armature/internal/component"
	"armature/internal/history"
	"armature/internal/scene"
)

// Result describes a finished build.
type Result struct {
	BuildID  string
	Assembly string
	Status   history.Status
	EndPoint Phase
	Mode     Mode
	// Completed lists the phases finished for the whole tree.
	Completed    []Phase
	StepsRun     []string
	StepsSkipped []string
	// Containers are the rig containers created by the build. In debug
	// mode they have been deleted.
	Containers []*scene.Object
	Context    *component.BuildContext
	Err        error
}

// Partial reports whether the build stopped at an end point before cleanup.
func (r *Result) Partial() bool {
	return r.Status == history.StatusPartial
}

// Reached reports whether phase p completed.
func (r *Result) Reached(p Phase) bool {
	return slices.Contains(r.Completed, p)
}
