// Package customstep parses custom step entries, queues them in build order
// and runs step scripts through an embedded Go interpreter.
//
// An entry is either "name | path" (a leading * on the name disables the
// step) or a bare phase name marking a phase boundary. Steps listed before
// the first marker run before that phase starts; steps after a marker run
// once that phase has completed.
package customstep

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sys/unix"
)

// Extension is the script file extension accepted for steps.
const Extension = ".go"

// DisabledPrefix marks a step as disabled.
const DisabledPrefix = "*"

// Status classifies an entry.
type Status string

const (
	StatusActive        Status = "active"
	StatusDisabled      Status = "disabled"
	StatusMisconfigured Status = "misconfigured"
	StatusMarker        Status = "marker"
)

// Step is one immutable queue entry.
type Step struct {
	Name   string
	Path   string
	Status Status
	// Reason explains a misconfigured status.
	Reason string
	Raw    string
}

// IsMarker reports whether the step is a phase boundary marker.
func (s Step) IsMarker() bool { return s.Status == StatusMarker }

// String renders the entry in its "name | path" form.
func (s Step) String() string {
	if s.IsMarker() {
		return s.Name
	}
	name := s.Name
	if s.Status == StatusDisabled {
		name = DisabledPrefix + name
	}
	return name + " | " + s.Path
}

// Resolver maps a configured path to a filesystem path.
type Resolver func(path string) string

// Parse classifies one entry. markers lists the phase names accepted as
// boundary markers. resolve may be nil.
func Parse(entry string, markers []string, resolve Resolver) Step {
	raw := strings.TrimSpace(entry)
	name, path, hasPath := strings.Cut(raw, "|")
	name = strings.TrimSpace(name)
	path = strings.TrimSpace(path)
	if !hasPath {
		if slices.Contains(markers, strings.ToLower(name)) {
			return Step{Name: strings.ToLower(name), Status: StatusMarker, Raw: raw}
		}
		return Step{Name: name, Status: StatusMisconfigured, Reason: "expected \"name | path\"", Raw: raw}
	}
	step := Step{Name: name, Path: path, Status: StatusActive, Raw: raw}
	if trimmed, disabled := strings.CutPrefix(name, DisabledPrefix); disabled {
		step.Name = strings.TrimSpace(trimmed)
		step.Status = StatusDisabled
		return step
	}
	if resolve != nil {
		step.Path = resolve(path)
	}
	if step.Name == "" {
		step.Status, step.Reason = StatusMisconfigured, "missing step name"
		return step
	}
	if err := CheckFile(step.Path); err != nil {
		step.Status, step.Reason = StatusMisconfigured, err.Error()
	}
	return step
}

// CheckFile verifies that path is a readable regular file with the script
// extension.
func CheckFile(path string) error {
	if path == "" {
		return fmt.Errorf("missing step path")
	}
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return fmt.Errorf("%s: expected a %s file", path, Extension)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file", path)
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return fmt.Errorf("%s: not readable: %w", path, err)
	}
	return nil
}
