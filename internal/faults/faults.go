// Package faults defines the error markers shared across the engine and the
// Wrap helper that tags an error with one of them.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSchema        = errors.New("schema error")
	ErrResolution    = errors.New("resolution error")
	ErrCustomStep    = errors.New("custom step error")
	ErrPhase         = errors.New("build phase error")
	ErrMirror        = errors.New("mirror error")
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrConfiguration = errors.New("configuration error")
)

var markers = []error{
	ErrSchema, ErrResolution, ErrCustomStep, ErrPhase,
	ErrMirror, ErrValidation, ErrNotFound, ErrConfiguration,
}

// Wrap builds an error message that includes scope context while tagging it
// with the provided marker. Both the marker and err match with errors.Is.
func Wrap(marker error, scope, operation, message string, err error) error {
	detail := buildDetail(scope, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Marker returns the first marker err carries, or nil.
func Marker(err error) error {
	for _, m := range markers {
		if errors.Is(err, m) {
			return m
		}
	}
	return nil
}

// EventType maps err to the event_type logged for it.
func EventType(err error) string {
	switch Marker(err) {
	case ErrSchema:
		return "schema_error"
	case ErrResolution:
		return "resolution_error"
	case ErrCustomStep:
		return "custom_step_error"
	case ErrPhase:
		return "phase_error"
	case ErrMirror:
		return "mirror_rejected"
	case ErrNotFound:
		return "not_found"
	case ErrConfiguration:
		return "configuration_error"
	case ErrValidation:
		return "validation_error"
	}
	return "error"
}

// Message strips the marker prefix so the remainder reads as a sentence for
// the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if m := Marker(err); m != nil {
		msg = strings.TrimPrefix(msg, m.Error()+": ")
	}
	return msg
}

func buildDetail(scope, operation, message string) string {
	parts := make([]string, 0, 3)
	if scope = strings.TrimSpace(scope); scope != "" {
		parts = append(parts, scope)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "engine failure"
	}
	return strings.Join(parts, ": ")
}
