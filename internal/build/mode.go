package build

import (
	"fmt"
	"strings"

	"armature/internal/faults"
)

// Mode selects what the finalizer does with the built asset.
type Mode string

const (
	// ModeNormal leaves the rig in the scene.
	ModeNormal Mode = "normal"
	// ModeDebug removes the rig after logging; used to check a build
	// completes without leaving output.
	ModeDebug Mode = "debug"
	// ModePub blackboxes the rig containers.
	ModePub Mode = "pub"
)

// ParseMode validates a mode name. The empty string is normal.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeNormal:
		return ModeNormal, nil
	case ModeDebug:
		return ModeDebug, nil
	case ModePub:
		return ModePub, nil
	}
	return "", faults.Wrap(faults.ErrConfiguration, "build", "mode", fmt.Sprintf("unknown mode %q (expected normal, debug or pub)", value), nil)
}
