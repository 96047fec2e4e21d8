package config

import "armature/internal/naming"

const (
	defaultConfigPath    = "~/.config/armature/config.toml"
	defaultStateDir      = "~/.local/share/armature"
	defaultLogDir        = "~/.local/share/armature/logs"
	defaultStepsDir      = "~/.config/armature/steps"
	defaultEndPoint      = "cleanup"
	defaultMode          = "normal"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultRecordHistory = true
	historyFileName      = "history.db"
)

// Build modes accepted by the orchestrator.
var buildModes = []string{"normal", "debug", "pub"}

// Phase names accepted as end points, in build order.
var endPoints = []string{"objects", "attributes", "operators", "connections", "cleanup"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	conv := naming.DefaultConvention()
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			StepsDir: defaultStepsDir,
		},
		Naming: Naming{
			Ctl: ruleFromSet(conv.Ctl),
			Jnt: ruleFromSet(conv.Jnt),
		},
		Build: Build{
			EndPoint:      defaultEndPoint,
			Mode:          defaultMode,
			RecordHistory: defaultRecordHistory,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func ruleFromSet(r naming.RuleSet) Rule {
	return Rule{
		Template:        r.Template,
		SideCenter:      r.SideCenter,
		SideLeft:        r.SideLeft,
		SideRight:       r.SideRight,
		IndexPadding:    r.IndexPadding,
		DescriptionCase: string(r.DescriptionCase),
		Extension:       r.Extension,
	}
}
