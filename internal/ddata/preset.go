package ddata

import (
	"armature/internal/naming"
)

// Field names shared by every component preset.
const (
	FieldComponent       = "component"
	FieldName            = "name"
	FieldSide            = "side"
	FieldIndex           = "index"
	FieldAnchors         = "anchors"
	FieldCustomRefIndex  = "custom_ref_index"
	FieldCtlSize         = "ctl_size"
	FieldSpaceSwitchRefs = "space_switch_refs"
	FieldContainerScope  = "container_scope"
)

// Assembly-only field names.
const (
	FieldEndPoint    = "end_point"
	FieldCustomSteps = "custom_steps"
	FieldNotes       = "notes"

	FieldCtlRule      = "ctl_rule"
	FieldCtlSideC     = "ctl_side_center"
	FieldCtlSideL     = "ctl_side_left"
	FieldCtlSideR     = "ctl_side_right"
	FieldCtlPadding   = "ctl_index_padding"
	FieldCtlCase      = "ctl_description_case"
	FieldCtlExtension = "ctl_extension"
	FieldJntRule      = "jnt_rule"
	FieldJntSideC     = "jnt_side_center"
	FieldJntSideL     = "jnt_side_left"
	FieldJntSideR     = "jnt_side_right"
	FieldJntPadding   = "jnt_index_padding"
	FieldJntCase      = "jnt_description_case"
	FieldJntExtension = "jnt_extension"
)

// Attribute names stamped on every component root besides the schema fields.
const (
	AttrComponentID  = "component_id"
	AttrParentAnchor = "parent_anchor"
)

// Sides lists the side enum labels in index order.
var Sides = []string{string(naming.SideCenter), string(naming.SideLeft), string(naming.SideRight)}

// Phases lists the end point enum labels in build order.
var Phases = []string{"objects", "attributes", "operators", "connections", "cleanup"}

var caseLabels = []string{
	string(naming.CaseUnchanged), string(naming.CaseLower), string(naming.CaseUpper), string(naming.CaseCapitalize),
}

// CommonFields returns the preset every non-assembly component starts from.
func CommonFields(componentType, name string) []Field {
	return []Field{
		{Name: FieldComponent, Kind: KindString, Default: componentType},
		{Name: FieldName, Kind: KindString, Default: name},
		{Name: FieldSide, Kind: KindEnum, Enum: Sides, Default: string(naming.SideCenter)},
		{Name: FieldIndex, Kind: KindInteger, Default: 0, Min: Bound(0)},
		{Name: FieldAnchors, Kind: KindMatrix, Multi: true},
		{Name: FieldCustomRefIndex, Kind: KindInteger, Min: Bound(-1)},
		{Name: FieldCtlSize, Kind: KindFloat, Default: 1.0, Min: Bound(0.01)},
		{Name: FieldSpaceSwitchRefs, Kind: KindString, Default: "", MirrorTokens: true},
		{Name: FieldContainerScope, Kind: KindString, Default: "", MirrorTokens: true},
	}
}

// AssemblyFields returns the assembly preset with conv as naming defaults.
func AssemblyFields(name string, conv naming.Convention) []Field {
	fields := []Field{
		{Name: FieldComponent, Kind: KindString, Default: "assembly"},
		{Name: FieldName, Kind: KindString, Default: name},
		{Name: FieldAnchors, Kind: KindMatrix, Multi: true},
		{Name: FieldCtlSize, Kind: KindFloat, Default: 1.0, Min: Bound(0.01)},
		{Name: FieldEndPoint, Kind: KindEnum, Enum: Phases, Default: Phases[len(Phases)-1]},
		{Name: FieldCustomSteps, Kind: KindString, Multi: true},
		{Name: FieldNotes, Kind: KindJSON},
	}
	fields = append(fields, ruleFields(conv.Ctl, FieldCtlRule, FieldCtlSideC, FieldCtlSideL, FieldCtlSideR, FieldCtlPadding, FieldCtlCase, FieldCtlExtension)...)
	fields = append(fields, ruleFields(conv.Jnt, FieldJntRule, FieldJntSideC, FieldJntSideL, FieldJntSideR, FieldJntPadding, FieldJntCase, FieldJntExtension)...)
	return fields
}

func ruleFields(rules naming.RuleSet, rule, c, l, r, padding, letterCase, ext string) []Field {
	policy := string(rules.DescriptionCase)
	if policy == "" {
		policy = string(naming.CaseUnchanged)
	}
	return []Field{
		{Name: rule, Kind: KindString, Default: rules.Template},
		{Name: c, Kind: KindString, Default: rules.SideCenter},
		{Name: l, Kind: KindString, Default: rules.SideLeft},
		{Name: r, Kind: KindString, Default: rules.SideRight},
		{Name: padding, Kind: KindInteger, Default: rules.IndexPadding, Min: Bound(0), Max: Bound(8)},
		{Name: letterCase, Kind: KindEnum, Enum: caseLabels, Default: policy},
		{Name: ext, Kind: KindString, Default: rules.Extension},
	}
}

// Convention reads the naming convention from an assembly record. Records
// without naming fields yield the default convention.
func Convention(assembly *Record) naming.Convention {
	conv := naming.DefaultConvention()
	if assembly == nil || !assembly.schema.Has(FieldCtlRule) {
		return conv
	}
	conv.Ctl = readRules(assembly, conv.Ctl, FieldCtlRule, FieldCtlSideC, FieldCtlSideL, FieldCtlSideR, FieldCtlPadding, FieldCtlCase, FieldCtlExtension)
	conv.Jnt = readRules(assembly, conv.Jnt, FieldJntRule, FieldJntSideC, FieldJntSideL, FieldJntSideR, FieldJntPadding, FieldJntCase, FieldJntExtension)
	return conv
}

func readRules(rec *Record, fallback naming.RuleSet, rule, c, l, r, padding, letterCase, ext string) naming.RuleSet {
	out := naming.RuleSet{
		Template:   rec.String(rule),
		SideCenter: rec.String(c),
		SideLeft:   rec.String(l),
		SideRight:  rec.String(r),
		Extension:  rec.String(ext),
	}
	if out.Template == "" {
		out.Template = fallback.Template
	}
	if n, ok := rec.Int(padding); ok {
		out.IndexPadding = n
	}
	policy, err := naming.ParseCase(rec.String(letterCase))
	if err != nil {
		policy = fallback.DescriptionCase
	}
	out.DescriptionCase = policy
	return out
}
