// Package naming computes deterministic object names for components.
//
// A component is identified by (name, side, index). Names are produced by
// substituting that identity, a description and an extension into a per-rule
// template ({name}, {side}, {index}, {description}, {extension}) configured
// on the assembly. Two rule sets exist, one for controls and one for joints,
// each with its own side aliases, index padding, description letter case and
// default extension. Empty segments collapse, so the assembly (which has no
// side or index) yields short names from the same template.
//
// FormatName is pure: identical inputs always produce identical output, which
// is what lets renames be re-applied idempotently after every edit.
package naming
