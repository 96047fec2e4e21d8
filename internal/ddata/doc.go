// Package ddata holds component State Records and keeps them in sync with
// live scene objects.
//
// A Schema (the "preset") declares each field's kind, default, bounds and
// enum labels. A Record is the typed value map for one component instance
// plus its derived, non-schema data: the stable component_id and the
// parent_anchor reference.
//
// Every field kind is served by a Codec that knows how to Pull the value out
// of a live attribute and Push it back. Cross-reference and driven matrix
// fields are always moved as connections, never as snapshots: two records
// pointing at the same live object observe the same upstream driver.
//
// Fields declared in the schema but missing on the live object are skipped on
// Pull and created with their default on Push.
package ddata
