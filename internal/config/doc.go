// Package config loads, normalizes, and validates armature configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes the knobs the
// CLI and the build orchestrator need: where build history and logs live,
// where custom step scripts are looked up, the naming convention stamped onto
// new assemblies, and default build behaviour.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
