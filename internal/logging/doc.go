// Package logging assembles the structured slog loggers used by the engine,
// the CLI and custom steps.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// context helpers that stamp build ids, phases and component identities onto
// every line emitted while a build runs. NewNop gives tests and optional
// wiring a logger that cannot fail.
package logging
