// Package history records orchestrator runs in a SQLite database.
//
// Each build gets one row in the builds table: it is inserted as running when
// the orchestrator starts and finished with its final status, the last phase
// it reached and, for failures, the build context dump. Schema changes ship
// as embedded, versioned migrations applied on Open.
package history
