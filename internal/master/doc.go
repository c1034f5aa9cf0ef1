// Package master implements the HTTP request handler that drives the
// key state machine: Absent -> (PUT) -> Live -> (UNLINK) -> SoftDeleted
// -> (DELETE) -> Absent, with Live -> (DELETE) -> Absent as a shortcut.
// No other transitions exist.
//
// A Server bundles the index, key-lock table, volume roster, replica
// count, and blob client into a single immutable Config passed at
// construction; there is no process-wide mutable state beyond the
// index itself.
package master
