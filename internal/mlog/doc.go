// Package mlog provides the process-wide structured logger, adapted
// from the ambient logging conventions used across this codebase:
// zerolog under the hood, a package-level Logger configured once at
// startup, and cheap With* helpers for attaching request-scoped fields
// to child loggers.
package mlog
