// Package services provides shared error classification and context
// annotation helpers used across pipeline components.
//
// Stage handlers capture failures into result values wherever possible; when
// they must return an error, they tag it with one of the exported sentinel
// markers so the orchestrator can decide whether the failure is retryable,
// fatal, or merely recordable.
package services
