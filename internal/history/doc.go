// Package history persists a journal of pipeline runs so past releases can
// be inspected without contacting the release host.
package history
