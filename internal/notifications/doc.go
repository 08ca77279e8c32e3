// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. All sends are best-effort; the pipeline never fails because a
// notification could not be delivered.
//
// Extend this package if you need alternative transports; pipeline code
// depends only on the simple Service interface.
package notifications
