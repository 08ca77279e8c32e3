// Package config loads, normalizes, and validates the release pipeline
// configuration from TOML.
//
// Load is a pure read: a missing file yields repository defaults and nothing
// is ever written as a side effect. The embedded sample config is persisted
// only by an explicit WriteSample call (the `lathe config init` command).
// Publisher credentials are validated separately via ValidatePublishCredential
// so dry runs work without one.
package config
