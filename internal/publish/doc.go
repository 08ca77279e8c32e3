// Package publish creates releases on an HTTP release host and uploads
// build artifacts to them. The client classifies failures into the service
// error taxonomy and never retries on its own.
package publish
