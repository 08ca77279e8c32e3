// Package relnotes generates release documentation: localized release
// notes, a technical-details document, an installation guide, and in-place
// edits to the project changelog and readme.
package relnotes
