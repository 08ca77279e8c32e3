// Package pipeline orchestrates one release run: documentation generation,
// artifact builds, publication to the release host, and local repository
// updates, with an exclusive lock on the output directory for the duration.
package pipeline
