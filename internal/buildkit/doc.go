// Package buildkit produces release artifacts: a self-contained executable
// bundle built by an external packaging tool and a deflate-compressed source
// archive.
//
// Both operations return a BuildResult and never raise past their boundary;
// every failure mode is captured into the result so the orchestrator can
// treat partial build failure as data rather than control flow. The packager
// subprocess sits behind the Executor interface so tests can fake it.
package buildkit
