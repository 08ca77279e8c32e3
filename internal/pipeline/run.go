package pipeline

import (
	"time"

	"lathe/internal/buildkit"
	"lathe/internal/relnotes"
)

// Stage names, in execution order.
const (
	StageDocs       = "docs"
	StageBuild      = "build"
	StagePublish    = "publish"
	StageRepoUpdate = "repo-update"
)

// Artifact keys within Run.Assets.
const (
	ArtifactBundle = "bundle"
	ArtifactSource = "source"
)

// Run is the record of one pipeline execution. It is owned by the
// orchestrator and mutated only by appending stage outcomes.
type Run struct {
	ID              string
	Version         string
	DryRun          bool
	Success         bool
	StagesCompleted []string
	Errors          []string
	Assets          map[string]buildkit.BuildResult
	Docs            map[relnotes.Kind]string
	ReleaseURL      string
	StartedAt       time.Time
	FinishedAt      time.Time
}

func (r *Run) completeStage(stage string) {
	r.StagesCompleted = append(r.StagesCompleted, stage)
}

func (r *Run) recordError(message string) {
	r.Errors = append(r.Errors, message)
}

// CompletedStage reports whether the named stage ran to completion.
func (r *Run) CompletedStage(stage string) bool {
	for _, name := range r.StagesCompleted {
		if name == stage {
			return true
		}
	}
	return false
}

// SuccessfulBuilds counts assets whose build succeeded.
func (r *Run) SuccessfulBuilds() int {
	count := 0
	for _, result := range r.Assets {
		if result.Success {
			count++
		}
	}
	return count
}

// Duration returns the wall-clock length of the run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
