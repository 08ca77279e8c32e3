package buildkit

import "time"

// BuildResult captures the outcome of one build attempt. It is immutable
// once returned; failures are recorded in Error rather than raised, so a
// failed build never unwinds the pipeline.
type BuildResult struct {
	Success    bool
	OutputPath string
	Size       int64
	Checksum   string
	Error      string
	Duration   time.Duration
}

func failure(start time.Time, message string) BuildResult {
	return BuildResult{
		Error:    message,
		Duration: time.Since(start),
	}
}
