package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"lathe/internal/pipeline"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 16
	statusIndent     = "  "
)

// renderRunSummary formats a finished pipeline run for terminal display:
// an outcome header, one status line per stage, the produced artifacts,
// and a flat list of recorded errors.
func renderRunSummary(run *pipeline.Run, colorize bool) string {
	var lines []string

	title := fmt.Sprintf("Release v%s", run.Version)
	if run.DryRun {
		title += " (dry run)"
	}
	lines = append(lines, renderSectionHeader(title, colorize)...)

	outcome := statusOK
	outcomeText := "completed"
	if !run.Success {
		outcome = statusError
		outcomeText = "failed"
	}
	lines = append(lines, renderStatusLine("Outcome", outcome, outcomeText, colorize))
	lines = append(lines, renderStatusLine("Duration", statusInfo, run.Duration().Round(time.Millisecond).String(), colorize))

	stages := []string{pipeline.StageDocs, pipeline.StageBuild, pipeline.StagePublish, pipeline.StageRepoUpdate}
	for _, stage := range stages {
		if stage == pipeline.StagePublish && run.DryRun {
			lines = append(lines, renderStatusLine(stageLabel(stage), statusInfo, "skipped (dry run)", colorize))
			continue
		}
		if run.CompletedStage(stage) {
			lines = append(lines, renderStatusLine(stageLabel(stage), statusOK, "", colorize))
		} else {
			lines = append(lines, renderStatusLine(stageLabel(stage), statusError, "did not complete", colorize))
		}
	}

	if len(run.Assets) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Artifacts", colorize)...)
		keys := make([]string, 0, len(run.Assets))
		for key := range run.Assets {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			result := run.Assets[key]
			if result.Success {
				detail := fmt.Sprintf("%s (%d bytes, sha256 %s)", result.OutputPath, result.Size, shortChecksum(result.Checksum))
				lines = append(lines, renderStatusLine(stageLabel(key), statusOK, detail, colorize))
			} else {
				lines = append(lines, renderStatusLine(stageLabel(key), statusError, result.Error, colorize))
			}
		}
	}

	if run.ReleaseURL != "" {
		lines = append(lines, "")
		lines = append(lines, renderStatusLine("Release URL", statusInfo, run.ReleaseURL, colorize))
	}

	if len(run.Errors) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Errors", colorize)...)
		for _, message := range run.Errors {
			lines = append(lines, renderStatusLine("Error", statusError, message, colorize))
		}
	}

	return strings.Join(lines, "\n")
}

func stageLabel(name string) string {
	switch name {
	case pipeline.StageDocs:
		return "Documentation"
	case pipeline.StageBuild:
		return "Build"
	case pipeline.StagePublish:
		return "Publish"
	case pipeline.StageRepoUpdate:
		return "Repo update"
	case pipeline.ArtifactBundle:
		return "Bundle"
	case pipeline.ArtifactSource:
		return "Source archive"
	default:
		return name
	}
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
