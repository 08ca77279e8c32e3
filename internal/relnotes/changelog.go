package relnotes

import (
	"fmt"
	"os"
	"strings"

	"lathe/internal/bugfix"
	"lathe/internal/logging"
	"lathe/internal/services"
)

// UpdateChangelog splices a section for version into the changelog at path,
// immediately after the document's first top-level or second-level heading.
// An existing section for the same version is replaced, so running the
// pipeline twice for one version leaves a single section. A missing file is
// created with a default top heading.
func (g *Generator) UpdateChangelog(version string, fixes []bugfix.Fix, path string) error {
	entry := g.changelogEntry(version, fixes)

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrIO, "docs", "changelog", "read changelog", err)
	}

	var updated string
	if len(existing) == 0 {
		updated = fmt.Sprintf("# %s Changelog\n\n%s\n", g.cfg.Project.AppName, entry)
	} else {
		content := removeVersionSection(string(existing), version)
		updated = insertAfterFirstHeading(content, entry)
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return services.Wrap(services.ErrIO, "docs", "changelog", "write changelog", err)
	}

	g.logger.Info("changelog updated",
		logging.String(logging.FieldVersion, version),
		logging.String("path", path),
	)
	return nil
}

func (g *Generator) changelogEntry(version string, fixes []bugfix.Fix) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## [v%s] - %s\n\n", version, g.now().Format("2006-01-02"))

	if len(fixes) > 0 {
		b.WriteString("### Fixed\n")
		for _, fix := range fixes {
			fmt.Fprintf(&b, "- **%s**: %s\n", fix.Title, fix.SolutionSummary)
		}
		b.WriteString("\n### Technical Details\n")
		for _, fix := range fixes {
			if fix.TechnicalDetails != "" {
				fmt.Fprintf(&b, "- %s\n", fix.TechnicalDetails)
			}
		}
	} else {
		b.WriteString("### Changed\n- Maintenance release\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// removeVersionSection strips an existing "## [vX.Y.Z]" section, up to but
// not including the next second-level heading or end of document.
func removeVersionSection(content, version string) string {
	marker := fmt.Sprintf("## [v%s]", version)
	lines := strings.Split(content, "\n")

	kept := make([]string, 0, len(lines))
	skipping := false
	for _, line := range lines {
		if strings.HasPrefix(line, marker) {
			skipping = true
			continue
		}
		if skipping && strings.HasPrefix(line, "## ") {
			skipping = false
		}
		if !skipping {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// insertAfterFirstHeading places entry after the first "# " or "## " line,
// or at the top when no heading exists.
func insertAfterFirstHeading(content, entry string) string {
	lines := strings.Split(content, "\n")
	headingEnd := 0
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "## ") {
			headingEnd = i + 1
			break
		}
	}

	var b strings.Builder
	b.WriteString(strings.Join(lines[:headingEnd], "\n"))
	b.WriteString("\n\n")
	b.WriteString(entry)
	b.WriteString("\n\n")
	b.WriteString(strings.TrimLeft(strings.Join(lines[headingEnd:], "\n"), "\n"))
	return b.String()
}
