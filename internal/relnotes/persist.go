package relnotes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lathe/internal/logging"
	"lathe/internal/services"
)

// Persist writes the documentation files for a release into dir and returns
// their paths keyed by kind: the combined document, one narrative per
// locale, the technical details, and the installation guide. Files already
// present are overwritten, so a partially written directory from a failed
// earlier run is a valid starting point.
func (g *Generator) Persist(notes ReleaseNotes, dir string) (map[Kind]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIO, "docs", "persist", "create output directory", err)
	}

	created := make(map[Kind]string, len(notes.LocalizedContent)+3)

	write := func(kind Kind, name, content string) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return services.Wrap(services.ErrIO, "docs", "persist", fmt.Sprintf("write %s", name), err)
		}
		created[kind] = path
		return nil
	}

	combinedName := fmt.Sprintf("RELEASE_NOTES_v%s.md", notes.Version)
	if err := write(KindCombined, combinedName, g.combined(notes)); err != nil {
		return created, err
	}

	for _, locale := range g.cfg.Notes.Locales {
		content, ok := notes.LocalizedContent[locale]
		if !ok {
			continue
		}
		name := fmt.Sprintf("RELEASE_NOTES_v%s_%s.md", notes.Version, strings.ToUpper(locale))
		if err := write(LocaleKind(locale), name, content); err != nil {
			return created, err
		}
	}

	technicalName := fmt.Sprintf("TECHNICAL_DETAILS_v%s.md", notes.Version)
	if err := write(KindTechnical, technicalName, notes.TechnicalDetails); err != nil {
		return created, err
	}

	installName := fmt.Sprintf("INSTALLATION_GUIDE_v%s.md", notes.Version)
	if err := write(KindInstallation, installName, notes.Installation); err != nil {
		return created, err
	}

	g.logger.Info("release documentation written",
		logging.String(logging.FieldVersion, notes.Version),
		logging.Int("files", len(created)),
		logging.String("dir", dir),
	)
	return created, nil
}

// combined concatenates every section in fixed order: each locale in
// configuration order, then the technical details, then the installation
// guide.
func (g *Generator) combined(notes ReleaseNotes) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s v%s Release Notes\n\n", g.cfg.Project.AppName, notes.Version)
	for _, locale := range g.cfg.Notes.Locales {
		if content, ok := notes.LocalizedContent[locale]; ok {
			b.WriteString(content)
			b.WriteString("\n---\n\n")
		}
	}
	b.WriteString(notes.TechnicalDetails)
	b.WriteString("\n---\n\n")
	b.WriteString(notes.Installation)

	return b.String()
}
