package relnotes

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"

	"lathe/internal/bugfix"
	"lathe/internal/config"
	"lathe/internal/logging"
)

// Kind identifies one of the documentation files produced for a release.
type Kind string

const (
	KindCombined     Kind = "combined"
	KindTechnical    Kind = "technical"
	KindInstallation Kind = "installation"
)

// LocaleKind returns the kind under which a per-locale narrative file is
// keyed, e.g. "notes-tr".
func LocaleKind(locale string) Kind {
	return Kind("notes-" + strings.ToLower(locale))
}

// ReleaseNotes is the single record all documentation files are derived
// from. Regenerating with the same inputs yields identical content except
// for the embedded release date.
type ReleaseNotes struct {
	Version          string
	ReleaseDate      string
	LocalizedContent map[string]string
	BugFixes         []bugfix.Fix
	TechnicalDetails string
	Installation     string
}

// Generator produces release documentation from bug-fix records and
// project configuration.
type Generator struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the generator.
type Option func(*Generator)

// WithClock overrides the generation timestamp source (for tests).
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New constructs a generator from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Generator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	g := &Generator{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "relnotes"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate builds the complete release-notes record: one localized
// narrative per configured locale, the technical-details document, and the
// installation instructions. It performs no I/O beyond reading the clock.
func (g *Generator) Generate(version string, fixes []bugfix.Fix) ReleaseNotes {
	date := g.now().Format("2006-01-02")

	localized := make(map[string]string, len(g.cfg.Notes.Locales))
	for _, locale := range g.cfg.Notes.Locales {
		localized[locale] = g.narrative(locale, version, date, fixes)
	}

	notes := ReleaseNotes{
		Version:          version,
		ReleaseDate:      date,
		LocalizedContent: localized,
		BugFixes:         fixes,
		TechnicalDetails: g.technicalDetails(fixes),
		Installation:     g.installation(version),
	}

	g.logger.Info("release notes generated",
		logging.String(logging.FieldVersion, version),
		logging.Int("locales", len(localized)),
		logging.Int("bug_fixes", len(fixes)),
	)
	return notes
}

// narrative selects the localized template by the locale's base language.
// Unrecognized locales fall back to English.
func (g *Generator) narrative(locale, version, date string, fixes []bugfix.Fix) string {
	tag := language.Make(locale)
	base, _ := tag.Base()
	if base.String() == "tr" {
		return g.turkishNarrative(version, date, fixes)
	}
	return g.englishNarrative(version, date, fixes)
}

func (g *Generator) releaseTagURL(version string) string {
	return fmt.Sprintf("https://github.com/%s/%s/releases/tag/v%s",
		g.cfg.Project.RepoOwner, g.cfg.Project.RepoName, version)
}
