package relnotes_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lathe/internal/bugfix"
	"lathe/internal/relnotes"
	"lathe/internal/testsupport"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	}
}

func sampleFixes() []bugfix.Fix {
	return []bugfix.Fix{
		{
			ID:               "BUG-001",
			Title:            "Database path resolution fails on first launch",
			Description:      "The data file could not be located when started from a shortcut.",
			Severity:         "critical",
			AffectedVersions: []string{"2.0.0", "2.1.0"},
			SolutionSummary:  "Resolve the data directory relative to the executable.",
			TechnicalDetails: "Added multi-location path resolution with executable-relative fallback.",
			TestResults:      "12/12 path resolution cases pass.",
		},
		{
			ID:              "BUG-002",
			Title:           "Update check hangs without network",
			Description:     "The update prompt blocked the UI when offline.",
			Severity:        "high",
			SolutionSummary: "Added a request timeout to the update check.",
		},
	}
}

func TestGenerateProducesAllConfiguredLocales(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLocales("tr", "en"))
	gen, err := relnotes.New(cfg, nil, relnotes.WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}

	notes := gen.Generate("2.1.4", sampleFixes())
	if notes.ReleaseDate != "2026-03-14" {
		t.Fatalf("unexpected release date %q", notes.ReleaseDate)
	}
	if len(notes.LocalizedContent) != 2 {
		t.Fatalf("expected 2 locales, got %d", len(notes.LocalizedContent))
	}
	if !strings.Contains(notes.LocalizedContent["tr"], "Çözülen Hatalar") {
		t.Error("turkish narrative missing fixed-issues section")
	}
	if !strings.Contains(notes.LocalizedContent["en"], "Fixed Issues") {
		t.Error("english narrative missing fixed-issues section")
	}
	if !strings.Contains(notes.LocalizedContent["en"], "BUG-001") {
		t.Error("english narrative missing bug id")
	}
	if !strings.Contains(notes.TechnicalDetails, "multi-location path resolution") {
		t.Error("technical document missing implementation detail")
	}
	if !strings.Contains(notes.Installation, "v2.1.4") {
		t.Error("installation guide not parameterized by version")
	}
}

func TestGenerateIsDeterministicForFixedClock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen, err := relnotes.New(cfg, nil, relnotes.WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}

	first := gen.Generate("2.1.4", sampleFixes())
	second := gen.Generate("2.1.4", sampleFixes())
	for locale, content := range first.LocalizedContent {
		if second.LocalizedContent[locale] != content {
			t.Fatalf("locale %s content differs between runs", locale)
		}
	}
	if first.TechnicalDetails != second.TechnicalDetails {
		t.Fatal("technical document differs between runs")
	}
}

func TestPersistWritesFiveFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLocales("tr", "en"))
	gen, err := relnotes.New(cfg, nil, relnotes.WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	notes := gen.Generate("2.1.4", sampleFixes())
	created, err := gen.Persist(notes, dir)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if len(created) != 5 {
		t.Fatalf("expected 5 files, got %d: %v", len(created), created)
	}

	wantNames := map[relnotes.Kind]string{
		relnotes.KindCombined:     "RELEASE_NOTES_v2.1.4.md",
		relnotes.LocaleKind("tr"): "RELEASE_NOTES_v2.1.4_TR.md",
		relnotes.LocaleKind("en"): "RELEASE_NOTES_v2.1.4_EN.md",
		relnotes.KindTechnical:    "TECHNICAL_DETAILS_v2.1.4.md",
		relnotes.KindInstallation: "INSTALLATION_GUIDE_v2.1.4.md",
	}
	for kind, name := range wantNames {
		path, ok := created[kind]
		if !ok {
			t.Errorf("missing kind %q in result", kind)
			continue
		}
		if filepath.Base(path) != name {
			t.Errorf("kind %q: expected file %q, got %q", kind, name, filepath.Base(path))
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("kind %q: file not written: %v", kind, err)
		}
	}

	combined, err := os.ReadFile(created[relnotes.KindCombined])
	if err != nil {
		t.Fatal(err)
	}
	text := string(combined)
	trIdx := strings.Index(text, "Sürüm Notları")
	enIdx := strings.Index(text, "Release Notes\n\n**Release Date**")
	techIdx := strings.Index(text, "# Technical Implementation Details")
	installIdx := strings.Index(text, "# Installation Instructions")
	if trIdx < 0 || enIdx < 0 || techIdx < 0 || installIdx < 0 {
		t.Fatal("combined document missing a section")
	}
	if !(trIdx < enIdx && enIdx < techIdx && techIdx < installIdx) {
		t.Fatal("combined document sections out of fixed order")
	}
}

func TestPersistOverwritesExistingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen, err := relnotes.New(cfg, nil, relnotes.WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	stale := filepath.Join(dir, "RELEASE_NOTES_v2.1.4.md")
	testsupport.WriteTextFile(t, stale, "stale content from an aborted run")

	notes := gen.Generate("2.1.4", nil)
	if _, err := gen.Persist(notes, dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	data, err := os.ReadFile(stale)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale content") {
		t.Fatal("existing file was not overwritten")
	}
}
