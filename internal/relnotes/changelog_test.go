package relnotes_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lathe/internal/relnotes"
	"lathe/internal/testsupport"
)

func TestUpdateChangelogCreatesFileWhenMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen, err := relnotes.New(cfg, nil, relnotes.WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "CHANGELOG.md")
	if err := gen.UpdateChangelog("2.1.4", sampleFixes(), path); err != nil {
		t.Fatalf("UpdateChangelog: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# TezgahTakip Changelog") {
		t.Fatalf("missing default top heading, got %q", firstLine(content))
	}
	if !strings.Contains(content, "## [v2.1.4] - 2026-03-14") {
		t.Fatal("missing version section heading")
	}
	if !strings.Contains(content, "Database path resolution fails on first launch") {
		t.Fatal("missing fixed entry")
	}
}

func TestUpdateChangelogInsertsAfterHeadingAndPreservesHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen, err := relnotes.New(cfg, nil, relnotes.WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "CHANGELOG.md")
	testsupport.WriteTextFile(t, path, `# TezgahTakip Changelog

## [v2.1.3] - 2026-01-10

### Fixed
- older fix
`)

	if err := gen.UpdateChangelog("2.1.4", sampleFixes(), path); err != nil {
		t.Fatalf("UpdateChangelog: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	newIdx := strings.Index(content, "## [v2.1.4]")
	oldIdx := strings.Index(content, "## [v2.1.3]")
	if newIdx < 0 || oldIdx < 0 {
		t.Fatalf("missing section: new=%d old=%d", newIdx, oldIdx)
	}
	if newIdx > oldIdx {
		t.Fatal("new section must precede older history")
	}
	if !strings.Contains(content, "older fix") {
		t.Fatal("existing history lost")
	}
}

func TestUpdateChangelogReplacesSameVersionSection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen, err := relnotes.New(cfg, nil, relnotes.WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "CHANGELOG.md")
	for i := 0; i < 2; i++ {
		if err := gen.UpdateChangelog("2.1.4", sampleFixes(), path); err != nil {
			t.Fatalf("UpdateChangelog run %d: %v", i+1, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "## [v2.1.4]"); n != 1 {
		t.Fatalf("expected exactly one section for the version, found %d", n)
	}
}

func TestAnnounceInReadmeInsertsOnceAndSkipsRepeat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen, err := relnotes.New(cfg, nil, relnotes.WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "README.md")
	testsupport.WriteTextFile(t, path, `# TezgahTakip

A machine tracking application.
`)

	updated, err := gen.AnnounceInReadme("2.1.4", path)
	if err != nil {
		t.Fatalf("AnnounceInReadme: %v", err)
	}
	if !updated {
		t.Fatal("expected first call to modify the readme")
	}

	updated, err = gen.AnnounceInReadme("2.1.4", path)
	if err != nil {
		t.Fatalf("AnnounceInReadme repeat: %v", err)
	}
	if updated {
		t.Fatal("expected repeat call to skip")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if n := strings.Count(content, "Latest Release: v2.1.4"); n != 1 {
		t.Fatalf("expected one announcement, found %d", n)
	}
	if !strings.Contains(content, "A machine tracking application.") {
		t.Fatal("existing readme body lost")
	}
	titleIdx := strings.Index(content, "# TezgahTakip")
	annIdx := strings.Index(content, "## Latest Release")
	if annIdx < titleIdx {
		t.Fatal("announcement must follow the top heading")
	}
}

func TestAnnounceInReadmeMissingFileIsSkip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen, err := relnotes.New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	updated, err := gen.AnnounceInReadme("2.1.4", filepath.Join(t.TempDir(), "README.md"))
	if err != nil {
		t.Fatalf("expected skip for missing readme, got %v", err)
	}
	if updated {
		t.Fatal("missing readme must not report modification")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
