package relnotes

import (
	"fmt"
	"os"
	"strings"

	"lathe/internal/logging"
	"lathe/internal/services"
)

// AnnounceInReadme inserts a release announcement after the README's top
// heading. The returned bool reports whether the file was modified: a
// missing README or an announcement already present for this version is a
// skip, not an error.
func (g *Generator) AnnounceInReadme(version, path string) (bool, error) {
	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.logger.Warn("readme not found, skipping announcement", logging.String("path", path))
			return false, nil
		}
		return false, services.Wrap(services.ErrIO, "repo-update", "readme", "read readme", err)
	}

	content := string(existing)
	marker := fmt.Sprintf("Latest Release: v%s", version)
	if strings.Contains(content, marker) {
		g.logger.Info("readme already announces this release",
			logging.String(logging.FieldVersion, version))
		return false, nil
	}

	announcement := fmt.Sprintf(`## Latest Release: v%s

- [Download v%s](%s)
- See RELEASE_NOTES_v%s.md for details

---
`, version, version, g.releaseTagURL(version), version)

	updated := insertAfterFirstHeading(content, announcement)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return false, services.Wrap(services.ErrIO, "repo-update", "readme", "write readme", err)
	}

	g.logger.Info("readme announcement inserted",
		logging.String(logging.FieldVersion, version),
		logging.String("path", path),
	)
	return true, nil
}
