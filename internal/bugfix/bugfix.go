// Package bugfix loads the structured bug-fix records that feed release
// documentation.
package bugfix

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fix describes one resolved defect going into a release. Order within the
// source document is preserved for display.
type Fix struct {
	ID               string   `yaml:"id"`
	Title            string   `yaml:"title"`
	Description      string   `yaml:"description"`
	Severity         string   `yaml:"severity"`
	AffectedVersions []string `yaml:"affected_versions"`
	SolutionSummary  string   `yaml:"solution_summary"`
	TechnicalDetails string   `yaml:"technical_details"`
	TestResults      string   `yaml:"test_results"`
}

type document struct {
	Fixes []Fix `yaml:"bug_fixes"`
}

// Load reads the YAML bug-fix document at path. A missing file yields an
// empty set so documentation can still be generated for releases without
// recorded fixes.
func Load(path string) ([]Fix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read bug fixes %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse bug fixes %s: %w", path, err)
	}

	for i := range doc.Fixes {
		doc.Fixes[i].Severity = normalizeSeverity(doc.Fixes[i].Severity)
	}
	return doc.Fixes, nil
}

func normalizeSeverity(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "critical":
		return "critical"
	case "high":
		return "high"
	case "medium", "":
		return "medium"
	case "low":
		return "low"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
