package buildkit

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lathe/internal/checksum"
	"lathe/internal/logging"
)

// PackageSource walks the project tree and writes every file not matched by
// the configured exclusion rules into a deflate-compressed archive, keeping
// relative paths with forward-slash separators. Files listed in
// always_include are archived even when an exclusion pattern matches them.
func (b *Builder) PackageSource(ctx context.Context, version string) BuildResult {
	start := time.Now()
	logger := logging.WithContext(ctx, b.logger)

	archiveName := b.SourceName(version)
	archivePath := filepath.Join(b.cfg.Paths.OutputDir, archiveName)

	if err := os.MkdirAll(b.cfg.Paths.OutputDir, 0o755); err != nil {
		return failure(start, fmt.Sprintf("create output directory: %v", err))
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return failure(start, fmt.Sprintf("create archive: %v", err))
	}

	zw := zip.NewWriter(out)
	matcher := newExcludeMatcher(b.cfg.Source.ExcludePatterns)
	always := make(map[string]struct{}, len(b.cfg.Source.AlwaysInclude))
	for _, name := range b.cfg.Source.AlwaysInclude {
		always[name] = struct{}{}
	}

	root := b.cfg.Paths.ProjectDir
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		if entry.IsDir() {
			// Prune excluded subtrees before recursing into them.
			if matcher.matches(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		arcname := filepath.ToSlash(rel)
		if abs, absErr := filepath.Abs(path); absErr == nil && abs == archivePath {
			return nil
		}

		if _, keep := always[arcname]; !keep {
			if matcher.matches(entry.Name()) || matcher.matchesPath(arcname) {
				return nil
			}
		}

		return addToArchive(zw, path, arcname)
	})

	if walkErr == nil {
		walkErr = zw.Close()
	} else {
		_ = zw.Close()
	}
	if closeErr := out.Close(); walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		_ = os.Remove(archivePath)
		return failure(start, fmt.Sprintf("package source: %v", walkErr))
	}

	size, digest, err := checksum.File(archivePath)
	if err != nil {
		return failure(start, fmt.Sprintf("checksum archive: %v", err))
	}

	logger.Info("source packaged",
		logging.String("path", archivePath),
		logging.Int64("size", size),
		logging.String("checksum", digest),
	)
	return BuildResult{
		Success:    true,
		OutputPath: archivePath,
		Size:       size,
		Checksum:   digest,
		Duration:   time.Since(start),
	}
}

func addToArchive(zw *zip.Writer, path, arcname string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = arcname
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(writer, file)
	return err
}

// excludeMatcher evaluates the three supported pattern forms: prefix match
// ("pattern*"), suffix match ("*pattern"), and substring containment.
type excludeMatcher struct {
	patterns []string
}

func newExcludeMatcher(patterns []string) excludeMatcher {
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return excludeMatcher{patterns: cleaned}
}

func (m excludeMatcher) matches(name string) bool {
	for _, pattern := range m.patterns {
		switch {
		case strings.HasPrefix(pattern, "*"):
			if strings.HasSuffix(name, pattern[1:]) {
				return true
			}
		case strings.HasSuffix(pattern, "*"):
			if strings.HasPrefix(name, pattern[:len(pattern)-1]) {
				return true
			}
		default:
			if strings.Contains(name, pattern) {
				return true
			}
		}
	}
	return false
}

// matchesPath checks containment patterns against the slash-separated
// relative path so rules like ".kiro/specs" can target nested locations.
func (m excludeMatcher) matchesPath(arcname string) bool {
	for _, pattern := range m.patterns {
		if strings.HasPrefix(pattern, "*") || strings.HasSuffix(pattern, "*") {
			continue
		}
		if strings.Contains(arcname, pattern) {
			return true
		}
	}
	return false
}
