package buildkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"lathe/internal/checksum"
	"lathe/internal/config"
	"lathe/internal/fileutil"
	"lathe/internal/logging"
	"lathe/internal/services"
)

// Builder produces the release artifacts: an executable bundle via the
// external packaging tool and a source archive.
type Builder struct {
	cfg      *config.Config
	logger   *slog.Logger
	exec     Executor
	platform string
}

// Option configures the builder.
type Option func(*Builder)

// WithExecutor injects a custom packager executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(b *Builder) {
		if exec != nil {
			b.exec = exec
		}
	}
}

// WithPlatform overrides the platform label substituted into artifact names.
func WithPlatform(platform string) Option {
	return func(b *Builder) {
		if platform != "" {
			b.platform = platform
		}
	}
}

// New constructs a builder from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Builder, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	b := &Builder{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "buildkit"),
		exec:     commandExecutor{},
		platform: defaultPlatform(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func defaultPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "Windows"
	case "darwin":
		return "macOS"
	default:
		return "Linux"
	}
}

// BundleName returns the canonical bundle file name for a version.
func (b *Builder) BundleName(version string) string {
	return b.expandTemplate(b.cfg.Assets.BundleTemplate, version)
}

// SourceName returns the canonical source archive name for a version.
func (b *Builder) SourceName(version string) string {
	return b.expandTemplate(b.cfg.Assets.SourceTemplate, version)
}

func (b *Builder) expandTemplate(template, version string) string {
	r := strings.NewReplacer(
		"{app}", b.cfg.Project.AppName,
		"{version}", version,
		"{platform}", b.platform,
	)
	return r.Replace(template)
}

// ResolveEntryPoint returns the first configured entry-point candidate that
// exists under the project directory.
func (b *Builder) ResolveEntryPoint() (string, error) {
	for _, candidate := range b.cfg.Project.EntryPoints {
		path := filepath.Join(b.cfg.Paths.ProjectDir, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", services.Wrap(services.ErrMissingInput, "build", "entry point",
		fmt.Sprintf("none of %v exist under %s", b.cfg.Project.EntryPoints, b.cfg.Paths.ProjectDir), nil)
}

// BuildBundle invokes the external packaging tool to produce a single
// self-contained executable bundle. All failure modes are captured into the
// returned BuildResult; the method itself never fails.
//
// The entry point is checked before invoking the packager so a missing
// script fails immediately without the cost of a doomed subprocess run.
func (b *Builder) BuildBundle(ctx context.Context, entryPoint, version string) BuildResult {
	start := time.Now()
	logger := logging.WithContext(ctx, b.logger)

	if info, err := os.Stat(entryPoint); err != nil || info.IsDir() {
		logger.Warn("entry point missing, skipping packager", logging.String("entry_point", entryPoint))
		return failure(start, fmt.Sprintf("entry point not found: %s", entryPoint))
	}

	bundleName := b.BundleName(version)
	canonicalPath := filepath.Join(b.cfg.Paths.OutputDir, bundleName)

	if err := os.MkdirAll(b.cfg.Paths.OutputDir, 0o755); err != nil {
		return failure(start, fmt.Sprintf("create output directory: %v", err))
	}
	if err := os.MkdirAll(filepath.Join(b.cfg.Paths.WorkDir, "build"), 0o755); err != nil {
		return failure(start, fmt.Sprintf("create work directory: %v", err))
	}

	args := b.packagerArgs(bundleName, entryPoint)
	logger.Info("invoking packager",
		logging.String("binary", b.cfg.Project.PackagerBinary),
		logging.String("bundle", bundleName),
	)

	runCtx := ctx
	if timeout := time.Duration(b.cfg.Project.PackagerTimeout) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stderr, err := b.exec.Run(runCtx, b.cfg.Project.PackagerBinary, args, b.cfg.Paths.ProjectDir)
	if err != nil {
		message := strings.TrimSpace(stderr)
		if message == "" {
			message = err.Error()
		}
		logger.Error("packager failed", logging.Error(err))
		return failure(start, fmt.Sprintf("packager failed: %s", message))
	}

	produced, err := locateBundle(b.cfg.Paths.OutputDir, bundleName)
	if err != nil {
		return failure(start, err.Error())
	}
	if produced != canonicalPath {
		if err := fileutil.MoveFile(produced, canonicalPath); err != nil {
			return failure(start, fmt.Sprintf("relocate bundle: %v", err))
		}
	}

	size, digest, err := checksum.File(canonicalPath)
	if err != nil {
		return failure(start, fmt.Sprintf("checksum bundle: %v", err))
	}

	logger.Info("bundle built",
		logging.String("path", canonicalPath),
		logging.Int64("size", size),
		logging.String("checksum", digest),
	)
	return BuildResult{
		Success:    true,
		OutputPath: canonicalPath,
		Size:       size,
		Checksum:   digest,
		Duration:   time.Since(start),
	}
}

// packagerArgs assembles the packager's fixed argument contract: output
// directory, work directory, spec directory, bundle name, optional icon,
// optional embedded data files, and the entry point.
func (b *Builder) packagerArgs(bundleName, entryPoint string) []string {
	args := []string{
		"--onefile",
		"--windowed",
		"--clean",
		fmt.Sprintf("--distpath=%s", b.cfg.Paths.OutputDir),
		fmt.Sprintf("--workpath=%s", filepath.Join(b.cfg.Paths.WorkDir, "build")),
		fmt.Sprintf("--specpath=%s", b.cfg.Paths.WorkDir),
		fmt.Sprintf("--name=%s", stripExeSuffix(bundleName)),
	}

	for _, icon := range b.cfg.Assets.IconCandidates {
		path := filepath.Join(b.cfg.Paths.ProjectDir, icon)
		if _, err := os.Stat(path); err == nil {
			args = append(args, "--icon", path)
			break
		}
	}

	for _, data := range b.cfg.Assets.DataFiles {
		path := filepath.Join(b.cfg.Paths.ProjectDir, data)
		if _, err := os.Stat(path); err == nil {
			args = append(args, "--add-data", fmt.Sprintf("%s:.", path))
		}
	}

	return append(args, entryPoint)
}

// Cleanup removes the builder's temporary working directory. A missing
// directory is not an error.
func (b *Builder) Cleanup() error {
	if strings.TrimSpace(b.cfg.Paths.WorkDir) == "" {
		return nil
	}
	if err := os.RemoveAll(b.cfg.Paths.WorkDir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove work directory: %w", err)
	}
	return nil
}
