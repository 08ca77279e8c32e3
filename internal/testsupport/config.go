package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lathe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "dist")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ProjectDir = filepath.Join(base, "project")
	cfgVal.Project.AppName = "TezgahTakip"
	cfgVal.Project.RepoOwner = "owner"
	cfgVal.Project.RepoName = "repo"
	cfgVal.Publish.Token = "test-token"
	cfgVal.Publish.RetryAttempts = 0

	if err := os.MkdirAll(cfgVal.Paths.ProjectDir, 0o755); err != nil {
		t.Fatalf("mkdir project dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAppName overrides the application name on the test config.
func WithAppName(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Project.AppName = name
	}
}

// WithBundleTemplate overrides the bundle name template.
func WithBundleTemplate(template string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Assets.BundleTemplate = template
	}
}

// WithPublishToken sets the release host credential on the test config.
func WithPublishToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.Token = token
	}
}

// WithPublishBaseURL points the publisher at a test server.
func WithPublishBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.BaseURL = url
	}
}

// WithLocales overrides the release-note locales.
func WithLocales(locales ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notes.Locales = locales
	}
}

// WithExcludePatterns replaces the source exclusion rules.
func WithExcludePatterns(patterns ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.ExcludePatterns = patterns
	}
}
