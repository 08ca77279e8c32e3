package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for build outputs and logs.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	WorkDir    string `toml:"work_dir"`
	LogDir     string `toml:"log_dir"`
	ProjectDir string `toml:"project_dir"`
}

// Project identifies the application being released.
type Project struct {
	AppName         string   `toml:"app_name"`
	DefaultVersion  string   `toml:"default_version"`
	EntryPoints     []string `toml:"entry_points"`
	RepoOwner       string   `toml:"repo_owner"`
	RepoName        string   `toml:"repo_name"`
	ChangelogPath   string   `toml:"changelog_path"`
	ReadmePath      string   `toml:"readme_path"`
	BugFixesPath    string   `toml:"bug_fixes_path"`
	PackagerBinary  string   `toml:"packager_binary"`
	PackagerTimeout int      `toml:"packager_timeout"`
}

// Assets contains artifact naming templates and optional bundle inputs.
// Templates substitute {app}, {version}, and {platform}.
type Assets struct {
	BundleTemplate string   `toml:"bundle_template"`
	SourceTemplate string   `toml:"source_template"`
	IconCandidates []string `toml:"icon_candidates"`
	DataFiles      []string `toml:"data_files"`
}

// Source contains source-archive packaging rules.
type Source struct {
	ExcludePatterns []string `toml:"exclude_patterns"`
	AlwaysInclude   []string `toml:"always_include"`
}

// Notes contains release-note generation settings.
type Notes struct {
	Locales []string `toml:"locales"`
}

// Publish contains remote release host settings.
type Publish struct {
	BaseURL        string   `toml:"base_url"`
	Token          string   `toml:"token"`
	TokenEnv       string   `toml:"token_env"`
	RequestTimeout int      `toml:"request_timeout"`
	RetryAttempts  int      `toml:"retry_attempts"`
	Draft          bool     `toml:"draft"`
	Prerelease     bool     `toml:"prerelease"`
	DocKinds       []string `toml:"doc_kinds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the release pipeline.
//
// Configuration sections by subsystem:
//   - Paths: output, work, log, and project directories
//   - Project: app identity, entry points, repo coordinates, packager binary
//   - Assets: artifact name templates and optional bundle inputs
//   - Source: source-archive exclusion rules
//   - Notes: release-note locales
//   - Publish: release host URL, credential, timeout, and retry policy
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Project       Project       `toml:"project"`
	Assets        Assets        `toml:"assets"`
	Source        Source        `toml:"source"`
	Notes         Notes         `toml:"notes"`
	Publish       Publish       `toml:"publish"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lathe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. A missing file yields
// defaults; Load never writes anything to disk.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lathe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to the provided path,
// refusing to clobber an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PublishToken resolves the release host credential from the literal config
// value or the configured environment variable.
func (c *Config) PublishToken() string {
	if token := strings.TrimSpace(c.Publish.Token); token != "" {
		return token
	}
	if c.Publish.TokenEnv != "" {
		return strings.TrimSpace(os.Getenv(c.Publish.TokenEnv))
	}
	return ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
