package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProject()
	c.normalizeAssets()
	c.normalizePublish()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ProjectDir) == "" {
		c.Paths.ProjectDir = "."
	}
	if c.Paths.ProjectDir, err = expandPath(c.Paths.ProjectDir); err != nil {
		return fmt.Errorf("paths.project_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProject() {
	c.Project.AppName = strings.TrimSpace(c.Project.AppName)
	if c.Project.AppName == "" {
		c.Project.AppName = defaultAppName
	}
	c.Project.DefaultVersion = strings.TrimSpace(c.Project.DefaultVersion)
	if c.Project.DefaultVersion == "" {
		c.Project.DefaultVersion = defaultVersion
	}
	if strings.TrimSpace(c.Project.ChangelogPath) == "" {
		c.Project.ChangelogPath = defaultChangelogPath
	}
	if strings.TrimSpace(c.Project.ReadmePath) == "" {
		c.Project.ReadmePath = defaultReadmePath
	}
	if strings.TrimSpace(c.Project.BugFixesPath) == "" {
		c.Project.BugFixesPath = defaultBugFixesPath
	}
	c.Project.PackagerBinary = strings.TrimSpace(c.Project.PackagerBinary)
	if c.Project.PackagerBinary == "" {
		c.Project.PackagerBinary = defaultPackagerBinary
	}
	if c.Project.PackagerTimeout <= 0 {
		c.Project.PackagerTimeout = defaultPackagerTimeout
	}
}

func (c *Config) normalizeAssets() {
	if strings.TrimSpace(c.Assets.BundleTemplate) == "" {
		c.Assets.BundleTemplate = defaultBundleTemplate
	}
	if strings.TrimSpace(c.Assets.SourceTemplate) == "" {
		c.Assets.SourceTemplate = defaultSourceTemplate
	}
}

func (c *Config) normalizePublish() {
	c.Publish.BaseURL = strings.TrimRight(strings.TrimSpace(c.Publish.BaseURL), "/")
	if c.Publish.BaseURL == "" {
		c.Publish.BaseURL = defaultPublishBaseURL
	}
	if strings.TrimSpace(c.Publish.TokenEnv) == "" {
		c.Publish.TokenEnv = defaultPublishTokenEnv
	}
	if c.Publish.RequestTimeout <= 0 {
		c.Publish.RequestTimeout = defaultPublishTimeout
	}
	if c.Publish.RetryAttempts < 0 {
		c.Publish.RetryAttempts = 0
	}
	if len(c.Publish.DocKinds) == 0 {
		c.Publish.DocKinds = []string{"combined", "technical", "installation"}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}
